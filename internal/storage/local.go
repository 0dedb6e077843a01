package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalAnexos grava anexos em disco, no diretório configurado.
type LocalAnexos struct {
	dir string
}

func NewLocalAnexos(dir string) (*LocalAnexos, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: diretório de upload vazio")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: criar diretório: %w", err)
	}
	return &LocalAnexos{dir: dir}, nil
}

// Salvar grava o conteúdo e devolve o caminho relativo ao diretório.
func (l *LocalAnexos) Salvar(_ context.Context, nome string, conteudo []byte) (string, error) {
	// O nome vem do serviço já saneado; Base impede path traversal.
	nome = filepath.Base(nome)
	path := filepath.Join(l.dir, nome)
	if err := os.WriteFile(path, conteudo, 0o644); err != nil {
		return "", fmt.Errorf("storage: gravar anexo: %w", err)
	}
	return path, nil
}

// Remover apaga o arquivo. Arquivo já ausente não é erro.
func (l *LocalAnexos) Remover(_ context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remover anexo: %w", err)
	}
	return nil
}
