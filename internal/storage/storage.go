package storage

import "context"

// Anexos persiste e remove os arquivos anexados às solicitações. O
// caminho devolvido por Salvar é o que fica gravado no banco; caminhos
// http(s) são servidos por redirecionamento.
type Anexos interface {
	Salvar(ctx context.Context, nome string, conteudo []byte) (string, error)
	Remover(ctx context.Context, path string) error
}
