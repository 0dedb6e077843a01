package cliente

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/br"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// ClientRepository abstrai o repositório para permitir stubs nos testes.
type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Cliente, error)
	Create(ctx context.Context, c *Cliente) error
	Update(ctx context.Context, c *Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExisteDocumento(ctx context.Context, digitos string, ignorar *uuid.UUID) (bool, error)
	List(ctx context.Context, filtro ListFilter) ([]Cliente, int, error)
}

type Service struct {
	repo ClientRepository
}

func NewService(repo ClientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) montar(in CreateInput) (*Cliente, error) {
	if err := util.RequireString(in.Nome, "nome"); err != nil {
		return nil, err
	}
	doc, err := br.ValidarDocumento(in.Documento)
	if err != nil {
		return nil, err
	}
	for campo, valor := range map[string]string{
		"cep": in.CEP, "logradouro": in.Logradouro,
		"bairro": in.Bairro, "cidade": in.Cidade, "uf": in.UF,
	} {
		if err := util.RequireString(valor, campo); err != nil {
			return nil, err
		}
	}
	if in.Email != "" {
		if err := util.ValidateEmail(in.Email); err != nil {
			return nil, err
		}
	}

	c := &Cliente{
		Nome:          strings.TrimSpace(in.Nome),
		TipoDocumento: string(doc.Tipo),
		Documento:     doc.Digitos,
		CEP:           strings.TrimSpace(in.CEP),
		Logradouro:    strings.TrimSpace(in.Logradouro),
		Bairro:        strings.TrimSpace(in.Bairro),
		Cidade:        strings.TrimSpace(in.Cidade),
		UF:            strings.ToUpper(strings.TrimSpace(in.UF)),
	}
	c.Contato = opcional(in.Contato)
	c.Telefone = opcional(in.Telefone)
	c.Email = opcional(in.Email)
	c.Numero = opcional(in.Numero)
	c.Complemento = opcional(in.Complemento)
	return c, nil
}

// Create cadastra um cliente após validar o documento.
func (s *Service) Create(ctx context.Context, ator usuario.Ator, in CreateInput) (*Cliente, error) {
	if !ator.Perfil.PodeEditar() {
		return nil, usuario.ErrForbidden
	}
	c, err := s.montar(in)
	if err != nil {
		return nil, err
	}

	existe, err := s.repo.ExisteDocumento(ctx, c.Documento, nil)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrDocumentoDuplicado
	}

	c.ID = uuid.New()
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Str("cliente", c.ID.String()).Str("documento", c.TipoDocumento).
		Msg("cliente cadastrado")
	return c, nil
}

// Update edita o cadastro, revalidando o documento.
func (s *Service) Update(ctx context.Context, ator usuario.Ator, in UpdateInput) (*Cliente, error) {
	if !ator.Perfil.PodeEditar() {
		return nil, usuario.ErrForbidden
	}
	atual, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	c, err := s.montar(in.CreateInput)
	if err != nil {
		return nil, err
	}
	c.ID = atual.ID
	c.CriadoEm = atual.CriadoEm

	existe, err := s.repo.ExisteDocumento(ctx, c.Documento, &c.ID)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrDocumentoDuplicado
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete remove o cadastro. Restrito ao admin.
func (s *Service) Delete(ctx context.Context, ator usuario.Ator, id uuid.UUID) error {
	if ator.Perfil != usuario.PerfilAdmin {
		return usuario.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// GetByID devolve um cliente para os perfis administrativos.
func (s *Service) GetByID(ctx context.Context, ator usuario.Ator, id uuid.UUID) (*Cliente, error) {
	if !ator.Perfil.Elevado() {
		return nil, usuario.ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

// List pagina a listagem administrativa.
func (s *Service) List(ctx context.Context, ator usuario.Ator, filtro ListFilter) ([]Cliente, int, error) {
	if !ator.Perfil.Elevado() {
		return nil, 0, usuario.ErrForbidden
	}
	if filtro.Limit <= 0 || filtro.Limit > 100 {
		filtro.Limit = 20
	}
	if filtro.Offset < 0 {
		filtro.Offset = 0
	}
	return s.repo.List(ctx, filtro)
}

// ListTodos devolve a listagem completa para exportação.
func (s *Service) ListTodos(ctx context.Context, ator usuario.Ator, filtro ListFilter) ([]Cliente, error) {
	if !ator.Perfil.Elevado() {
		return nil, usuario.ErrForbidden
	}
	filtro.Limit = 0
	filtro.Offset = 0
	out, _, err := s.repo.List(ctx, filtro)
	return out, err
}

func opcional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
