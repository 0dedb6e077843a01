package piloto

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/auth"
	"github.com/ijasaude/vistoria/internal/br"
	"github.com/ijasaude/vistoria/internal/util"
)

// PilotRepository abstrai acesso a dados para o serviço.
type PilotRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Piloto, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ExisteDuplicado(ctx context.Context, nome string, telefone *string, ignorar *uuid.UUID) (bool, error)
	CreateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) (Piloto, error)
	UpdateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]Piloto, int, error)
	Vincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) (Vinculo, error)
	Desvincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) error
	ListVinculos(ctx context.Context, pilotoID uuid.UUID) ([]Vinculo, error)
}

// Service reúne as regras do cadastro de pilotos.
type Service struct {
	repo PilotRepository
}

// NewService cria uma nova instância do serviço.
func NewService(repo PilotRepository) *Service {
	return &Service{repo: repo}
}

func normalizar(nome, regiao, telefone string) (string, *string, *string, error) {
	nome = strings.TrimSpace(nome)
	regiao = strings.ToUpper(strings.TrimSpace(regiao))
	telDigits := br.SomenteDigitos(telefone)

	if err := util.RequireString(nome, "nome do piloto"); err != nil {
		return "", nil, nil, err
	}
	if regiao != "" {
		if _, ok := Regioes[regiao]; !ok {
			return "", nil, nil, ErrRegiaoInvalida
		}
	}
	if telefone != "" && len(telDigits) != 10 && len(telDigits) != 11 {
		return "", nil, nil, ErrTelefoneInvalido
	}

	var regiaoPtr, telPtr *string
	if regiao != "" {
		regiaoPtr = &regiao
	}
	if telDigits != "" {
		telPtr = &telDigits
	}
	return nome, regiaoPtr, telPtr, nil
}

// Create cadastra piloto e conta de acesso em uma transação.
func (s *Service) Create(ctx context.Context, input CreateInput) (Piloto, error) {
	nome, regiao, telefone, err := normalizar(input.Nome, input.Regiao, input.Telefone)
	if err != nil {
		return Piloto{}, err
	}

	login := strings.TrimSpace(input.Login)
	if err := util.RequireString(login, "login"); err != nil {
		return Piloto{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return Piloto{}, err
	}

	dup, err := s.repo.ExisteDuplicado(ctx, nome, telefone, nil)
	if err != nil {
		return Piloto{}, err
	}
	if dup {
		return Piloto{}, ErrDuplicado
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return Piloto{}, err
	}

	return s.repo.CreateComUsuario(ctx, Piloto{
		ID:       uuid.New(),
		Nome:     nome,
		Regiao:   regiao,
		Telefone: telefone,
	}, login, hash)
}

// Update edita piloto e sincroniza a conta de acesso.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Piloto, error) {
	nome, regiao, telefone, err := normalizar(input.Nome, input.Regiao, input.Telefone)
	if err != nil {
		return Piloto{}, err
	}

	login := strings.TrimSpace(input.Login)
	if err := util.RequireString(login, "login"); err != nil {
		return Piloto{}, err
	}

	dup, err := s.repo.ExisteDuplicado(ctx, nome, telefone, &input.ID)
	if err != nil {
		return Piloto{}, err
	}
	if dup {
		return Piloto{}, ErrDuplicado
	}

	var hash string
	if input.Senha != "" {
		if err := util.ValidatePassword(input.Senha); err != nil {
			return Piloto{}, err
		}
		hash, err = auth.Hash(input.Senha)
		if err != nil {
			return Piloto{}, err
		}
	}

	p := Piloto{ID: input.ID, Nome: nome, Regiao: regiao, Telefone: telefone}
	if err := s.repo.UpdateComUsuario(ctx, p, login, hash); err != nil {
		return Piloto{}, err
	}
	return p, nil
}

// Delete remove piloto, vínculos e conta de acesso.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// GetByID carrega piloto pelo id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Piloto, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists informa se o piloto está cadastrado.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// List lista pilotos. Para contas UVIS a listagem é restrita à região da
// unidade; UVIS sem região cadastrada não enxerga nenhum piloto.
func (s *Service) List(ctx context.Context, filter ListFilter, regiaoUVIS *string) ([]Piloto, int, error) {
	if regiaoUVIS != nil {
		regiao := strings.ToUpper(strings.TrimSpace(*regiaoUVIS))
		if regiao == "" {
			return nil, 0, nil
		}
		filter.Regiao = regiao
	}
	return s.repo.List(ctx, filter)
}

// Vincular associa o piloto a uma UVIS que ele atende.
func (s *Service) Vincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) (Vinculo, error) {
	ok, err := s.repo.Exists(ctx, pilotoID)
	if err != nil {
		return Vinculo{}, err
	}
	if !ok {
		return Vinculo{}, ErrNotFound
	}
	return s.repo.Vincular(ctx, pilotoID, uvisUsuarioID)
}

// Desvincular desfaz o par piloto↔UVIS.
func (s *Service) Desvincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) error {
	err := s.repo.Desvincular(ctx, pilotoID, uvisUsuarioID)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListVinculos lista as UVIS atendidas pelo piloto.
func (s *Service) ListVinculos(ctx context.Context, pilotoID uuid.UUID) ([]Vinculo, error) {
	return s.repo.ListVinculos(ctx, pilotoID)
}
