package usuario

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/auth"
	"github.com/ijasaude/vistoria/internal/util"
)

var (
	// ErrCredenciaisInvalidas indica falha na autenticação.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrRefreshInvalido indica refresh token inválido ou expirado.
	ErrRefreshInvalido = errors.New("refresh token inválido")
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
)

// Audiência única da API; o perfil vai nos claims.
const audience = "vistoria"

// AccountRepository abstrai o acesso a contas para o serviço.
type AccountRepository interface {
	GetByLogin(ctx context.Context, login string) (Usuario, error)
	GetByID(ctx context.Context, id uuid.UUID) (Usuario, error)
	Create(ctx context.Context, u Usuario) (Usuario, error)
	Update(ctx context.Context, u Usuario) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListUVIS(ctx context.Context, filter ListFilter) ([]Usuario, int, error)
	ListUVISResumo(ctx context.Context) ([]Usuario, error)
	ListPasskeys(ctx context.Context, usuarioID uuid.UUID) ([]Passkey, error)
	CreatePasskey(ctx context.Context, p Passkey) error
	UpdatePasskeyCounter(ctx context.Context, credentialID []byte, signCount uint32, clonada bool) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service concentra autenticação, sessões e o cadastro de contas UVIS.
type Service struct {
	repo       AccountRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewService cria novo serviço.
func NewService(repo AccountRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *Service {
	return &Service{repo: repo, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe o gerenciador (útil em middlewares).
func (s *Service) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Usuario      Usuario
}

// Authenticate valida login e senha e emite par de tokens.
func (s *Service) Authenticate(ctx context.Context, login, senha string) (*LoginResult, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil || !ok {
		log.Warn().Str("login", user.Login).Msg("login: senha inválida")
		return nil, ErrCredenciaisInvalidas
	}

	return s.issueTokens(ctx, user)
}

// AuthenticateWithUser emite tokens para conta já validada (ex.: passkey).
func (s *Service) AuthenticateWithUser(ctx context.Context, user Usuario) (*LoginResult, error) {
	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user Usuario) (*LoginResult, error) {
	var pilotoClaim *string
	if user.PilotoID != nil {
		v := user.PilotoID.String()
		pilotoClaim = &v
	}

	access, _, err := s.jwt.GenerateAccessToken(user.ID.String(), audience, string(user.Perfil), pilotoClaim)
	if err != nil {
		return nil, err
	}

	raw, hashed, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	key := auth.RefreshRedisKey(audience, hashed)
	if err := s.redis.Set(ctx, key, user.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: access, RefreshToken: raw, Usuario: user}, nil
}

// Refresh troca um refresh token válido por um novo par (rotação).
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	hashed := auth.HashRefreshToken(rawRefresh)
	key := auth.RefreshRedisKey(audience, hashed)

	subject, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalido
		}
		return nil, err
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrRefreshInvalido
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRefreshInvalido
		}
		return nil, err
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revoga o refresh token informado.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	if strings.TrimSpace(rawRefresh) == "" {
		return nil
	}
	key := auth.RefreshRedisKey(audience, auth.HashRefreshToken(rawRefresh))
	return s.redis.Del(ctx, key).Err()
}

// GetByID carrega a conta pelo id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByLogin carrega a conta pelo login.
func (s *Service) GetByLogin(ctx context.Context, login string) (Usuario, error) {
	return s.repo.GetByLogin(ctx, login)
}

// CreateUVIS cadastra conta de unidade (somente admin na camada de rota).
func (s *Service) CreateUVIS(ctx context.Context, input CreateInput) (Usuario, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.Login = strings.TrimSpace(input.Login)

	if err := util.RequireString(input.Nome, "nome da UVIS"); err != nil {
		return Usuario{}, err
	}
	if err := util.RequireString(input.Login, "login"); err != nil {
		return Usuario{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return Usuario{}, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return Usuario{}, err
	}

	return s.repo.Create(ctx, Usuario{
		ID:          uuid.New(),
		Nome:        input.Nome,
		Regiao:      input.Regiao,
		CodigoSetor: input.CodigoSetor,
		Login:       input.Login,
		SenhaHash:   hash,
		Perfil:      PerfilUVIS,
	})
}

// UpdateUVIS edita conta de unidade; senha vazia preserva a atual.
func (s *Service) UpdateUVIS(ctx context.Context, input UpdateInput) (Usuario, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.Login = strings.TrimSpace(input.Login)

	if err := util.RequireString(input.Nome, "nome da UVIS"); err != nil {
		return Usuario{}, err
	}
	if err := util.RequireString(input.Login, "login"); err != nil {
		return Usuario{}, err
	}

	user, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return Usuario{}, err
	}
	if user.Perfil != PerfilUVIS {
		return Usuario{}, ErrNotFound
	}

	user.Nome = input.Nome
	user.Regiao = input.Regiao
	user.CodigoSetor = input.CodigoSetor
	user.Login = input.Login

	if input.Senha != "" {
		if err := util.ValidatePassword(input.Senha); err != nil {
			return Usuario{}, err
		}
		hash, err := auth.Hash(input.Senha)
		if err != nil {
			return Usuario{}, err
		}
		user.SenhaHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return Usuario{}, err
	}
	return user, nil
}

// DeleteUVIS remove conta de unidade sem solicitações vinculadas.
func (s *Service) DeleteUVIS(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Perfil != PerfilUVIS {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ListUVIS lista contas de unidade para o painel.
func (s *Service) ListUVIS(ctx context.Context, filter ListFilter) ([]Usuario, int, error) {
	return s.repo.ListUVIS(ctx, filter)
}

// ListUVISResumo lista (id, nome) para selects de filtro.
func (s *Service) ListUVISResumo(ctx context.Context) ([]Usuario, error) {
	return s.repo.ListUVISResumo(ctx)
}

// ListPasskeys devolve as credenciais WebAuthn da conta.
func (s *Service) ListPasskeys(ctx context.Context, usuarioID uuid.UUID) ([]Passkey, error) {
	return s.repo.ListPasskeys(ctx, usuarioID)
}

// RegisterPasskey persiste uma credencial confirmada pela cerimônia.
func (s *Service) RegisterPasskey(ctx context.Context, p Passkey) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.repo.CreatePasskey(ctx, p)
}

// TouchPasskey atualiza contadores da credencial após autenticação.
func (s *Service) TouchPasskey(ctx context.Context, credentialID []byte, signCount uint32, clonada bool) error {
	return s.repo.UpdatePasskeyCounter(ctx, credentialID, signCount, clonada)
}

// AtorFromClaims monta o ator a partir dos claims verificados do token.
// Perfil desconhecido falha fechado.
func AtorFromClaims(subject, perfil string, pilotoID *string) (Ator, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return Ator{}, ErrForbidden
	}
	p, err := ParsePerfil(perfil)
	if err != nil {
		return Ator{}, ErrForbidden
	}

	ator := Ator{ID: id, Perfil: p}
	if pilotoID != nil {
		pid, err := uuid.Parse(*pilotoID)
		if err != nil {
			return Ator{}, ErrForbidden
		}
		ator.PilotoID = &pid
	}
	return ator, nil
}
