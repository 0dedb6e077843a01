package usuario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ijasaude/vistoria/internal/auth"
	"github.com/ijasaude/vistoria/internal/util"
)

type stubRepo struct {
	contas   map[uuid.UUID]Usuario
	passkeys []Passkey
}

func newStubRepo() *stubRepo {
	return &stubRepo{contas: make(map[uuid.UUID]Usuario)}
}

func (s *stubRepo) GetByLogin(ctx context.Context, login string) (Usuario, error) {
	for _, u := range s.contas {
		if u.Login == login {
			return u, nil
		}
	}
	return Usuario{}, ErrNotFound
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	u, ok := s.contas[id]
	if !ok {
		return Usuario{}, ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) Create(ctx context.Context, u Usuario) (Usuario, error) {
	for _, existente := range s.contas {
		if existente.Login == u.Login {
			return Usuario{}, ErrLoginDuplicado
		}
	}
	s.contas[u.ID] = u
	return u, nil
}

func (s *stubRepo) Update(ctx context.Context, u Usuario) error {
	if _, ok := s.contas[u.ID]; !ok {
		return ErrNotFound
	}
	s.contas[u.ID] = u
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.contas[id]; !ok {
		return ErrNotFound
	}
	delete(s.contas, id)
	return nil
}

func (s *stubRepo) ListUVIS(ctx context.Context, filter ListFilter) ([]Usuario, int, error) {
	var out []Usuario
	for _, u := range s.contas {
		if u.Perfil == PerfilUVIS {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) ListUVISResumo(ctx context.Context) ([]Usuario, error) {
	itens, _, err := s.ListUVIS(ctx, ListFilter{})
	return itens, err
}

func (s *stubRepo) ListPasskeys(ctx context.Context, usuarioID uuid.UUID) ([]Passkey, error) {
	var out []Passkey
	for _, pk := range s.passkeys {
		if pk.UsuarioID == usuarioID {
			out = append(out, pk)
		}
	}
	return out, nil
}

func (s *stubRepo) CreatePasskey(ctx context.Context, p Passkey) error {
	s.passkeys = append(s.passkeys, p)
	return nil
}

func (s *stubRepo) UpdatePasskeyCounter(ctx context.Context, credentialID []byte, signCount uint32, clonada bool) error {
	for i, pk := range s.passkeys {
		if string(pk.CredentialID) == string(credentialID) {
			s.passkeys[i].SignCount = signCount
			s.passkeys[i].Clonada = clonada
			return nil
		}
	}
	return ErrNotFound
}

type stubRedis struct {
	valores map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{valores: make(map[string]string)}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	s.valores[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := s.valores[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := s.valores[key]; ok {
			delete(s.valores, key)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func novoServico(t *testing.T) (*Service, *stubRepo, *stubRedis) {
	t.Helper()
	repo := newStubRepo()
	rds := newStubRedis()
	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)
	return NewService(repo, rds, jwtMgr, time.Hour), repo, rds
}

func contaComSenha(t *testing.T, repo *stubRepo, login, senha string, perfil Perfil) Usuario {
	t.Helper()
	hash, err := auth.Hash(senha)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := Usuario{ID: uuid.New(), Nome: "Conta " + login, Login: login, SenhaHash: hash, Perfil: perfil}
	repo.contas[u.ID] = u
	return u
}

func TestAuthenticateEmiteTokens(t *testing.T) {
	svc, repo, rds := novoServico(t)
	contaComSenha(t, repo, "uvis.leste", "senha-forte", PerfilUVIS)

	result, err := svc.Authenticate(context.Background(), "uvis.leste", "senha-forte")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("esperava tokens preenchidos")
	}
	if len(rds.valores) != 1 {
		t.Fatalf("esperava 1 refresh registrado, veio %d", len(rds.valores))
	}
}

func TestAuthenticateSenhaErrada(t *testing.T) {
	svc, repo, _ := novoServico(t)
	contaComSenha(t, repo, "uvis.leste", "senha-forte", PerfilUVIS)

	if _, err := svc.Authenticate(context.Background(), "uvis.leste", "outra-senha"); !errors.Is(err, ErrCredenciaisInvalidas) {
		t.Fatalf("esperava ErrCredenciaisInvalidas, veio %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nao-existe", "senha-forte"); !errors.Is(err, ErrCredenciaisInvalidas) {
		t.Fatalf("esperava ErrCredenciaisInvalidas para login inexistente, veio %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	svc, repo, _ := novoServico(t)
	contaComSenha(t, repo, "admin", "senha-forte", PerfilAdmin)

	ctx := context.Background()
	login, err := svc.Authenticate(ctx, "admin", "senha-forte")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	renovado, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renovado.RefreshToken == login.RefreshToken {
		t.Fatal("refresh deveria rotacionar o token")
	}

	// O token antigo foi consumido na rotação.
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshInvalido) {
		t.Fatalf("esperava ErrRefreshInvalido no reuso, veio %v", err)
	}
}

func TestLogoutRevogaRefresh(t *testing.T) {
	svc, repo, rds := novoServico(t)
	contaComSenha(t, repo, "admin", "senha-forte", PerfilAdmin)

	ctx := context.Background()
	login, err := svc.Authenticate(ctx, "admin", "senha-forte")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(rds.valores) != 0 {
		t.Fatal("refresh não foi revogado")
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshInvalido) {
		t.Fatalf("esperava ErrRefreshInvalido após logout, veio %v", err)
	}
}

func TestCreateUVISValidaEntrada(t *testing.T) {
	svc, _, _ := novoServico(t)
	ctx := context.Background()

	casos := []CreateInput{
		{Nome: "", Login: "uvis", Senha: "senha-forte"},
		{Nome: "UVIS Leste", Login: "", Senha: "senha-forte"},
		{Nome: "UVIS Leste", Login: "uvis", Senha: "curta"},
	}
	for _, in := range casos {
		if _, err := svc.CreateUVIS(ctx, in); !util.IsValidation(err) {
			t.Fatalf("esperava erro de validação para %+v, veio %v", in, err)
		}
	}
}

func TestCreateUVISDefinePerfil(t *testing.T) {
	svc, _, _ := novoServico(t)

	u, err := svc.CreateUVIS(context.Background(), CreateInput{
		Nome: "UVIS Leste", Login: "uvis.leste", Senha: "senha-forte",
	})
	if err != nil {
		t.Fatalf("CreateUVIS: %v", err)
	}
	if u.Perfil != PerfilUVIS {
		t.Fatalf("perfil = %q, esperava %q", u.Perfil, PerfilUVIS)
	}
	if u.SenhaHash == "senha-forte" {
		t.Fatal("senha não pode ser persistida em texto puro")
	}
}

func TestUpdateUVISRecusaOutrosPerfis(t *testing.T) {
	svc, repo, _ := novoServico(t)
	admin := contaComSenha(t, repo, "admin", "senha-forte", PerfilAdmin)

	_, err := svc.UpdateUVIS(context.Background(), UpdateInput{
		ID: admin.ID, Nome: "Novo Nome", Login: "admin",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound ao editar conta não-UVIS, veio %v", err)
	}
}

func TestUpdateUVISSenhaVaziaPreserva(t *testing.T) {
	svc, repo, _ := novoServico(t)
	conta := contaComSenha(t, repo, "uvis.sul", "senha-forte", PerfilUVIS)

	atualizado, err := svc.UpdateUVIS(context.Background(), UpdateInput{
		ID: conta.ID, Nome: "UVIS Sul", Login: "uvis.sul",
	})
	if err != nil {
		t.Fatalf("UpdateUVIS: %v", err)
	}
	if atualizado.SenhaHash != conta.SenhaHash {
		t.Fatal("senha vazia deveria preservar o hash atual")
	}
}

func TestParsePerfilFalhaFechado(t *testing.T) {
	validos := []string{"admin", "OPERARIO", " uvis ", "Piloto", "visualizador"}
	for _, s := range validos {
		if _, err := ParsePerfil(s); err != nil {
			t.Fatalf("ParsePerfil(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "root", "superadmin"} {
		if _, err := ParsePerfil(s); !errors.Is(err, ErrPerfilInvalido) {
			t.Fatalf("ParsePerfil(%q) deveria falhar, veio %v", s, err)
		}
	}
}

func TestAtorFromClaims(t *testing.T) {
	id := uuid.New()
	pilotoID := uuid.New().String()

	ator, err := AtorFromClaims(id.String(), "piloto", &pilotoID)
	if err != nil {
		t.Fatalf("AtorFromClaims: %v", err)
	}
	if ator.ID != id || ator.Perfil != PerfilPiloto || ator.PilotoID == nil {
		t.Fatalf("ator incompleto: %+v", ator)
	}

	if _, err := AtorFromClaims(id.String(), "gerente", nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("perfil desconhecido deveria falhar fechado, veio %v", err)
	}
	if _, err := AtorFromClaims("nao-uuid", "admin", nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("subject inválido deveria falhar fechado, veio %v", err)
	}
}
