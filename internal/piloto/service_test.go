package piloto

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/util"
)

type stubRepo struct {
	pilotos      map[uuid.UUID]Piloto
	logins       map[uuid.UUID]string
	vinculos     []Vinculo
	ultimoFiltro ListFilter
	listagens    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		pilotos: make(map[uuid.UUID]Piloto),
		logins:  make(map[uuid.UUID]string),
	}
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (Piloto, error) {
	p, ok := s.pilotos[id]
	if !ok {
		return Piloto{}, ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := s.pilotos[id]
	return ok, nil
}

func (s *stubRepo) ExisteDuplicado(ctx context.Context, nome string, telefone *string, ignorar *uuid.UUID) (bool, error) {
	for id, p := range s.pilotos {
		if ignorar != nil && id == *ignorar {
			continue
		}
		if !strings.EqualFold(p.Nome, nome) {
			continue
		}
		if telefone == nil || (p.Telefone != nil && *p.Telefone == *telefone) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) CreateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) (Piloto, error) {
	s.pilotos[p.ID] = p
	s.logins[p.ID] = login
	return p, nil
}

func (s *stubRepo) UpdateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) error {
	if _, ok := s.pilotos[p.ID]; !ok {
		return ErrNotFound
	}
	s.pilotos[p.ID] = p
	s.logins[p.ID] = login
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.pilotos[id]; !ok {
		return ErrNotFound
	}
	delete(s.pilotos, id)
	delete(s.logins, id)
	return nil
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]Piloto, int, error) {
	s.listagens++
	s.ultimoFiltro = filter
	var out []Piloto
	for _, p := range s.pilotos {
		if filter.Regiao != "" && (p.Regiao == nil || *p.Regiao != filter.Regiao) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubRepo) Vincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) (Vinculo, error) {
	for _, v := range s.vinculos {
		if v.PilotoID == pilotoID && v.UVISUsuarioID == uvisUsuarioID {
			return Vinculo{}, ErrVinculoDuplicado
		}
	}
	v := Vinculo{ID: uuid.New(), PilotoID: pilotoID, UVISUsuarioID: uvisUsuarioID}
	s.vinculos = append(s.vinculos, v)
	return v, nil
}

func (s *stubRepo) Desvincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) error {
	for i, v := range s.vinculos {
		if v.PilotoID == pilotoID && v.UVISUsuarioID == uvisUsuarioID {
			s.vinculos = append(s.vinculos[:i], s.vinculos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *stubRepo) ListVinculos(ctx context.Context, pilotoID uuid.UUID) ([]Vinculo, error) {
	var out []Vinculo
	for _, v := range s.vinculos {
		if v.PilotoID == pilotoID {
			out = append(out, v)
		}
	}
	return out, nil
}

func TestCreateNormalizaCadastro(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), CreateInput{
		Nome: "  Carlos Mota  ", Regiao: "norte", Telefone: "(11) 98888-7777",
		Login: "carlos", Senha: "senha-forte",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Nome != "Carlos Mota" {
		t.Fatalf("nome = %q", p.Nome)
	}
	if p.Regiao == nil || *p.Regiao != "NORTE" {
		t.Fatalf("regiao = %v, esperava NORTE", p.Regiao)
	}
	if p.Telefone == nil || *p.Telefone != "11988887777" {
		t.Fatalf("telefone = %v, esperava só dígitos", p.Telefone)
	}
}

func TestCreateValidaEntrada(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Nome: "", Login: "x", Senha: "senha-forte"}); !util.IsValidation(err) {
		t.Fatalf("nome vazio deveria falhar com validação, veio %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Nome: "Carlos", Regiao: "NOROESTE", Login: "x", Senha: "senha-forte"}); !errors.Is(err, ErrRegiaoInvalida) {
		t.Fatalf("esperava ErrRegiaoInvalida, veio %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Nome: "Carlos", Telefone: "1234", Login: "x", Senha: "senha-forte"}); !errors.Is(err, ErrTelefoneInvalido) {
		t.Fatalf("esperava ErrTelefoneInvalido, veio %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Nome: "Carlos", Login: "x", Senha: "curta"}); !util.IsValidation(err) {
		t.Fatalf("senha curta deveria falhar com validação, veio %v", err)
	}
}

func TestCreateDuplicado(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Nome: "Carlos Mota", Telefone: "11988887777", Login: "carlos", Senha: "senha-forte"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, CreateInput{Nome: "carlos mota", Telefone: "11988887777", Login: "carlos2", Senha: "senha-forte"})
	if !errors.Is(err, ErrDuplicado) {
		t.Fatalf("esperava ErrDuplicado, veio %v", err)
	}
}

func TestListRestringeRegiaoDaUVIS(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	regiao := "norte"
	if _, _, err := svc.List(context.Background(), ListFilter{}, &regiao); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.ultimoFiltro.Regiao != "NORTE" {
		t.Fatalf("filtro regiao = %q, esperava NORTE", repo.ultimoFiltro.Regiao)
	}
}

func TestListUVISSemRegiaoNaoVeNada(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	vazia := "  "
	itens, total, err := svc.List(context.Background(), ListFilter{}, &vazia)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(itens) != 0 || total != 0 {
		t.Fatalf("esperava lista vazia, veio %d itens", len(itens))
	}
	if repo.listagens != 0 {
		t.Fatal("repositório não deveria ser consultado sem região")
	}
}

func TestVincularExigePilotoCadastrado(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	if _, err := svc.Vincular(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, veio %v", err)
	}
}

func TestVincularEDesvincular(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Carlos Mota", Login: "carlos", Senha: "senha-forte"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	uvisID := uuid.New()
	if _, err := svc.Vincular(ctx, p.ID, uvisID); err != nil {
		t.Fatalf("Vincular: %v", err)
	}
	if _, err := svc.Vincular(ctx, p.ID, uvisID); !errors.Is(err, ErrVinculoDuplicado) {
		t.Fatalf("esperava ErrVinculoDuplicado, veio %v", err)
	}

	if err := svc.Desvincular(ctx, p.ID, uvisID); err != nil {
		t.Fatalf("Desvincular: %v", err)
	}
	if err := svc.Desvincular(ctx, p.ID, uvisID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound após desvincular, veio %v", err)
	}
}

func TestExportarXLSX(t *testing.T) {
	regiao := "NORTE"
	tel := "11987654321"
	buf, err := ExportarXLSX([]Piloto{
		{ID: uuid.New(), Nome: "Carlos Mota", Regiao: &regiao, Telefone: &tel},
		{ID: uuid.New(), Nome: "Ana Reis"},
	})
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("xlsx vazio")
	}
}
