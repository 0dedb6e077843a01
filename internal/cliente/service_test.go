package cliente

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/br"
	"github.com/ijasaude/vistoria/internal/usuario"
)

type stubRepo struct {
	clientes map[uuid.UUID]*Cliente
}

func newStubRepo() *stubRepo {
	return &stubRepo{clientes: map[uuid.UUID]*Cliente{}}
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) Create(_ context.Context, c *Cliente) error {
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubRepo) Update(_ context.Context, c *Cliente) error {
	if _, ok := r.clientes[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.clientes[id]; !ok {
		return ErrNotFound
	}
	delete(r.clientes, id)
	return nil
}

func (r *stubRepo) ExisteDocumento(_ context.Context, digitos string, ignorar *uuid.UUID) (bool, error) {
	for id, c := range r.clientes {
		if ignorar != nil && id == *ignorar {
			continue
		}
		if c.Documento == digitos {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) List(_ context.Context, filtro ListFilter) ([]Cliente, int, error) {
	var out []Cliente
	for _, c := range r.clientes {
		if filtro.Busca != "" && !strings.Contains(strings.ToLower(c.Nome), strings.ToLower(filtro.Busca)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func atorAdmin() usuario.Ator {
	return usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}
}

func entradaValida() CreateInput {
	return CreateInput{
		Nome:       "Condomínio Jardim Paulista",
		Documento:  "11.222.333/0001-81",
		Contato:    "Maria Souza",
		CEP:        "01001-000",
		Logradouro: "Praça da Sé",
		Bairro:     "Sé",
		Cidade:     "São Paulo",
		UF:         "sp",
	}
}

func TestCreateNormalizaDocumento(t *testing.T) {
	svc := NewService(newStubRepo())

	c, err := svc.Create(context.Background(), atorAdmin(), entradaValida())
	if err != nil {
		t.Fatalf("criar: %v", err)
	}
	if c.Documento != "11222333000181" {
		t.Fatalf("documento = %q, quer só dígitos", c.Documento)
	}
	if c.TipoDocumento != "CNPJ" {
		t.Fatalf("tipo = %q, quer CNPJ", c.TipoDocumento)
	}
	if c.UF != "SP" {
		t.Fatalf("uf = %q, quer SP", c.UF)
	}
	if c.Contato == nil || *c.Contato != "Maria Souza" {
		t.Fatalf("contato = %v, quer Maria Souza", c.Contato)
	}
}

func TestCreateRejeitaDocumentoInvalido(t *testing.T) {
	svc := NewService(newStubRepo())

	in := entradaValida()
	in.Documento = "111.111.111-11"
	if _, err := svc.Create(context.Background(), atorAdmin(), in); !errors.Is(err, br.ErrCPFInvalido) {
		t.Fatalf("err = %v, quer ErrCPFInvalido", err)
	}
}

func TestCreateRejeitaDocumentoDuplicado(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), atorAdmin(), entradaValida()); err != nil {
		t.Fatalf("primeiro cadastro: %v", err)
	}

	// Mesmo documento com máscara diferente ainda é duplicata.
	in := entradaValida()
	in.Nome = "Outro Nome"
	in.Documento = "11222333000181"
	if _, err := svc.Create(context.Background(), atorAdmin(), in); !errors.Is(err, ErrDocumentoDuplicado) {
		t.Fatalf("err = %v, quer ErrDocumentoDuplicado", err)
	}
}

func TestUpdateMantemProprioDocumento(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), atorAdmin(), entradaValida())
	if err != nil {
		t.Fatalf("criar: %v", err)
	}

	in := entradaValida()
	in.Nome = "Nome Atualizado"
	out, err := svc.Update(context.Background(), atorAdmin(), UpdateInput{ID: c.ID, CreateInput: in})
	if err != nil {
		t.Fatalf("atualizar: %v", err)
	}
	if out.Nome != "Nome Atualizado" {
		t.Fatalf("nome = %q", out.Nome)
	}
}

func TestPerfisSemAcesso(t *testing.T) {
	svc := NewService(newStubRepo())
	uvis := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilUVIS}

	if _, err := svc.Create(context.Background(), uvis, entradaValida()); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("create err = %v, quer ErrForbidden", err)
	}
	if _, _, err := svc.List(context.Background(), uvis, ListFilter{}); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("list err = %v, quer ErrForbidden", err)
	}
}

func TestDeleteSoAdmin(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), atorAdmin(), entradaValida())
	if err != nil {
		t.Fatalf("criar: %v", err)
	}

	operario := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilOperario}
	if err := svc.Delete(context.Background(), operario, c.ID); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), atorAdmin(), c.ID); err != nil {
		t.Fatalf("excluir como admin: %v", err)
	}
}

func TestExportarXLSX(t *testing.T) {
	tel := "(11) 98765-4321"
	contato := "Maria Souza"
	buf, err := ExportarXLSX([]Cliente{{
		Nome:          "Condomínio Jardim Paulista",
		TipoDocumento: "CNPJ",
		Documento:     "11222333000181",
		Contato:       &contato,
		Telefone:      &tel,
		CEP:           "01001000",
		Logradouro:    "Praça da Sé",
		Bairro:        "Sé",
		Cidade:        "São Paulo",
		UF:            "SP",
	}})
	if err != nil {
		t.Fatalf("exportar: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("planilha vazia")
	}
}
