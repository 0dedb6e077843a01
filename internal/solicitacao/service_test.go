package solicitacao

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/usuario"
)

type stubStore struct {
	solicitacoes map[uuid.UUID]*Solicitacao
	pilotos      map[uuid.UUID]bool
	updates      []Solicitacao
}

func newStubStore() *stubStore {
	return &stubStore{
		solicitacoes: map[uuid.UUID]*Solicitacao{},
		pilotos:      map[uuid.UUID]bool{},
	}
}

func (s *stubStore) Get(_ context.Context, escopo Escopo, id uuid.UUID) (*Solicitacao, error) {
	sol, ok := s.solicitacoes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if escopo.UVISID != nil && sol.UsuarioID != *escopo.UVISID {
		return nil, ErrNotFound
	}
	if escopo.PilotoID != nil {
		if sol.PilotoID == nil || *sol.PilotoID != *escopo.PilotoID || !EstaAprovada(sol.Status) {
			return nil, ErrNotFound
		}
	}
	cp := *sol
	return &cp, nil
}

func (s *stubStore) List(ctx context.Context, escopo Escopo, _ ListFilter) ([]Solicitacao, int, error) {
	var out []Solicitacao
	for id := range s.solicitacoes {
		if sol, err := s.Get(ctx, escopo, id); err == nil {
			out = append(out, *sol)
		}
	}
	return out, len(out), nil
}

func (s *stubStore) ListPorPeriodo(ctx context.Context, escopo Escopo, _, _ string) ([]Solicitacao, error) {
	out, _, err := s.List(ctx, escopo, ListFilter{})
	return out, err
}

func (s *stubStore) Create(_ context.Context, sol *Solicitacao) error {
	cp := *sol
	s.solicitacoes[sol.ID] = &cp
	return nil
}

func (s *stubStore) UpdateDecisao(_ context.Context, sol *Solicitacao) error {
	if _, ok := s.solicitacoes[sol.ID]; !ok {
		return ErrNotFound
	}
	cp := *sol
	s.solicitacoes[sol.ID] = &cp
	s.updates = append(s.updates, cp)
	return nil
}

func (s *stubStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	sol, ok := s.solicitacoes[id]
	if !ok {
		return ErrNotFound
	}
	sol.Status = status
	return nil
}

func (s *stubStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.solicitacoes[id]; !ok {
		return ErrNotFound
	}
	delete(s.solicitacoes, id)
	return nil
}

func (s *stubStore) PilotoExiste(_ context.Context, id uuid.UUID) (bool, error) {
	return s.pilotos[id], nil
}

func (s *stubStore) OpcoesFiltro(context.Context, Escopo) ([]string, []string, []string, error) {
	return nil, nil, nil, nil
}

type stubUploader struct {
	salvos    []string
	removidos []string
}

func (u *stubUploader) Salvar(_ context.Context, nome string, _ []byte) (string, error) {
	path := "upload-files/" + nome
	u.salvos = append(u.salvos, path)
	return path, nil
}

func (u *stubUploader) Remover(_ context.Context, path string) error {
	u.removidos = append(u.removidos, path)
	return nil
}

func atorUVIS(id uuid.UUID) usuario.Ator {
	return usuario.Ator{ID: id, Perfil: usuario.PerfilUVIS}
}

func atorAdmin() usuario.Ator {
	return usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}
}

func atorPiloto(pilotoID uuid.UUID) usuario.Ator {
	return usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilPiloto, PilotoID: &pilotoID}
}

func criarBase(t *testing.T, svc *Service, uvisID uuid.UUID) *Solicitacao {
	t.Helper()
	sol, err := svc.Criar(context.Background(), atorUVIS(uvisID), CreateInput{
		DataAgendamento: "2026-09-10",
		HoraAgendamento: "14:30",
		Foco:            "Aedes aegypti",
		CEP:             "01001-000",
		Logradouro:      "Praça da Sé",
		Bairro:          "Sé",
		Cidade:          "São Paulo",
		UF:              "sp",
	})
	if err != nil {
		t.Fatalf("criar solicitação: %v", err)
	}
	return sol
}

func TestCriarComecaPendente(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)

	sol := criarBase(t, svc, uuid.New())

	if sol.Status != StatusPendente {
		t.Fatalf("status = %q, quer %q", sol.Status, StatusPendente)
	}
	if sol.UF != "SP" {
		t.Fatalf("uf = %q, quer SP", sol.UF)
	}
}

func TestCriarExigePerfilUVIS(t *testing.T) {
	svc := NewService(newStubStore(), &stubUploader{}, nil)

	_, err := svc.Criar(context.Background(), atorAdmin(), CreateInput{})
	if !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
}

func TestCriarValidaCamposObrigatorios(t *testing.T) {
	svc := NewService(newStubStore(), &stubUploader{}, nil)

	_, err := svc.Criar(context.Background(), atorUVIS(uuid.New()), CreateInput{
		DataAgendamento: "2026-09-10",
		HoraAgendamento: "14:30",
		CEP:             "01001-000",
		Logradouro:      "Praça da Sé",
		Bairro:          "Sé",
		Cidade:          "São Paulo",
		UF:              "SP",
	})
	if err == nil {
		t.Fatal("quer erro para foco vazio")
	}
}

func TestAprovarSemPilotoRejeitaTudo(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	status := StatusAprovado
	protocolo := "PROT-123"
	_, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID:        sol.ID,
		Status:    &status,
		Protocolo: &protocolo,
	})
	if !errors.Is(err, ErrAprovacaoSemPiloto) {
		t.Fatalf("err = %v, quer ErrAprovacaoSemPiloto", err)
	}

	// Nada pode ter sido persistido, nem o protocolo.
	if len(store.updates) != 0 {
		t.Fatalf("updates = %d, quer 0", len(store.updates))
	}
	atual, _ := store.Get(context.Background(), Escopo{}, sol.ID)
	if atual.Status != StatusPendente || atual.Protocolo != nil {
		t.Fatalf("gravação parcial: status=%q protocolo=%v", atual.Status, atual.Protocolo)
	}
}

func TestAprovarComPilotoPersisteDecisao(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	pilotoID := uuid.New()
	store.pilotos[pilotoID] = true

	status := StatusAprovado
	protocolo := "PROT-123"
	out, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID:        sol.ID,
		Status:    &status,
		Protocolo: &protocolo,
		PilotoID:  &pilotoID,
	})
	if err != nil {
		t.Fatalf("atualizar decisão: %v", err)
	}
	if out.Status != StatusAprovado || out.PilotoID == nil || *out.PilotoID != pilotoID {
		t.Fatalf("decisão não aplicada: %+v", out)
	}
	if out.Protocolo == nil || *out.Protocolo != "PROT-123" {
		t.Fatalf("protocolo = %v, quer PROT-123", out.Protocolo)
	}
}

func TestAprovarComPilotoInexistente(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	pilotoID := uuid.New()
	status := StatusAprovado
	_, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID:       sol.ID,
		Status:   &status,
		PilotoID: &pilotoID,
	})
	if !errors.Is(err, ErrPilotoInexistente) {
		t.Fatalf("err = %v, quer ErrPilotoInexistente", err)
	}
}

func TestVisualizadorNaoDecide(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	status := StatusNegado
	_, err := svc.AtualizarDecisao(context.Background(),
		usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilVisualizador},
		AdminUpdateInput{ID: sol.ID, Status: &status})
	if !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
}

func TestPilotoVeSoAprovadasAtribuidas(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	uvisID := uuid.New()
	pilotoID := uuid.New()
	store.pilotos[pilotoID] = true

	pendente := criarBase(t, svc, uvisID)
	aprovada := criarBase(t, svc, uvisID)

	status := StatusAprovadoRecs
	if _, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID: aprovada.ID, Status: &status, PilotoID: &pilotoID,
	}); err != nil {
		t.Fatalf("aprovar: %v", err)
	}

	itens, _, err := svc.List(context.Background(), atorPiloto(pilotoID), ListFilter{})
	if err != nil {
		t.Fatalf("listar como piloto: %v", err)
	}
	if len(itens) != 1 || itens[0].ID != aprovada.ID {
		t.Fatalf("piloto vê %d itens, quer só a aprovada", len(itens))
	}

	if _, err := svc.Get(context.Background(), atorPiloto(pilotoID), pendente.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pendente visível ao piloto: err = %v", err)
	}
}

func TestPilotoSemVinculoFalhaFechado(t *testing.T) {
	svc := NewService(newStubStore(), &stubUploader{}, nil)

	ator := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilPiloto}
	if _, _, err := svc.List(context.Background(), ator, ListFilter{}); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
}

func TestConcluirAprovada(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	pilotoID := uuid.New()
	store.pilotos[pilotoID] = true
	status := StatusAprovado
	if _, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID: sol.ID, Status: &status, PilotoID: &pilotoID,
	}); err != nil {
		t.Fatalf("aprovar: %v", err)
	}

	out, err := svc.Concluir(context.Background(), atorPiloto(pilotoID), sol.ID)
	if err != nil {
		t.Fatalf("concluir: %v", err)
	}
	if out.Status != StatusConcluido {
		t.Fatalf("status = %q, quer %q", out.Status, StatusConcluido)
	}
}

func TestConcluirNaoAprovada(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	pilotoID := uuid.New()
	store.solicitacoes[sol.ID].PilotoID = &pilotoID

	_, err := svc.Concluir(context.Background(), atorPiloto(pilotoID), sol.ID)
	if !errors.Is(err, ErrNaoAprovada) {
		t.Fatalf("err = %v, quer ErrNaoAprovada", err)
	}
}

func TestConcluirDeOutroPiloto(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	dono := uuid.New()
	store.solicitacoes[sol.ID].PilotoID = &dono
	store.solicitacoes[sol.ID].Status = StatusAprovado

	_, err := svc.Concluir(context.Background(), atorPiloto(uuid.New()), sol.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, quer ErrNotFound", err)
	}
}

func TestStatusLegadoContaComoAprovado(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	sol := criarBase(t, svc, uuid.New())

	pilotoID := uuid.New()
	store.solicitacoes[sol.ID].PilotoID = &pilotoID
	store.solicitacoes[sol.ID].Status = "APROVADA COM RECOMENDAÇÕES"

	out, err := svc.Concluir(context.Background(), atorPiloto(pilotoID), sol.ID)
	if err != nil {
		t.Fatalf("concluir legado: %v", err)
	}
	if out.Status != StatusConcluido {
		t.Fatalf("status = %q, quer %q", out.Status, StatusConcluido)
	}
}

func TestAnexoExtensaoNaoPermitida(t *testing.T) {
	store := newStubStore()
	up := &stubUploader{}
	svc := NewService(store, up, nil)
	sol := criarBase(t, svc, uuid.New())

	_, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID:    sol.ID,
		Anexo: &AnexoInput{NomeOriginal: "payload.exe", Conteudo: []byte("x")},
	})
	if !errors.Is(err, ErrExtensaoNaoPermitida) {
		t.Fatalf("err = %v, quer ErrExtensaoNaoPermitida", err)
	}
	if len(up.salvos) != 0 {
		t.Fatalf("arquivo salvo apesar da rejeição: %v", up.salvos)
	}
}

func TestAnexoSubstituidoRemoveAntigo(t *testing.T) {
	store := newStubStore()
	up := &stubUploader{}
	svc := NewService(store, up, nil)
	sol := criarBase(t, svc, uuid.New())

	antigo := "upload-files/sol_antigo.pdf"
	store.solicitacoes[sol.ID].AnexoPath = &antigo

	out, err := svc.AtualizarDecisao(context.Background(), atorAdmin(), AdminUpdateInput{
		ID:    sol.ID,
		Anexo: &AnexoInput{NomeOriginal: "laudo.pdf", Conteudo: []byte("pdf")},
	})
	if err != nil {
		t.Fatalf("trocar anexo: %v", err)
	}
	if out.AnexoPath == nil || *out.AnexoPath == antigo {
		t.Fatalf("anexo não substituído: %v", out.AnexoPath)
	}
	if len(up.removidos) != 1 || up.removidos[0] != antigo {
		t.Fatalf("antigo não removido: %v", up.removidos)
	}
}

func TestExcluirSoAdmin(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	uvisID := uuid.New()
	sol := criarBase(t, svc, uvisID)

	if err := svc.Excluir(context.Background(), atorUVIS(uvisID), sol.ID); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
	if err := svc.Excluir(context.Background(), atorAdmin(), sol.ID); err != nil {
		t.Fatalf("excluir como admin: %v", err)
	}
	if _, err := store.Get(context.Background(), Escopo{}, sol.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("solicitação ainda existe após exclusão")
	}
}

func TestUVISVeSoAsPropriasSolicitacoes(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubUploader{}, nil)
	uvisA := uuid.New()
	uvisB := uuid.New()

	criarBase(t, svc, uvisA)
	criarBase(t, svc, uvisB)

	itens, _, err := svc.List(context.Background(), atorUVIS(uvisA), ListFilter{})
	if err != nil {
		t.Fatalf("listar: %v", err)
	}
	if len(itens) != 1 || itens[0].UsuarioID != uvisA {
		t.Fatalf("uvis vê %d itens de outros", len(itens))
	}
}
