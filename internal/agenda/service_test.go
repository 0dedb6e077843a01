package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/solicitacao"
	"github.com/ijasaude/vistoria/internal/usuario"
)

type stubLister struct {
	linhas       []solicitacao.Solicitacao
	ultimoInicio string
	ultimoFim    string
}

func (l *stubLister) ListPorPeriodo(_ context.Context, _ usuario.Ator, inicio, fim string) ([]solicitacao.Solicitacao, error) {
	l.ultimoInicio = inicio
	l.ultimoFim = fim
	return l.linhas, nil
}

func TestEventosDoMesDelimitaPeriodo(t *testing.T) {
	lister := &stubLister{}
	svc := NewService(lister)
	ator := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}

	if _, err := svc.EventosDoMes(context.Background(), ator, "2026-02"); err != nil {
		t.Fatalf("eventos: %v", err)
	}
	if lister.ultimoInicio != "2026-02-01" || lister.ultimoFim != "2026-02-28" {
		t.Fatalf("período = %s..%s", lister.ultimoInicio, lister.ultimoFim)
	}
}

func TestEventosDoMesRejeitaMesInvalido(t *testing.T) {
	svc := NewService(&stubLister{})
	ator := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}

	if _, err := svc.EventosDoMes(context.Background(), ator, "fevereiro"); err == nil {
		t.Fatal("quer erro para mês inválido")
	}
}

func TestCorDoStatus(t *testing.T) {
	casos := []struct {
		status string
		quer   string
	}{
		{solicitacao.StatusPendente, "#f0ad4e"},
		{solicitacao.StatusConcluido, "#777777"},
		{"APROVADA", "#5cb85c"},
		{"QUALQUER COISA", "#999999"},
	}
	for _, c := range casos {
		if got := CorDoStatus(c.status); got != c.quer {
			t.Errorf("CorDoStatus(%q) = %q, quer %q", c.status, got, c.quer)
		}
	}
}

func TestEventosCarregamCorETitulo(t *testing.T) {
	lister := &stubLister{linhas: []solicitacao.Solicitacao{{
		ID:              uuid.New(),
		DataAgendamento: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		HoraAgendamento: "09:00",
		Foco:            "Aedes aegypti",
		Bairro:          "Sé",
		Status:          solicitacao.StatusAprovado,
		UVISNome:        "UVIS Sé",
	}}}
	svc := NewService(lister)
	ator := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}

	eventos, err := svc.EventosDoMes(context.Background(), ator, "2026-02")
	if err != nil {
		t.Fatalf("eventos: %v", err)
	}
	if len(eventos) != 1 {
		t.Fatalf("eventos = %d, quer 1", len(eventos))
	}
	ev := eventos[0]
	if ev.Cor != "#5cb85c" || ev.Titulo != "Aedes aegypti - Sé" || ev.Data != "2026-02-10" {
		t.Fatalf("evento inesperado: %+v", ev)
	}
}
