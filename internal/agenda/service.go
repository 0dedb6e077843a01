package agenda

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/solicitacao"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// Evento é uma visita posicionada no calendário.
type Evento struct {
	SolicitacaoID uuid.UUID `json:"solicitacao_id"`
	Data          string    `json:"data"` // 2006-01-02
	Hora          string    `json:"hora"`
	Titulo        string    `json:"titulo"`
	Status        string    `json:"status"`
	Cor           string    `json:"cor"`
	Unidade       string    `json:"unidade"`
	Bairro        string    `json:"bairro"`
}

// cores por status, seguindo a paleta dos painéis.
var cores = map[string]string{
	solicitacao.StatusPendente:     "#f0ad4e",
	solicitacao.StatusEmAnalise:    "#5bc0de",
	solicitacao.StatusAprovado:     "#5cb85c",
	solicitacao.StatusAprovadoRecs: "#8bc34a",
	solicitacao.StatusNegado:       "#d9534f",
	solicitacao.StatusConcluido:    "#777777",
}

const corPadrao = "#999999"

// CorDoStatus resolve a cor do evento; grafias legadas aprovadas herdam
// a cor de aprovado.
func CorDoStatus(status string) string {
	if cor, ok := cores[status]; ok {
		return cor
	}
	if solicitacao.EstaAprovada(status) {
		return cores[solicitacao.StatusAprovado]
	}
	return corPadrao
}

// Lister devolve as solicitações do período no escopo do ator.
type Lister interface {
	ListPorPeriodo(ctx context.Context, ator usuario.Ator, inicio, fim string) ([]solicitacao.Solicitacao, error)
}

type Service struct {
	lister Lister
}

func NewService(lister Lister) *Service {
	return &Service{lister: lister}
}

// EventosDoMes devolve os eventos do mês (formato 2006-01) no escopo do
// ator, já ordenados por data e hora.
func (s *Service) EventosDoMes(ctx context.Context, ator usuario.Ator, mes string) ([]Evento, error) {
	inicio, err := time.Parse("2006-01", mes)
	if err != nil {
		return nil, util.ErrCampoInvalido("mes")
	}
	fim := inicio.AddDate(0, 1, -1)

	linhas, err := s.lister.ListPorPeriodo(ctx, ator,
		inicio.Format("2006-01-02"), fim.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	eventos := make([]Evento, 0, len(linhas))
	for _, l := range linhas {
		eventos = append(eventos, Evento{
			SolicitacaoID: l.ID,
			Data:          l.DataAgendamento.Format("2006-01-02"),
			Hora:          l.HoraAgendamento,
			Titulo:        l.Foco + " - " + l.Bairro,
			Status:        l.Status,
			Cor:           CorDoStatus(l.Status),
			Unidade:       l.UVISNome,
			Bairro:        l.Bairro,
		})
	}
	return eventos, nil
}

// LinhasDoMes devolve as solicitações do mês para exportação.
func (s *Service) LinhasDoMes(ctx context.Context, ator usuario.Ator, mes string) ([]solicitacao.Solicitacao, error) {
	inicio, err := time.Parse("2006-01", mes)
	if err != nil {
		return nil, util.ErrCampoInvalido("mes")
	}
	fim := inicio.AddDate(0, 1, -1)
	return s.lister.ListPorPeriodo(ctx, ator,
		inicio.Format("2006-01-02"), fim.Format("2006-01-02"))
}
