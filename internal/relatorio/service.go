package relatorio

import (
	"context"
	"time"

	"github.com/ijasaude/vistoria/internal/solicitacao"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// Agregador abstrai o repositório para permitir stubs nos testes.
type Agregador interface {
	Total(ctx context.Context, escopo solicitacao.Escopo, filtro Filtro) (int, error)
	Agrupar(ctx context.Context, escopo solicitacao.Escopo, filtro Filtro, expr string) ([]Faixa, error)
	SerieMensal(ctx context.Context) ([]PontoMes, error)
	AnosDisponiveis(ctx context.Context, escopo solicitacao.Escopo) ([]int, error)
}

// Lister devolve as linhas detalhadas do recorte para exportação.
type Lister interface {
	ListPorPeriodo(ctx context.Context, ator usuario.Ator, inicio, fim string) ([]solicitacao.Solicitacao, error)
}

type Service struct {
	repo   Agregador
	lister Lister
}

func NewService(repo Agregador, lister Lister) *Service {
	return &Service{repo: repo, lister: lister}
}

// expressões agregadas por painel. As chaves de status são normalizadas
// para que grafias legadas não gerem linhas separadas por caixa.
const (
	exprStatus  = "upper(s.status)"
	exprFoco    = "s.foco"
	exprTipo    = "s.tipo_visita"
	exprAltura  = "s.altura_voo"
	exprRegiao  = "u.regiao"
	exprUnidade = "u.nome"
)

// Resumo monta todos os painéis do relatório para o recorte pedido.
func (s *Service) Resumo(ctx context.Context, ator usuario.Ator, filtro Filtro) (*Resumo, error) {
	escopo, err := solicitacao.EscopoDoAtor(ator)
	if err != nil {
		return nil, err
	}
	if filtro.Ano <= 0 {
		filtro.Ano = time.Now().Year()
	}

	out := &Resumo{}
	if out.Total, err = s.repo.Total(ctx, escopo, filtro); err != nil {
		return nil, err
	}
	if out.PorStatus, err = s.repo.Agrupar(ctx, escopo, filtro, exprStatus); err != nil {
		return nil, err
	}
	if out.PorFoco, err = s.repo.Agrupar(ctx, escopo, filtro, exprFoco); err != nil {
		return nil, err
	}
	if out.PorTipo, err = s.repo.Agrupar(ctx, escopo, filtro, exprTipo); err != nil {
		return nil, err
	}
	if out.PorAltura, err = s.repo.Agrupar(ctx, escopo, filtro, exprAltura); err != nil {
		return nil, err
	}
	if out.PorRegiao, err = s.repo.Agrupar(ctx, escopo, filtro, exprRegiao); err != nil {
		return nil, err
	}
	if out.PorUnidade, err = s.repo.Agrupar(ctx, escopo, filtro, exprUnidade); err != nil {
		return nil, err
	}
	if out.SerieMensal, err = s.repo.SerieMensal(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// AnosDisponiveis alimenta o seletor de ano.
func (s *Service) AnosDisponiveis(ctx context.Context, ator usuario.Ator) ([]int, error) {
	escopo, err := solicitacao.EscopoDoAtor(ator)
	if err != nil {
		return nil, err
	}
	anos, err := s.repo.AnosDisponiveis(ctx, escopo)
	if err != nil {
		return nil, err
	}
	if len(anos) == 0 {
		anos = []int{time.Now().Year()}
	}
	return anos, nil
}

// Linhas devolve as solicitações detalhadas do recorte, já no escopo do
// ator, para alimentar as exportações.
func (s *Service) Linhas(ctx context.Context, ator usuario.Ator, filtro Filtro) ([]solicitacao.Solicitacao, error) {
	if filtro.Ano <= 0 {
		filtro.Ano = time.Now().Year()
	}
	inicio := time.Date(filtro.Ano, 1, 1, 0, 0, 0, 0, time.UTC)
	fim := time.Date(filtro.Ano, 12, 31, 0, 0, 0, 0, time.UTC)
	if filtro.Mes >= 1 && filtro.Mes <= 12 {
		inicio = time.Date(filtro.Ano, time.Month(filtro.Mes), 1, 0, 0, 0, 0, time.UTC)
		fim = inicio.AddDate(0, 1, -1)
	}

	linhas, err := s.lister.ListPorPeriodo(ctx, ator, inicio.Format("2006-01-02"), fim.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	if filtro.Regiao == "" && filtro.UVISID == nil {
		return linhas, nil
	}
	out := linhas[:0]
	for _, l := range linhas {
		if filtro.Regiao != "" && (l.UVISRegiao == nil || *l.UVISRegiao != filtro.Regiao) {
			continue
		}
		if filtro.UVISID != nil && l.UsuarioID != *filtro.UVISID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
