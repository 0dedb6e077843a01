package relatorio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/solicitacao"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// stubAgregador agrega em memória sobre um conjunto fixo de solicitações.
type stubAgregador struct {
	linhas []solicitacao.Solicitacao
}

func (a *stubAgregador) recorte(escopo solicitacao.Escopo, filtro Filtro) []solicitacao.Solicitacao {
	var out []solicitacao.Solicitacao
	for _, s := range a.linhas {
		if escopo.UVISID != nil && s.UsuarioID != *escopo.UVISID {
			continue
		}
		if escopo.PilotoID != nil {
			if s.PilotoID == nil || *s.PilotoID != *escopo.PilotoID || !solicitacao.EstaAprovada(s.Status) {
				continue
			}
		}
		if filtro.Ano > 0 && s.DataAgendamento.Year() != filtro.Ano {
			continue
		}
		if filtro.Mes >= 1 && int(s.DataAgendamento.Month()) != filtro.Mes {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (a *stubAgregador) Total(_ context.Context, escopo solicitacao.Escopo, filtro Filtro) (int, error) {
	return len(a.recorte(escopo, filtro)), nil
}

func (a *stubAgregador) Agrupar(_ context.Context, escopo solicitacao.Escopo, filtro Filtro, expr string) ([]Faixa, error) {
	contagem := map[string]int{}
	for _, s := range a.recorte(escopo, filtro) {
		var v string
		switch expr {
		case exprStatus:
			v = strings.ToUpper(s.Status)
		case exprFoco:
			v = s.Foco
		case exprTipo:
			if s.TipoVisita != nil {
				v = *s.TipoVisita
			}
		case exprAltura:
			if s.AlturaVoo != nil {
				v = *s.AlturaVoo
			}
		case exprRegiao:
			if s.UVISRegiao != nil {
				v = *s.UVISRegiao
			}
		case exprUnidade:
			v = s.UVISNome
		}
		if strings.TrimSpace(v) == "" {
			v = NaoInformado
		}
		contagem[v]++
	}
	var out []Faixa
	for rotulo, total := range contagem {
		out = append(out, Faixa{Rotulo: rotulo, Total: total})
	}
	return out, nil
}

func (a *stubAgregador) SerieMensal(_ context.Context) ([]PontoMes, error) {
	porMes := map[int]int{}
	for _, s := range a.linhas {
		porMes[int(s.DataAgendamento.Month())]++
	}
	out := make([]PontoMes, 0, 12)
	for mes := 1; mes <= 12; mes++ {
		out = append(out, PontoMes{Mes: mes, Total: porMes[mes]})
	}
	return out, nil
}

func (a *stubAgregador) AnosDisponiveis(_ context.Context, escopo solicitacao.Escopo) ([]int, error) {
	anos := map[int]struct{}{}
	for _, s := range a.recorte(escopo, Filtro{}) {
		anos[s.DataAgendamento.Year()] = struct{}{}
	}
	var out []int
	for ano := range anos {
		out = append(out, ano)
	}
	return out, nil
}

type stubLister struct {
	agregador *stubAgregador
}

func (l *stubLister) ListPorPeriodo(_ context.Context, ator usuario.Ator, inicio, fim string) ([]solicitacao.Solicitacao, error) {
	escopo, err := solicitacao.EscopoDoAtor(ator)
	if err != nil {
		return nil, err
	}
	var out []solicitacao.Solicitacao
	for _, s := range l.agregador.recorte(escopo, Filtro{}) {
		d := s.DataAgendamento.Format("2006-01-02")
		if d >= inicio && d <= fim {
			out = append(out, s)
		}
	}
	return out, nil
}

func data(ano, mes, dia int) time.Time {
	return time.Date(ano, time.Month(mes), dia, 0, 0, 0, 0, time.UTC)
}

func montarBase() *stubAgregador {
	regiao := "NORTE"
	tipo := "Terrestre"
	uvisA := uuid.New()
	uvisB := uuid.New()
	return &stubAgregador{linhas: []solicitacao.Solicitacao{
		{ID: uuid.New(), UsuarioID: uvisA, UVISNome: "UVIS Casa Verde", UVISRegiao: &regiao,
			DataAgendamento: data(2026, 3, 5), Foco: "Aedes aegypti", TipoVisita: &tipo,
			Status: solicitacao.StatusPendente},
		{ID: uuid.New(), UsuarioID: uvisA, UVISNome: "UVIS Casa Verde", UVISRegiao: &regiao,
			DataAgendamento: data(2026, 3, 9), Foco: "Aedes aegypti",
			Status: "APROVADA COM RECOMENDAÇÕES"},
		{ID: uuid.New(), UsuarioID: uvisB, UVISNome: "UVIS Santana",
			DataAgendamento: data(2026, 7, 1), Foco: "Culex",
			Status: solicitacao.StatusConcluido},
		{ID: uuid.New(), UsuarioID: uvisB, UVISNome: "UVIS Santana",
			DataAgendamento: data(2025, 11, 20), Foco: "Culex",
			Status: solicitacao.StatusNegado},
	}}
}

func admin() usuario.Ator {
	return usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilAdmin}
}

func TestResumoTotalBateComStatus(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	resumo, err := svc.Resumo(context.Background(), admin(), Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}

	if resumo.Total != 3 {
		t.Fatalf("total = %d, quer 3", resumo.Total)
	}
	soma := 0
	for _, fx := range resumo.PorStatus {
		soma += fx.Total
	}
	if soma != resumo.Total {
		t.Fatalf("soma por status = %d, total = %d", soma, resumo.Total)
	}
}

func TestResumoAgrupaVazioComoNaoInformado(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	resumo, err := svc.Resumo(context.Background(), admin(), Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}

	achou := false
	for _, fx := range resumo.PorRegiao {
		if fx.Rotulo == NaoInformado && fx.Total == 1 {
			achou = true
		}
	}
	if !achou {
		t.Fatalf("região vazia não agrupada: %+v", resumo.PorRegiao)
	}
}

func TestSerieMensalCobreDozeMeses(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	resumo, err := svc.Resumo(context.Background(), admin(), Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}
	if len(resumo.SerieMensal) != 12 {
		t.Fatalf("série com %d meses, quer 12", len(resumo.SerieMensal))
	}
	if resumo.SerieMensal[2].Total != 2 || resumo.SerieMensal[6].Total != 1 {
		t.Fatalf("série errada: mar=%d jul=%d", resumo.SerieMensal[2].Total, resumo.SerieMensal[6].Total)
	}
}

func TestSerieMensalNaoSofreRecorte(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	// Mesmo com ator de UVIS e filtro de mês, a série cobre a tabela
	// inteira, incluindo a visita de novembro de outro ano e de outra
	// unidade.
	uvisA := agg.linhas[0].UsuarioID
	ator := usuario.Ator{ID: uvisA, Perfil: usuario.PerfilUVIS}
	resumo, err := svc.Resumo(context.Background(), ator, Filtro{Ano: 2026, Mes: 3})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}
	if resumo.SerieMensal[10].Total != 1 {
		t.Fatalf("nov = %d, quer 1", resumo.SerieMensal[10].Total)
	}
	if resumo.SerieMensal[6].Total != 1 {
		t.Fatalf("jul = %d, quer 1", resumo.SerieMensal[6].Total)
	}
}

func TestResumoRespeitaEscopoUVIS(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	uvisA := agg.linhas[0].UsuarioID
	ator := usuario.Ator{ID: uvisA, Perfil: usuario.PerfilUVIS}
	resumo, err := svc.Resumo(context.Background(), ator, Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}
	if resumo.Total != 2 {
		t.Fatalf("uvis vê total = %d, quer 2", resumo.Total)
	}
}

func TestPilotoSemVinculoNaoAcessaRelatorio(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	ator := usuario.Ator{ID: uuid.New(), Perfil: usuario.PerfilPiloto}
	if _, err := svc.Resumo(context.Background(), ator, Filtro{Ano: 2026}); !errors.Is(err, usuario.ErrForbidden) {
		t.Fatalf("err = %v, quer ErrForbidden", err)
	}
}

func TestExportacoesGeramArquivo(t *testing.T) {
	agg := montarBase()
	svc := NewService(agg, &stubLister{agregador: agg})

	ator := admin()
	resumo, err := svc.Resumo(context.Background(), ator, Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("resumo: %v", err)
	}
	linhas, err := svc.Linhas(context.Background(), ator, Filtro{Ano: 2026})
	if err != nil {
		t.Fatalf("linhas: %v", err)
	}

	xlsx, err := ExportarXLSX(resumo, linhas)
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if xlsx.Len() == 0 {
		t.Fatal("xlsx vazio")
	}

	pdf, err := ExportarPDF("Relatório de Visitas 2026", resumo, false)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if pdf.Len() == 0 {
		t.Fatal("pdf vazio")
	}

	paisagem, err := ExportarPDF("Relatório de Visitas 2026", resumo, true)
	if err != nil {
		t.Fatalf("pdf paisagem: %v", err)
	}
	if paisagem.Len() == 0 {
		t.Fatal("pdf paisagem vazio")
	}
}
