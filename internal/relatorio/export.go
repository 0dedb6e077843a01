package relatorio

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ijasaude/vistoria/internal/solicitacao"
)

var mesesCurtos = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// ExportarXLSX gera a planilha com o detalhamento e uma aba de resumo.
func ExportarXLSX(resumo *Resumo, linhas []solicitacao.Solicitacao) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const abaDetalhe = "Solicitações"
	f.SetSheetName("Sheet1", abaDetalhe)

	cabecalho := []string{
		"Data", "Hora", "Unidade", "Região", "Foco", "Tipo de visita",
		"Altura de voo", "Status", "Piloto", "Protocolo", "Endereço",
	}
	for i, titulo := range cabecalho {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(abaDetalhe, cell, titulo); err != nil {
			return nil, fmt.Errorf("cabeçalho xlsx: %w", err)
		}
	}
	estilo, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		ultima, _ := excelize.CoordinatesToCellName(len(cabecalho), 1)
		_ = f.SetCellStyle(abaDetalhe, "A1", ultima, estilo)
	}

	for i, s := range linhas {
		valores := []any{
			s.DataAgendamento.Format("02/01/2006"),
			s.HoraAgendamento,
			s.UVISNome,
			texto(s.UVISRegiao),
			s.Foco,
			texto(s.TipoVisita),
			texto(s.AlturaVoo),
			s.Status,
			texto(s.PilotoNome),
			texto(s.Protocolo),
			s.EnderecoCompleto(),
		}
		for j, v := range valores {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(abaDetalhe, cell, v); err != nil {
				return nil, fmt.Errorf("linha xlsx: %w", err)
			}
		}
	}
	_ = f.SetColWidth(abaDetalhe, "C", "C", 34)
	_ = f.SetColWidth(abaDetalhe, "K", "K", 54)

	const abaResumo = "Resumo"
	if _, err := f.NewSheet(abaResumo); err != nil {
		return nil, fmt.Errorf("aba resumo: %w", err)
	}

	linha := 1
	escreve := func(a, b any) {
		cellA, _ := excelize.CoordinatesToCellName(1, linha)
		cellB, _ := excelize.CoordinatesToCellName(2, linha)
		_ = f.SetCellValue(abaResumo, cellA, a)
		_ = f.SetCellValue(abaResumo, cellB, b)
		linha++
	}

	escreve("Total de solicitações", resumo.Total)
	linha++
	blocos := []struct {
		titulo string
		faixas []Faixa
	}{
		{"Por status", resumo.PorStatus},
		{"Por foco", resumo.PorFoco},
		{"Por tipo de visita", resumo.PorTipo},
		{"Por altura de voo", resumo.PorAltura},
		{"Por região", resumo.PorRegiao},
		{"Por unidade", resumo.PorUnidade},
	}
	for _, bloco := range blocos {
		escreve(bloco.titulo, "")
		for _, fx := range bloco.faixas {
			escreve(fx.Rotulo, fx.Total)
		}
		linha++
	}
	escreve("Série mensal", "")
	for _, p := range resumo.SerieMensal {
		escreve(mesesCurtos[p.Mes-1], p.Total)
	}
	_ = f.SetColWidth(abaResumo, "A", "A", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerar xlsx: %w", err)
	}
	return buf, nil
}

// ExportarPDF gera o resumo do relatório em PDF de uma página, em
// retrato ou paisagem.
func ExportarPDF(titulo string, resumo *Resumo, paisagem bool) (*bytes.Buffer, error) {
	orientacao := "P"
	if paisagem {
		orientacao = "L"
	}
	pdf := fpdf.New(orientacao, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(titulo), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(titulo), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Total de solicitações: %d", resumo.Total)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	bloco := func(nome string, faixas []Faixa) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(nome), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, fx := range faixas {
			pdf.CellFormat(120, 6, tr(fx.Rotulo), "B", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("%d", fx.Total), "B", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	bloco("Por status", resumo.PorStatus)
	bloco("Por foco", resumo.PorFoco)
	bloco("Por região", resumo.PorRegiao)
	bloco("Por unidade", resumo.PorUnidade)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Série mensal"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, p := range resumo.SerieMensal {
		if p.Total == 0 {
			continue
		}
		pdf.CellFormat(120, 6, mesesCurtos[p.Mes-1], "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", p.Total), "B", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("gerar pdf: %w", err)
	}
	return &buf, nil
}

func texto(v *string) string {
	if v == nil || *v == "" {
		return NaoInformado
	}
	return *v
}
