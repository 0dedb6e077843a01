package agenda

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ijasaude/vistoria/internal/solicitacao"
)

// ExportarXLSX gera a planilha da agenda do mês.
func ExportarXLSX(mes string, linhas []solicitacao.Solicitacao) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const aba = "Agenda"
	f.SetSheetName("Sheet1", aba)

	cabecalho := []string{"Data", "Hora", "Unidade", "Foco", "Status", "Piloto", "Endereço"}
	for i, titulo := range cabecalho {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(aba, cell, titulo); err != nil {
			return nil, fmt.Errorf("cabeçalho xlsx: %w", err)
		}
	}
	estilo, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		ultima, _ := excelize.CoordinatesToCellName(len(cabecalho), 1)
		_ = f.SetCellStyle(aba, "A1", ultima, estilo)
	}

	for i, s := range linhas {
		piloto := ""
		if s.PilotoNome != nil {
			piloto = *s.PilotoNome
		}
		valores := []any{
			s.DataAgendamento.Format("02/01/2006"),
			s.HoraAgendamento,
			s.UVISNome,
			s.Foco,
			s.Status,
			piloto,
			s.EnderecoCompleto(),
		}
		for j, v := range valores {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(aba, cell, v); err != nil {
				return nil, fmt.Errorf("linha xlsx: %w", err)
			}
		}
	}
	_ = f.SetColWidth(aba, "C", "C", 34)
	_ = f.SetColWidth(aba, "G", "G", 54)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerar xlsx agenda %s: %w", mes, err)
	}
	return buf, nil
}
