package piloto

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ijasaude/vistoria/internal/br"
)

// ExportarXLSX gera a planilha de pilotos para download.
func ExportarXLSX(pilotos []Piloto) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const aba = "Pilotos"
	f.SetSheetName("Sheet1", aba)

	cabecalho := []string{"Nome", "Região", "Telefone"}
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

	for i, p := range pilotos {
		linha := i + 2
		telefone := ""
		if p.Telefone != nil {
			telefone = br.FormatarTelefone(*p.Telefone)
		}
		regiao := ""
		if p.Regiao != nil {
			regiao = *p.Regiao
		}

		valores := []any{p.Nome, regiao, telefone}
		for j, v := range valores {
			cell, _ := excelize.CoordinatesToCellName(j+1, linha)
			if err := f.SetCellValue(aba, cell, v); err != nil {
				return nil, fmt.Errorf("linha xlsx: %w", err)
			}
		}
	}

	_ = f.SetColWidth(aba, "A", "A", 32)
	_ = f.SetColWidth(aba, "B", "C", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerar xlsx: %w", err)
	}
	return buf, nil
}
