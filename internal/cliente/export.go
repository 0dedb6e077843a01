package cliente

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ijasaude/vistoria/internal/br"
)

// ExportarXLSX gera a planilha de clientes para download.
func ExportarXLSX(clientes []Cliente) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const aba = "Clientes"
	f.SetSheetName("Sheet1", aba)

	cabecalho := []string{"Nome", "Documento", "Contato", "Telefone", "E-mail", "Endereço", "Cidade", "UF", "CEP", "Cadastro"}
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

	for i, c := range clientes {
		linha := i + 2
		endereco := c.Logradouro
		if c.Numero != nil {
			endereco += ", " + *c.Numero
		}
		endereco += " - " + c.Bairro
		if c.Complemento != nil {
			endereco += " (" + *c.Complemento + ")"
		}

		valores := []any{
			c.Nome,
			br.FormatarDocumento(c.Documento),
			deref(c.Contato),
			deref(c.Telefone),
			deref(c.Email),
			endereco,
			c.Cidade,
			c.UF,
			br.FormatarCEP(c.CEP),
			c.CriadoEm.Format("02/01/2006"),
		}
		for j, v := range valores {
			cell, _ := excelize.CoordinatesToCellName(j+1, linha)
			if err := f.SetCellValue(aba, cell, v); err != nil {
				return nil, fmt.Errorf("linha xlsx: %w", err)
			}
		}
	}

	_ = f.SetColWidth(aba, "A", "A", 32)
	_ = f.SetColWidth(aba, "B", "E", 24)
	_ = f.SetColWidth(aba, "F", "F", 46)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerar xlsx: %w", err)
	}
	return buf, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
