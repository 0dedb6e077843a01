package br

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDocumentoTamanho indica quantidade de dígitos incompatível com CPF/CNPJ.
	ErrDocumentoTamanho = errors.New("documento deve ter 11 (CPF) ou 14 (CNPJ) dígitos")
	// ErrCPFInvalido indica dígitos verificadores de CPF que não conferem.
	ErrCPFInvalido = errors.New("CPF inválido (dígitos verificadores não conferem)")
	// ErrCNPJInvalido indica dígitos verificadores de CNPJ que não conferem.
	ErrCNPJInvalido = errors.New("CNPJ inválido (dígitos verificadores não conferem)")
)

// TipoDocumento identifica o tipo de documento fiscal.
type TipoDocumento string

const (
	TipoCPF  TipoDocumento = "CPF"
	TipoCNPJ TipoDocumento = "CNPJ"
)

// Documento é o resultado normalizado da validação.
type Documento struct {
	Tipo      TipoDocumento
	Digitos   string
	Formatado string
}

// SomenteDigitos remove tudo que não for dígito decimal.
func SomenteDigitos(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidarDocumento aceita CPF (11 dígitos) ou CNPJ (14 dígitos), com ou sem
// máscara, e devolve dígitos normalizados mais a forma de exibição.
func ValidarDocumento(doc string) (Documento, error) {
	digits := SomenteDigitos(doc)

	switch len(digits) {
	case 11:
		if !ValidarCPF(digits) {
			return Documento{}, ErrCPFInvalido
		}
		return Documento{Tipo: TipoCPF, Digitos: digits, Formatado: FormatarCPF(digits)}, nil
	case 14:
		if !ValidarCNPJ(digits) {
			return Documento{}, ErrCNPJInvalido
		}
		return Documento{Tipo: TipoCNPJ, Digitos: digits, Formatado: FormatarCNPJ(digits)}, nil
	default:
		return Documento{}, ErrDocumentoTamanho
	}
}

// ValidarCPF verifica os dois dígitos verificadores do CPF.
// Sequências de dígito repetido (111.111.111-11) são inválidas.
func ValidarCPF(cpf string) bool {
	cpf = SomenteDigitos(cpf)
	if len(cpf) != 11 || strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}

	soma := 0
	for i := 0; i < 9; i++ {
		soma += int(cpf[i]-'0') * (10 - i)
	}
	d1 := (soma * 10) % 11
	if d1 == 10 {
		d1 = 0
	}
	if d1 != int(cpf[9]-'0') {
		return false
	}

	soma = 0
	for i := 0; i < 10; i++ {
		soma += int(cpf[i]-'0') * (11 - i)
	}
	d2 := (soma * 10) % 11
	if d2 == 10 {
		d2 = 0
	}
	return d2 == int(cpf[10]-'0')
}

var (
	pesosCNPJ1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	pesosCNPJ2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidarCNPJ verifica os dois dígitos verificadores do CNPJ.
func ValidarCNPJ(cnpj string) bool {
	cnpj = SomenteDigitos(cnpj)
	if len(cnpj) != 14 || strings.Count(cnpj, cnpj[:1]) == 14 {
		return false
	}

	soma := 0
	for i := 0; i < 12; i++ {
		soma += int(cnpj[i]-'0') * pesosCNPJ1[i]
	}
	d1 := 11 - soma%11
	if d1 >= 10 {
		d1 = 0
	}
	if d1 != int(cnpj[12]-'0') {
		return false
	}

	soma = 0
	for i := 0; i < 13; i++ {
		soma += int(cnpj[i]-'0') * pesosCNPJ2[i]
	}
	d2 := 11 - soma%11
	if d2 >= 10 {
		d2 = 0
	}
	return d2 == int(cnpj[13]-'0')
}

// FormatarCPF aplica a máscara 000.000.000-00.
func FormatarCPF(cpf string) string {
	d := SomenteDigitos(cpf)
	if len(d) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:11])
}

// FormatarCNPJ aplica a máscara 00.000.000/0000-00.
func FormatarCNPJ(cnpj string) string {
	d := SomenteDigitos(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:14])
}

// FormatarDocumento escolhe a máscara pelo tamanho; devolve o original
// quando não reconhece.
func FormatarDocumento(doc string) string {
	switch len(SomenteDigitos(doc)) {
	case 11:
		return FormatarCPF(doc)
	case 14:
		return FormatarCNPJ(doc)
	default:
		return doc
	}
}

// FormatarTelefone aplica a máscara (DD) 00000-0000 ou (DD) 0000-0000.
func FormatarTelefone(tel string) string {
	d := SomenteDigitos(tel)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:11])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:10])
	default:
		return tel
	}
}

// FormatarCEP aplica a máscara 00000-000.
func FormatarCEP(cep string) string {
	d := SomenteDigitos(cep)
	if len(d) != 8 {
		return cep
	}
	return d[:5] + "-" + d[5:]
}
