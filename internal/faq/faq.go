// Package faq implementa os assistentes de perguntas frequentes por
// palavras-chave: um para as unidades (UVIS) e outro para o painel
// administrativo. A correspondência ignora acentos e caixa.
package faq

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Entrada é um item da base de conhecimento.
type Entrada struct {
	Pergunta string   `json:"pergunta"`
	Resposta string   `json:"resposta"`
	Chaves   []string `json:"-"`
}

// Resposta é o resultado de uma consulta ao assistente.
type Resposta struct {
	Encontrou bool     `json:"encontrou"`
	Resposta  string   `json:"resposta,omitempty"`
	Pergunta  string   `json:"pergunta,omitempty"`
	Sugestoes []string `json:"sugestoes,omitempty"`
}

var removerAcentos = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalizar reduz o texto a minúsculas sem acentos para comparação.
func Normalizar(texto string) string {
	out, _, err := transform.String(removerAcentos, strings.ToLower(texto))
	if err != nil {
		return strings.ToLower(texto)
	}
	return out
}

// Assistente responde perguntas casando palavras-chave normalizadas.
type Assistente struct {
	entradas []Entrada
}

func NewAssistente(entradas []Entrada) *Assistente {
	return &Assistente{entradas: entradas}
}

// Responder procura a entrada com mais palavras-chave presentes na
// pergunta. Sem nenhum casamento, devolve sugestões de perguntas.
func (a *Assistente) Responder(pergunta string) Resposta {
	texto := Normalizar(pergunta)

	melhor := -1
	melhorPontos := 0
	for i, e := range a.entradas {
		pontos := 0
		for _, chave := range e.Chaves {
			if strings.Contains(texto, Normalizar(chave)) {
				pontos++
			}
		}
		if pontos > melhorPontos {
			melhor = i
			melhorPontos = pontos
		}
	}

	if melhor >= 0 {
		return Resposta{
			Encontrou: true,
			Pergunta:  a.entradas[melhor].Pergunta,
			Resposta:  a.entradas[melhor].Resposta,
		}
	}
	return Resposta{Encontrou: false, Sugestoes: a.Sugestoes()}
}

// Sugestoes lista as perguntas conhecidas em ordem alfabética.
func (a *Assistente) Sugestoes() []string {
	out := make([]string, 0, len(a.entradas))
	for _, e := range a.entradas {
		out = append(out, e.Pergunta)
	}
	sort.Strings(out)
	return out
}
