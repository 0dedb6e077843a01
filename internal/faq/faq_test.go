package faq

import "testing"

func TestNormalizarRemoveAcentosECaixa(t *testing.T) {
	casos := map[string]string{
		"Solicitação":      "solicitacao",
		"APROVAÇÃO":        "aprovacao",
		"Relatório de Voo": "relatorio de voo",
		"sem acento mesmo": "sem acento mesmo",
		"CONCLUÍDO":        "concluido",
	}
	for entrada, quer := range casos {
		if got := Normalizar(entrada); got != quer {
			t.Errorf("Normalizar(%q) = %q, quer %q", entrada, got, quer)
		}
	}
}

func TestResponderIgnoraAcentos(t *testing.T) {
	a := NewAssistente(BaseUVIS())

	resp := a.Responder("como faço para criar uma nova SOLICITAÇÃO?")
	if !resp.Encontrou {
		t.Fatal("não encontrou resposta para pergunta com acentos")
	}
	if resp.Pergunta != "Como criar uma nova solicitação?" {
		t.Fatalf("pergunta casada = %q", resp.Pergunta)
	}
}

func TestResponderEscolheMelhorCasamento(t *testing.T) {
	a := NewAssistente(BaseAdmin())

	resp := a.Responder("preciso aprovar e designar um piloto")
	if !resp.Encontrou {
		t.Fatal("não encontrou resposta")
	}
	if resp.Pergunta != "Como aprovar uma solicitação?" {
		t.Fatalf("pergunta casada = %q, quer a de aprovação", resp.Pergunta)
	}
}

func TestResponderSemCasamentoDevolveSugestoes(t *testing.T) {
	a := NewAssistente(BaseUVIS())

	resp := a.Responder("qual a previsão do tempo?")
	if resp.Encontrou {
		t.Fatal("não devia ter encontrado resposta")
	}
	if len(resp.Sugestoes) != len(BaseUVIS()) {
		t.Fatalf("sugestões = %d, quer %d", len(resp.Sugestoes), len(BaseUVIS()))
	}
}

func TestBasesCobrimTemasCentrais(t *testing.T) {
	uvis := NewAssistente(BaseUVIS())
	admin := NewAssistente(BaseAdmin())

	if resp := uvis.Responder("o que significa o status pendente?"); !resp.Encontrou {
		t.Error("base uvis não responde sobre status")
	}
	if resp := admin.Responder("como gerar relatorios em pdf?"); !resp.Encontrou {
		t.Error("base admin não responde sobre relatórios")
	}
}
