package faq

// BaseUVIS é a base de conhecimento do assistente das unidades.
func BaseUVIS() []Entrada {
	return []Entrada{
		{
			Pergunta: "Como criar uma nova solicitação?",
			Resposta: "Acesse Nova Solicitação no menu, informe data, hora, foco e o endereço " +
				"da visita (o CEP preenche o endereço automaticamente) e envie. A solicitação " +
				"entra como PENDENTE até a análise da equipe administrativa.",
			Chaves: []string{"criar", "nova solicitacao", "cadastrar solicitacao", "abrir"},
		},
		{
			Pergunta: "O que significa cada status?",
			Resposta: "PENDENTE: aguardando análise. EM ANÁLISE: em avaliação pela equipe. " +
				"APROVADO e APROVADO COM RECOMENDAÇÕES: visita autorizada com piloto designado. " +
				"NEGADO: visita não autorizada, veja a justificativa. CONCLUÍDO: visita realizada.",
			Chaves: []string{"status", "pendente", "em analise", "aprovado", "negado", "concluido", "significa"},
		},
		{
			Pergunta: "Posso editar uma solicitação já enviada?",
			Resposta: "Não. Após o envio a solicitação fica sob análise administrativa. " +
				"Se precisar corrigir algum dado, entre em contato com a equipe do programa.",
			Chaves: []string{"editar", "alterar", "corrigir", "mudar"},
		},
		{
			Pergunta: "Quando a visita será realizada?",
			Resposta: "Após a aprovação, a visita aparece na sua agenda na data agendada. " +
				"Você recebe uma notificação no dia da visita.",
			Chaves: []string{"quando", "visita", "agenda", "data", "realizada"},
		},
		{
			Pergunta: "Como acompanho minhas notificações?",
			Resposta: "O sino no topo da tela mostra os avisos não lidos: mudanças de status " +
				"das suas solicitações e lembretes das visitas do dia.",
			Chaves: []string{"notificacao", "notificacoes", "aviso", "sino", "lembrete"},
		},
		{
			Pergunta: "O CEP não foi encontrado, e agora?",
			Resposta: "Confira se o CEP tem 8 dígitos. Se a consulta continuar falhando, " +
				"preencha o endereço manualmente nos campos do formulário.",
			Chaves: []string{"cep", "endereco", "nao encontrado", "nao encontrei"},
		},
	}
}

// BaseAdmin é a base de conhecimento do assistente do painel.
func BaseAdmin() []Entrada {
	return []Entrada{
		{
			Pergunta: "Como aprovar uma solicitação?",
			Resposta: "Abra a solicitação, selecione o piloto responsável e mude o status para " +
				"APROVADO ou APROVADO COM RECOMENDAÇÕES. A aprovação exige piloto designado; " +
				"sem piloto a decisão inteira é rejeitada.",
			Chaves: []string{"aprovar", "aprovacao", "piloto", "designar"},
		},
		{
			Pergunta: "Como negar uma solicitação?",
			Resposta: "Mude o status para NEGADO e preencha a justificativa. A UVIS " +
				"solicitante é notificada com o novo status.",
			Chaves: []string{"negar", "negado", "justificativa", "recusar"},
		},
		{
			Pergunta: "Como cadastrar um piloto?",
			Resposta: "Em Pilotos, use Novo Piloto: nome, região de atuação, telefone e as " +
				"credenciais de acesso. O piloto enxerga apenas as visitas aprovadas " +
				"atribuídas a ele, nas UVIS vinculadas.",
			Chaves: []string{"cadastrar piloto", "novo piloto", "piloto", "vincular"},
		},
		{
			Pergunta: "Como gerar relatórios?",
			Resposta: "Em Relatórios, escolha ano, mês e região. Os painéis agrupam por " +
				"status, foco, tipo de visita, altura de voo, região e unidade. " +
				"Exporte em XLSX (detalhado) ou PDF (resumo).",
			Chaves: []string{"relatorio", "relatorios", "exportar", "xlsx", "pdf", "grafico"},
		},
		{
			Pergunta: "Quem pode fazer o quê?",
			Resposta: "admin: acesso total, inclusive exclusões. operario: edita solicitações " +
				"e cadastros. visualizador: somente leitura. uvis: cria e acompanha as próprias " +
				"solicitações. piloto: conclui as visitas aprovadas atribuídas a ele.",
			Chaves: []string{"perfil", "perfis", "permissao", "permissoes", "papel", "acesso"},
		},
		{
			Pergunta: "Como anexar o laudo da visita?",
			Resposta: "Na edição da solicitação, envie o arquivo no campo de anexo. São aceitos " +
				"pdf, png, jpg, jpeg, doc, docx, xls e xlsx. O anexo anterior é substituído.",
			Chaves: []string{"anexo", "anexar", "laudo", "arquivo", "upload"},
		},
	}
}
