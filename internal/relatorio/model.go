package relatorio

import "github.com/google/uuid"

// NaoInformado é o rótulo do agrupamento de valores vazios.
const NaoInformado = "Não informado"

// Faixa é uma linha de agrupamento (status, foco, região...).
type Faixa struct {
	Rotulo string `json:"rotulo"`
	Total  int    `json:"total"`
}

// PontoMes é um ponto da série mensal do ano.
type PontoMes struct {
	Mes   int `json:"mes"` // 1..12
	Total int `json:"total"`
}

// Resumo agrega os painéis do relatório em uma resposta única.
type Resumo struct {
	Total       int        `json:"total"`
	PorStatus   []Faixa    `json:"por_status"`
	PorFoco     []Faixa    `json:"por_foco"`
	PorTipo     []Faixa    `json:"por_tipo_visita"`
	PorAltura   []Faixa    `json:"por_altura_voo"`
	PorRegiao   []Faixa    `json:"por_regiao"`
	PorUnidade  []Faixa    `json:"por_unidade"`
	SerieMensal []PontoMes `json:"serie_mensal"`
}

// Filtro delimita o período e o recorte do relatório.
type Filtro struct {
	Ano    int
	Mes    int // 0 = ano inteiro
	Regiao string
	UVISID *uuid.UUID
}
