package piloto

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica piloto inexistente.
	ErrNotFound = errors.New("piloto não encontrado")
	// ErrDuplicado indica piloto com mesmo nome (e telefone) já cadastrado.
	ErrDuplicado = errors.New("já existe um piloto com esse nome e telefone")
	// ErrVinculoDuplicado indica par piloto↔UVIS repetido.
	ErrVinculoDuplicado = errors.New("piloto já vinculado a esta UVIS")
	// ErrRegiaoInvalida indica região fora do conjunto aceito.
	ErrRegiaoInvalida = errors.New("região inválida")
	// ErrTelefoneInvalido indica telefone sem 10 ou 11 dígitos.
	ErrTelefoneInvalido = errors.New("telefone deve ter 10 ou 11 dígitos (com DDD)")
)

// Regiões operacionais aceitas no cadastro.
var Regioes = map[string]struct{}{
	"NORTE":  {},
	"SUL":    {},
	"LESTE":  {},
	"OESTE":  {},
	"CENTRO": {},
}

// Piloto é o cadastro do operador de drone. O acesso ao sistema fica em
// uma conta de usuário própria, criada junto com o piloto.
type Piloto struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	Regiao   *string   `json:"regiao,omitempty"`
	Telefone *string   `json:"telefone,omitempty"`
}

// Vinculo associa um piloto a uma conta UVIS que ele atende (N:N).
type Vinculo struct {
	ID            uuid.UUID `json:"id"`
	PilotoID      uuid.UUID `json:"piloto_id"`
	UVISUsuarioID uuid.UUID `json:"uvis_usuario_id"`
	UVISNome      string    `json:"uvis_nome,omitempty"`
	CriadoEm      time.Time `json:"criado_em"`
}

// CreateInput reúne os campos do cadastro (piloto + credenciais de acesso).
type CreateInput struct {
	Nome     string
	Regiao   string
	Telefone string
	Login    string
	Senha    string
}

// UpdateInput edita piloto e, opcionalmente, as credenciais.
type UpdateInput struct {
	ID       uuid.UUID
	Nome     string
	Regiao   string
	Telefone string
	Login    string
	Senha    string // vazio mantém a atual
}

// ListFilter filtra a listagem de pilotos.
type ListFilter struct {
	Busca    string
	Regiao   string
	Telefone string
	Sort     string
	Limit    int
	Offset   int
}
