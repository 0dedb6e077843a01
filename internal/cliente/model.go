package cliente

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica cliente inexistente.
	ErrNotFound = errors.New("cliente não encontrado")
	// ErrDocumentoDuplicado indica CPF/CNPJ já cadastrado.
	ErrDocumentoDuplicado = errors.New("documento já cadastrado")
)

// Cliente é um solicitante externo atendido pelo programa.
type Cliente struct {
	ID            uuid.UUID `json:"id"`
	Nome          string    `json:"nome"`
	TipoDocumento string    `json:"tipo_documento"` // CPF ou CNPJ
	Documento     string    `json:"documento"`      // somente dígitos
	Contato       *string   `json:"contato,omitempty"` // pessoa de contato
	Telefone      *string   `json:"telefone,omitempty"`
	Email         *string   `json:"email,omitempty"`

	CEP         string  `json:"cep"`
	Logradouro  string  `json:"logradouro"`
	Bairro      string  `json:"bairro"`
	Cidade      string  `json:"cidade"`
	UF          string  `json:"uf"`
	Numero      *string `json:"numero,omitempty"`
	Complemento *string `json:"complemento,omitempty"`

	CriadoEm time.Time `json:"criado_em"`
}

// CreateInput reúne os campos do formulário de cadastro.
type CreateInput struct {
	Nome        string
	Documento   string
	Contato     string
	Telefone    string
	Email       string
	CEP         string
	Logradouro  string
	Bairro      string
	Cidade      string
	UF          string
	Numero      string
	Complemento string
}

// UpdateInput espelha o CreateInput para edição.
type UpdateInput struct {
	ID uuid.UUID
	CreateInput
}

// ListFilter filtra a listagem de clientes.
type ListFilter struct {
	Busca  string // nome ou documento
	Cidade string
	UF     string
	Ordem  string // nome_asc, nome_desc, recentes
	Limit  int
	Offset int
}
