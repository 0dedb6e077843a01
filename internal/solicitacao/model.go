package solicitacao

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ijasaude/vistoria/internal/usuario"
)

var (
	// ErrNotFound indica solicitação inexistente ou fora do escopo do ator.
	ErrNotFound = errors.New("solicitação não encontrada")
	// ErrAprovacaoSemPiloto bloqueia transição para status aprovado sem piloto.
	ErrAprovacaoSemPiloto = errors.New("para aprovar, selecione um piloto responsável")
	// ErrNaoAprovada bloqueia conclusão de solicitação não aprovada.
	ErrNaoAprovada = errors.New("a solicitação não está aprovada")
	// ErrPilotoInexistente indica atribuição a piloto não cadastrado.
	ErrPilotoInexistente = errors.New("piloto selecionado não existe")
	// ErrExtensaoNaoPermitida indica anexo fora da allow-list.
	ErrExtensaoNaoPermitida = errors.New("formato de arquivo não permitido")
	// ErrSemAnexo indica solicitação sem arquivo anexado.
	ErrSemAnexo = errors.New("solicitação sem anexo")
)

// Status do fluxo. O banco guarda texto livre; valores fora deste conjunto
// são tratados como não aprovados e não acionáveis.
const (
	StatusPendente       = "PENDENTE"
	StatusEmAnalise      = "EM ANÁLISE"
	StatusAprovado       = "APROVADO"
	StatusAprovadoRecs   = "APROVADO COM RECOMENDAÇÕES"
	StatusNegado         = "NEGADO"
	StatusConcluido      = "CONCLUÍDO"
	statusAprovadaLegado = "APROVADA"
	statusAprovadaRecsLegado = "APROVADA COM RECOMENDAÇÕES"
)

// StatusConhecidos na ordem de exibição dos filtros.
var StatusConhecidos = []string{
	StatusPendente,
	StatusEmAnalise,
	StatusAprovado,
	StatusAprovadoRecs,
	StatusNegado,
	StatusConcluido,
}

// statusAprovados inclui as grafias legadas ainda presentes em dados antigos.
var statusAprovados = map[string]struct{}{
	StatusAprovado:           {},
	StatusAprovadoRecs:       {},
	statusAprovadaLegado:     {},
	statusAprovadaRecsLegado: {},
}

// StatusAprovadosSQL é a lista usada nos filtros de visibilidade do piloto.
var StatusAprovadosSQL = []string{
	StatusAprovado,
	StatusAprovadoRecs,
	statusAprovadaLegado,
	statusAprovadaRecsLegado,
}

// EstaAprovada informa se o status pertence ao conjunto aprovado.
func EstaAprovada(status string) bool {
	_, ok := statusAprovados[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}

// Solicitacao é a ordem de serviço aberta por uma UVIS.
type Solicitacao struct {
	ID uuid.UUID `json:"id"`

	DataAgendamento time.Time `json:"data_agendamento"`
	HoraAgendamento string    `json:"hora_agendamento"`

	Foco       string  `json:"foco"`
	TipoVisita *string `json:"tipo_visita,omitempty"`
	AlturaVoo  *string `json:"altura_voo,omitempty"`
	Criadouro  bool    `json:"criadouro"`
	ApoioCET   bool    `json:"apoio_cet"`
	Observacao *string `json:"observacao,omitempty"`

	CEP         string  `json:"cep"`
	Logradouro  string  `json:"logradouro"`
	Bairro      string  `json:"bairro"`
	Cidade      string  `json:"cidade"`
	UF          string  `json:"uf"`
	Numero      *string `json:"numero,omitempty"`
	Complemento *string `json:"complemento,omitempty"`
	Latitude    *string `json:"latitude,omitempty"`
	Longitude   *string `json:"longitude,omitempty"`

	AnexoPath *string `json:"anexo_path,omitempty"`
	AnexoNome *string `json:"anexo_nome,omitempty"`

	Protocolo     *string `json:"protocolo,omitempty"`
	Justificativa *string `json:"justificativa,omitempty"`

	Status     string     `json:"status"`
	UsuarioID  uuid.UUID  `json:"usuario_id"`
	PilotoID   *uuid.UUID `json:"piloto_id,omitempty"`
	CriadoEm   time.Time  `json:"criado_em"`

	// Preenchidos por join para listagem e exportação.
	UVISNome   string  `json:"uvis_nome,omitempty"`
	UVISRegiao *string `json:"uvis_regiao,omitempty"`
	PilotoNome *string `json:"piloto_nome,omitempty"`
}

// EnderecoCompleto monta a linha de endereço usada em exportações.
func (s Solicitacao) EnderecoCompleto() string {
	numero := ""
	if s.Numero != nil {
		numero = *s.Numero
	}
	out := s.Logradouro + ", " + numero + " - " + s.Bairro + " - " + s.Cidade + "/" + s.UF + " - " + s.CEP
	if s.Complemento != nil && *s.Complemento != "" {
		out += " - " + *s.Complemento
	}
	return out
}

// Escopo é o predicado de visibilidade derivado do ator. É aplicado de
// forma uniforme em listagem, agenda, exportação e relatórios.
type Escopo struct {
	// UVISID restringe às solicitações da própria unidade.
	UVISID *uuid.UUID
	// PilotoID restringe às solicitações atribuídas ao piloto, em status
	// aprovado e cujas UVIS donas estejam vinculadas ao piloto.
	PilotoID *uuid.UUID
}

// EscopoDoAtor deriva o escopo de visibilidade. Perfil piloto sem vínculo
// cadastrado falha fechado.
func EscopoDoAtor(ator usuario.Ator) (Escopo, error) {
	switch ator.Perfil {
	case usuario.PerfilAdmin, usuario.PerfilOperario, usuario.PerfilVisualizador:
		return Escopo{}, nil
	case usuario.PerfilUVIS:
		id := ator.ID
		return Escopo{UVISID: &id}, nil
	case usuario.PerfilPiloto:
		if ator.PilotoID == nil {
			return Escopo{}, usuario.ErrForbidden
		}
		return Escopo{PilotoID: ator.PilotoID}, nil
	default:
		return Escopo{}, usuario.ErrForbidden
	}
}

// CreateInput reúne os campos do formulário de nova solicitação.
type CreateInput struct {
	DataAgendamento string // 2006-01-02
	HoraAgendamento string // 15:04
	Foco            string
	TipoVisita      string
	AlturaVoo       string
	Criadouro       bool
	ApoioCET        bool
	Observacao      string
	CEP             string
	Logradouro      string
	Bairro          string
	Cidade          string
	UF              string
	Numero          string
	Complemento     string
	Latitude        string
	Longitude       string
}

// AnexoInput carrega o arquivo enviado no formulário administrativo.
type AnexoInput struct {
	NomeOriginal string
	Conteudo     []byte
}

// AdminUpdateInput agrupa a decisão administrativa. Todos os campos são
// aplicados juntos ou nenhum (rejeição não persiste nada).
type AdminUpdateInput struct {
	ID            uuid.UUID
	Status        *string
	Protocolo     *string
	Justificativa *string
	Latitude      *string
	Longitude     *string
	PilotoID      *uuid.UUID
	LimparPiloto  bool
	Anexo         *AnexoInput
}

// ListFilter filtra listagens e exportações.
type ListFilter struct {
	Status     string
	TipoVisita string
	Foco       string
	Unidade    string
	Regiao     string
	AnoMes     string // "2026-01"
	UVISID     *uuid.UUID
	Limit      int
	Offset     int
}
