package usuario

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica conta inexistente.
	ErrNotFound = errors.New("usuário não encontrado")
	// ErrLoginDuplicado indica login já em uso.
	ErrLoginDuplicado = errors.New("login já está em uso")
	// ErrPossuiSolicitacoes bloqueia exclusão de conta com solicitações vinculadas.
	ErrPossuiSolicitacoes = errors.New("usuário possui solicitações vinculadas")
	// ErrPerfilInvalido indica perfil fora do conjunto conhecido.
	ErrPerfilInvalido = errors.New("perfil de usuário inválido")
)

// Perfil é o papel fechado de uma conta. Qualquer valor fora do conjunto
// é rejeitado no parse e tratado como sem acesso.
type Perfil string

const (
	PerfilAdmin        Perfil = "admin"
	PerfilOperario     Perfil = "operario"
	PerfilVisualizador Perfil = "visualizador"
	PerfilUVIS         Perfil = "uvis"
	PerfilPiloto       Perfil = "piloto"
)

// ParsePerfil valida a string vinda do banco ou do token.
func ParsePerfil(s string) (Perfil, error) {
	switch Perfil(strings.ToLower(strings.TrimSpace(s))) {
	case PerfilAdmin:
		return PerfilAdmin, nil
	case PerfilOperario:
		return PerfilOperario, nil
	case PerfilVisualizador:
		return PerfilVisualizador, nil
	case PerfilUVIS:
		return PerfilUVIS, nil
	case PerfilPiloto:
		return PerfilPiloto, nil
	default:
		return "", ErrPerfilInvalido
	}
}

// Elevado indica perfis de gestão (leitura ampla).
func (p Perfil) Elevado() bool {
	return p == PerfilAdmin || p == PerfilOperario || p == PerfilVisualizador
}

// PodeEditar indica perfis com escrita sobre solicitações.
func (p Perfil) PodeEditar() bool {
	return p == PerfilAdmin || p == PerfilOperario
}

// Usuario é a conta de acesso ao sistema. Contas UVIS e de pilotos também
// são usuários; o vínculo com o cadastro de piloto fica em PilotoID.
type Usuario struct {
	ID          uuid.UUID  `json:"id"`
	Nome        string     `json:"nome"`
	Regiao      *string    `json:"regiao,omitempty"`
	CodigoSetor *string    `json:"codigo_setor,omitempty"`
	Login       string     `json:"login"`
	SenhaHash   string     `json:"-"`
	Perfil      Perfil     `json:"perfil"`
	PilotoID    *uuid.UUID `json:"piloto_id,omitempty"`
	CriadoEm    time.Time  `json:"criado_em"`
}

// Ator identifica quem executa uma operação. É construído a partir dos
// claims do token e passado explicitamente para os serviços.
type Ator struct {
	ID       uuid.UUID
	Perfil   Perfil
	PilotoID *uuid.UUID
}

// CreateInput reúne campos para cadastro de conta UVIS.
type CreateInput struct {
	Nome        string
	Regiao      *string
	CodigoSetor *string
	Login       string
	Senha       string
}

// UpdateInput reúne campos editáveis de uma conta UVIS.
type UpdateInput struct {
	ID          uuid.UUID
	Nome        string
	Regiao      *string
	CodigoSetor *string
	Login       string
	Senha       string // vazio mantém a senha atual
}

// ListFilter filtra a listagem administrativa de contas UVIS.
type ListFilter struct {
	Busca       string
	Regiao      string
	CodigoSetor string
	Limit       int
	Offset      int
}

// Passkey é uma credencial WebAuthn registrada para a conta.
type Passkey struct {
	ID           uuid.UUID
	UsuarioID    uuid.UUID
	CredentialID []byte
	PublicKey    []byte
	SignCount    uint32
	Transports   []string
	AAGUID       []byte
	Apelido      *string
	Clonada      bool
	CriadoEm     time.Time
}
