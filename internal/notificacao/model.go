package notificacao

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indica notificação inexistente ou fora do escopo do ator.
var ErrNotFound = errors.New("notificação não encontrada")

// fusoLocal é o fuso de referência das notificações e lembretes.
var fusoLocal = carregarFuso()

func carregarFuso() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

// Agora devolve o instante atual no fuso de São Paulo.
func Agora() time.Time {
	return time.Now().In(fusoLocal)
}

// Notificacao é um aviso dirigido a um usuário específico ou ao conjunto
// de usuários de um perfil (pool administrativo). Leitura e exclusão são
// marcadas por timestamp; uma linha apagada some das listagens mas
// permanece na tabela para a deduplicação de lembretes.
type Notificacao struct {
	ID            uuid.UUID  `json:"id"`
	UsuarioID     *uuid.UUID `json:"usuario_id,omitempty"`
	PerfilDestino *string    `json:"perfil_destino,omitempty"`
	SolicitacaoID *uuid.UUID `json:"solicitacao_id,omitempty"`
	Titulo        string     `json:"titulo"`
	Mensagem      string     `json:"mensagem"`
	Link          string     `json:"link"`
	LidaEm        *time.Time `json:"lida_em,omitempty"`
	ApagadaEm     *time.Time `json:"-"`
	CriadaEm      time.Time  `json:"criada_em"`
}

// Lida informa se a notificação já foi lida.
func (n *Notificacao) Lida() bool { return n.LidaEm != nil }

// Apagada informa se a notificação foi escondida pelo destinatário.
func (n *Notificacao) Apagada() bool { return n.ApagadaEm != nil }
