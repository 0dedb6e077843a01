package notificacao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository acessa a tabela notificacoes no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colunas = `
	n.id, n.usuario_id, n.perfil_destino, n.solicitacao_id,
	n.titulo, n.mensagem, n.link, n.lida_em, n.apagada_em, n.criada_em`

// Destino delimita o alcance das consultas de um ator. Perfis de gestão
// enxergam a tabela inteira; os demais só veem o que foi endereçado ao
// próprio usuário ou ao pool do seu perfil.
type Destino struct {
	UsuarioID  uuid.UUID
	Perfil     string
	Irrestrito bool
}

// clausula devolve o predicado de escopo e seus argumentos. Os
// placeholders começam em $1; quem concatenar mais condições numera a
// partir de len(args)+1.
func (d Destino) clausula() (string, []any) {
	if d.Irrestrito {
		return "true", nil
	}
	return "(n.usuario_id = $1 OR n.perfil_destino = $2)", []any{d.UsuarioID, d.Perfil}
}

func scanNotificacao(row pgx.Row) (*Notificacao, error) {
	var n Notificacao
	err := row.Scan(
		&n.ID, &n.UsuarioID, &n.PerfilDestino, &n.SolicitacaoID,
		&n.Titulo, &n.Mensagem, &n.Link, &n.LidaEm, &n.ApagadaEm, &n.CriadaEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan notificação: %w", err)
	}
	return &n, nil
}

// Criar insere uma notificação.
func (r *Repository) Criar(ctx context.Context, n *Notificacao) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notificacoes (
			id, usuario_id, perfil_destino, solicitacao_id,
			titulo, mensagem, link, criada_em
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UsuarioID, n.PerfilDestino, n.SolicitacaoID,
		n.Titulo, n.Mensagem, n.Link, n.CriadaEm,
	)
	if err != nil {
		return fmt.Errorf("inserir notificação: %w", err)
	}
	return nil
}

// List devolve as notificações visíveis ao destino, recentes primeiro.
func (r *Repository) List(ctx context.Context, destino Destino, somenteNaoLidas bool, limit int) ([]Notificacao, error) {
	cond, args := destino.clausula()
	q := "SELECT " + colunas + " FROM notificacoes n WHERE " + cond + " AND n.apagada_em IS NULL"
	if somenteNaoLidas {
		q += " AND n.lida_em IS NULL"
	}
	q += fmt.Sprintf(" ORDER BY n.criada_em DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listar notificações: %w", err)
	}
	defer rows.Close()

	var out []Notificacao
	for rows.Next() {
		n, err := scanNotificacao(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// ContarNaoLidas alimenta o badge do cabeçalho.
func (r *Repository) ContarNaoLidas(ctx context.Context, destino Destino) (int, error) {
	cond, args := destino.clausula()
	var total int
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM notificacoes n WHERE "+cond+" AND n.apagada_em IS NULL AND n.lida_em IS NULL",
		args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("contar não lidas: %w", err)
	}
	return total, nil
}

// MarcarLida registra a primeira leitura de uma notificação do escopo.
// Repetições são inofensivas e preservam o timestamp original.
func (r *Repository) MarcarLida(ctx context.Context, destino Destino, id uuid.UUID) error {
	cond, args := destino.clausula()
	idx := len(args) + 1
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf("UPDATE notificacoes n SET lida_em = now() WHERE n.id = $%d AND %s AND n.apagada_em IS NULL AND n.lida_em IS NULL", idx, cond),
		args...)
	if err != nil {
		return fmt.Errorf("marcar lida: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Pode já estar lida; só falha se não existir no escopo.
		var existe bool
		err := r.pool.QueryRow(ctx,
			fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM notificacoes n WHERE n.id = $%d AND %s AND n.apagada_em IS NULL)", idx, cond),
			args...).Scan(&existe)
		if err != nil {
			return fmt.Errorf("verificar notificação: %w", err)
		}
		if !existe {
			return ErrNotFound
		}
	}
	return nil
}

// MarcarTodasLidas marca todo o escopo do destino como lido.
func (r *Repository) MarcarTodasLidas(ctx context.Context, destino Destino) error {
	cond, args := destino.clausula()
	_, err := r.pool.Exec(ctx,
		"UPDATE notificacoes n SET lida_em = now() WHERE "+cond+" AND n.apagada_em IS NULL AND n.lida_em IS NULL",
		args...)
	if err != nil {
		return fmt.Errorf("marcar todas lidas: %w", err)
	}
	return nil
}

// Excluir esconde a notificação sem apagar a linha, preservando o
// histórico usado na deduplicação de lembretes.
func (r *Repository) Excluir(ctx context.Context, destino Destino, id uuid.UUID) error {
	cond, args := destino.clausula()
	idx := len(args) + 1
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf("UPDATE notificacoes n SET apagada_em = now() WHERE n.id = $%d AND %s AND n.apagada_em IS NULL", idx, cond),
		args...)
	if err != nil {
		return fmt.Errorf("excluir notificação: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExcluirTodas esconde todas as notificações do escopo.
func (r *Repository) ExcluirTodas(ctx context.Context, destino Destino) error {
	cond, args := destino.clausula()
	_, err := r.pool.Exec(ctx,
		"UPDATE notificacoes n SET apagada_em = now() WHERE "+cond+" AND n.apagada_em IS NULL",
		args...)
	if err != nil {
		return fmt.Errorf("excluir todas: %w", err)
	}
	return nil
}

// ExisteComLink inclui linhas apagadas: lembrete removido pelo usuário
// não volta no mesmo dia.
func (r *Repository) ExisteComLink(ctx context.Context, usuarioID uuid.UUID, link string) (bool, error) {
	var existe bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notificacoes WHERE usuario_id = $1 AND link = $2)`,
		usuarioID, link).Scan(&existe)
	if err != nil {
		return false, fmt.Errorf("verificar link: %w", err)
	}
	return existe, nil
}

// UsuarioDoPiloto localiza a conta de acesso vinculada ao piloto.
func (r *Repository) UsuarioDoPiloto(ctx context.Context, pilotoID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM usuarios WHERE piloto_id = $1`, pilotoID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("usuário do piloto: %w", err)
	}
	return &id, nil
}

// VisitaDoDia resume uma visita agendada para o lembrete diário.
type VisitaDoDia struct {
	SolicitacaoID   uuid.UUID
	HoraAgendamento string
	Bairro          string
}

// VisitasDoDia lista, em qualquer status, as visitas da data que
// pertencem ao usuário: as solicitações que ele criou e, para contas de
// piloto, as que lhe foram atribuídas.
func (r *Repository) VisitasDoDia(ctx context.Context, usuarioID uuid.UUID, pilotoID *uuid.UUID, dia string) ([]VisitaDoDia, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, to_char(s.hora_agendamento, 'HH24:MI'), s.bairro
		FROM solicitacoes s
		WHERE s.data_agendamento = $1::date
		  AND (s.usuario_id = $2 OR ($3::uuid IS NOT NULL AND s.piloto_id = $3))
		ORDER BY s.hora_agendamento`,
		dia, usuarioID, pilotoID)
	if err != nil {
		return nil, fmt.Errorf("visitas do dia: %w", err)
	}
	defer rows.Close()

	var out []VisitaDoDia
	for rows.Next() {
		var v VisitaDoDia
		if err := rows.Scan(&v.SolicitacaoID, &v.HoraAgendamento, &v.Bairro); err != nil {
			return nil, fmt.Errorf("scan visita: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
