package solicitacao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ijasaude/vistoria/internal/db"
)

// Repository acessa a tabela solicitacoes no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colunas = `
	s.id, s.data_agendamento, to_char(s.hora_agendamento, 'HH24:MI'),
	s.foco, s.tipo_visita, s.altura_voo, s.criadouro, s.apoio_cet, s.observacao,
	s.cep, s.logradouro, s.bairro, s.cidade, s.uf, s.numero, s.complemento,
	s.latitude, s.longitude,
	s.anexo_path, s.anexo_nome,
	s.protocolo, s.justificativa,
	s.status, s.usuario_id, s.piloto_id, s.criado_em,
	u.nome, u.regiao, p.nome`

const baseFrom = `
	FROM solicitacoes s
	JOIN usuarios u ON u.id = s.usuario_id
	LEFT JOIN pilotos p ON p.id = s.piloto_id`

func scanSolicitacao(row pgx.Row) (*Solicitacao, error) {
	var s Solicitacao
	err := row.Scan(
		&s.ID, &s.DataAgendamento, &s.HoraAgendamento,
		&s.Foco, &s.TipoVisita, &s.AlturaVoo, &s.Criadouro, &s.ApoioCET, &s.Observacao,
		&s.CEP, &s.Logradouro, &s.Bairro, &s.Cidade, &s.UF, &s.Numero, &s.Complemento,
		&s.Latitude, &s.Longitude,
		&s.AnexoPath, &s.AnexoNome,
		&s.Protocolo, &s.Justificativa,
		&s.Status, &s.UsuarioID, &s.PilotoID, &s.CriadoEm,
		&s.UVISNome, &s.UVISRegiao, &s.PilotoNome,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan solicitação: %w", err)
	}
	return &s, nil
}

// SQL devolve as condições de visibilidade sobre os aliases s (solicitacoes)
// e u (usuarios). Compartilhado com agenda e relatórios para que todas as
// consultas apliquem o mesmo predicado.
func (e Escopo) SQL(arg func(v any) string) []string {
	var where []string
	if e.UVISID != nil {
		where = append(where, "s.usuario_id = "+arg(*e.UVISID))
	}
	if e.PilotoID != nil {
		where = append(where, "s.piloto_id = "+arg(*e.PilotoID))
		where = append(where, "upper(s.status) = ANY("+arg(StatusAprovadosSQL)+")")
		where = append(where, `EXISTS (
			SELECT 1 FROM piloto_uvis pu
			WHERE pu.piloto_id = s.piloto_id AND pu.uvis_usuario_id = s.usuario_id)`)
	}
	return where
}

// condicoes monta o WHERE combinando escopo de visibilidade e filtros.
func condicoes(escopo Escopo, filtro ListFilter) (string, []any) {
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	where := escopo.SQL(arg)
	if filtro.Status != "" {
		where = append(where, "upper(s.status) = upper("+arg(filtro.Status)+")")
	}
	if filtro.TipoVisita != "" {
		where = append(where, "s.tipo_visita = "+arg(filtro.TipoVisita))
	}
	if filtro.Foco != "" {
		where = append(where, "s.foco = "+arg(filtro.Foco))
	}
	if filtro.Unidade != "" {
		where = append(where, "u.nome ILIKE "+arg("%"+filtro.Unidade+"%"))
	}
	if filtro.Regiao != "" {
		where = append(where, "u.regiao = "+arg(filtro.Regiao))
	}
	if filtro.AnoMes != "" {
		where = append(where, "to_char(s.data_agendamento, 'YYYY-MM') = "+arg(filtro.AnoMes))
	}
	if filtro.UVISID != nil {
		where = append(where, "s.usuario_id = "+arg(*filtro.UVISID))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Get busca uma solicitação dentro do escopo do ator.
func (r *Repository) Get(ctx context.Context, escopo Escopo, id uuid.UUID) (*Solicitacao, error) {
	where, args := condicoes(escopo, ListFilter{})
	if where == "" {
		where = " WHERE s.id = $1"
		args = append(args, id)
	} else {
		args = append(args, id)
		where += " AND s.id = $" + strconv.Itoa(len(args))
	}
	row := r.pool.QueryRow(ctx, "SELECT "+colunas+baseFrom+where, args...)
	return scanSolicitacao(row)
}

// List pagina solicitações do escopo, mais recentes primeiro.
func (r *Repository) List(ctx context.Context, escopo Escopo, filtro ListFilter) ([]Solicitacao, int, error) {
	where, args := condicoes(escopo, filtro)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*)"+baseFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("contar solicitações: %w", err)
	}

	q := "SELECT " + colunas + baseFrom + where +
		" ORDER BY s.data_agendamento DESC, s.hora_agendamento DESC, s.id DESC"
	if filtro.Limit > 0 {
		args = append(args, filtro.Limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
		args = append(args, filtro.Offset)
		q += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listar solicitações: %w", err)
	}
	defer rows.Close()

	var out []Solicitacao
	for rows.Next() {
		s, err := scanSolicitacao(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// ListPorPeriodo devolve as solicitações do escopo entre duas datas,
// ordenadas para a agenda.
func (r *Repository) ListPorPeriodo(ctx context.Context, escopo Escopo, inicio, fim string) ([]Solicitacao, error) {
	where, args := condicoes(escopo, ListFilter{})
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	args = append(args, inicio)
	where += "s.data_agendamento >= $" + strconv.Itoa(len(args))
	args = append(args, fim)
	where += " AND s.data_agendamento <= $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx,
		"SELECT "+colunas+baseFrom+where+" ORDER BY s.data_agendamento, s.hora_agendamento", args...)
	if err != nil {
		return nil, fmt.Errorf("listar período: %w", err)
	}
	defer rows.Close()

	var out []Solicitacao
	for rows.Next() {
		s, err := scanSolicitacao(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const insertSolicitacao = `
	INSERT INTO solicitacoes (
		id, data_agendamento, hora_agendamento, foco, tipo_visita, altura_voo,
		criadouro, apoio_cet, observacao,
		cep, logradouro, bairro, cidade, uf, numero, complemento,
		latitude, longitude, status, usuario_id, criado_em
	) VALUES (
		$1, $2, $3::time, $4, $5, $6, $7, $8, $9,
		$10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, now()
	)`

// Create insere a solicitação já validada pelo serviço.
func (r *Repository) Create(ctx context.Context, s *Solicitacao) error {
	_, err := r.pool.Exec(ctx, insertSolicitacao,
		s.ID, s.DataAgendamento, s.HoraAgendamento, s.Foco, s.TipoVisita, s.AlturaVoo,
		s.Criadouro, s.ApoioCET, s.Observacao,
		s.CEP, s.Logradouro, s.Bairro, s.Cidade, s.UF, s.Numero, s.Complemento,
		s.Latitude, s.Longitude, s.Status, s.UsuarioID,
	)
	if err != nil {
		return fmt.Errorf("inserir solicitação: %w", err)
	}
	return nil
}

const updateDecisao = `
	UPDATE solicitacoes SET
		status = $2, protocolo = $3, justificativa = $4,
		latitude = $5, longitude = $6, piloto_id = $7,
		anexo_path = $8, anexo_nome = $9
	WHERE id = $1`

// UpdateDecisao persiste a decisão administrativa como gravação única.
// Todos os campos saem juntos; a validação acontece antes, no serviço.
func (r *Repository) UpdateDecisao(ctx context.Context, s *Solicitacao) error {
	return db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(tctx, updateDecisao,
			s.ID, s.Status, s.Protocolo, s.Justificativa,
			s.Latitude, s.Longitude, s.PilotoID,
			s.AnexoPath, s.AnexoNome,
		)
		if err != nil {
			return fmt.Errorf("atualizar solicitação: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpdateStatus troca apenas o status (conclusão pelo piloto).
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE solicitacoes SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("atualizar status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove definitivamente a solicitação e suas notificações.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(tctx,
			`DELETE FROM notificacoes WHERE solicitacao_id = $1`, id); err != nil {
			return fmt.Errorf("remover notificações: %w", err)
		}
		tag, err := tx.Exec(tctx, `DELETE FROM solicitacoes WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("remover solicitação: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// PilotoExiste confirma o cadastro do piloto antes da atribuição.
func (r *Repository) PilotoExiste(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pilotos WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("verificar piloto: %w", err)
	}
	return ok, nil
}

// OpcoesFiltro devolve valores distintos usados nos seletores de filtro.
func (r *Repository) OpcoesFiltro(ctx context.Context, escopo Escopo) (focos, tipos, unidades []string, err error) {
	where, args := condicoes(escopo, ListFilter{})

	coletar := func(coluna string) ([]string, error) {
		rows, err := r.pool.Query(ctx,
			"SELECT DISTINCT "+coluna+baseFrom+where+" ORDER BY 1", args...)
		if err != nil {
			return nil, fmt.Errorf("opções de filtro: %w", err)
		}
		defer rows.Close()
		var out []string
		for rows.Next() {
			var v *string
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			if v != nil && *v != "" {
				out = append(out, *v)
			}
		}
		return out, rows.Err()
	}

	if focos, err = coletar("s.foco"); err != nil {
		return nil, nil, nil, err
	}
	if tipos, err = coletar("s.tipo_visita"); err != nil {
		return nil, nil, nil, err
	}
	if unidades, err = coletar("u.nome"); err != nil {
		return nil, nil, nil, err
	}
	return focos, tipos, unidades, nil
}
