package piloto

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ijasaude/vistoria/internal/db"
)

const uniqueViolation = "23505"

// Repository provê acesso às tabelas de pilotos e vínculos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPiloto(row pgx.Row) (Piloto, error) {
	var p Piloto
	if err := row.Scan(&p.ID, &p.Nome, &p.Regiao, &p.Telefone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Piloto{}, ErrNotFound
		}
		return Piloto{}, err
	}
	return p, nil
}

// GetByID busca piloto pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Piloto, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, nome, regiao, telefone
		FROM pilotos
		WHERE id = $1
	`, id)
	return scanPiloto(row)
}

// Exists informa se o piloto está cadastrado.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pilotos WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// ExisteDuplicado verifica nome (e telefone, se houver) já cadastrados,
// ignorando o próprio registro em edições.
func (r *Repository) ExisteDuplicado(ctx context.Context, nome string, telefone *string, ignorar *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pilotos WHERE lower(nome) = lower($1)`
	args := []any{strings.TrimSpace(nome)}
	if telefone != nil {
		args = append(args, *telefone)
		query += ` AND telefone = $` + strconv.Itoa(len(args))
	}
	if ignorar != nil {
		args = append(args, *ignorar)
		query += ` AND id <> $` + strconv.Itoa(len(args))
	}
	query += `)`

	var ok bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&ok)
	return ok, err
}

// CreateComUsuario insere piloto e sua conta de acesso na mesma transação.
func (r *Repository) CreateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) (Piloto, error) {
	err := db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(tctx, `
			INSERT INTO pilotos (id, nome, regiao, telefone)
			VALUES ($1, $2, $3, $4)
		`, p.ID, p.Nome, p.Regiao, p.Telefone); err != nil {
			return err
		}

		_, err := tx.Exec(tctx, `
			INSERT INTO usuarios (id, nome, regiao, login, senha_hash, perfil, piloto_id)
			VALUES ($1, $2, $3, $4, $5, 'piloto', $6)
		`, uuid.New(), p.Nome, p.Regiao, login, senhaHash, p.ID)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Piloto{}, ErrDuplicado
		}
		return Piloto{}, err
	}
	return p, nil
}

// UpdateComUsuario grava piloto e sincroniza a conta de acesso.
// senhaHash vazio preserva a senha atual.
func (r *Repository) UpdateComUsuario(ctx context.Context, p Piloto, login, senhaHash string) error {
	return db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(tctx, `
			UPDATE pilotos
			SET nome = $2, regiao = $3, telefone = $4
			WHERE id = $1
		`, p.ID, p.Nome, p.Regiao, p.Telefone)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if senhaHash != "" {
			_, err = tx.Exec(tctx, `
				UPDATE usuarios
				SET nome = $2, regiao = $3, login = $4, senha_hash = $5
				WHERE piloto_id = $1 AND perfil = 'piloto'
			`, p.ID, p.Nome, p.Regiao, login, senhaHash)
		} else {
			_, err = tx.Exec(tctx, `
				UPDATE usuarios
				SET nome = $2, regiao = $3, login = $4
				WHERE piloto_id = $1 AND perfil = 'piloto'
			`, p.ID, p.Nome, p.Regiao, login)
		}
		return err
	})
}

// Delete remove piloto, seus vínculos e a conta de acesso, em transação.
// Solicitações atribuídas ficam sem piloto (piloto_id nulo).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(tctx, `UPDATE solicitacoes SET piloto_id = NULL WHERE piloto_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(tctx, `DELETE FROM piloto_uvis WHERE piloto_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(tctx, `DELETE FROM usuarios WHERE piloto_id = $1 AND perfil = 'piloto'`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(tctx, `DELETE FROM pilotos WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// List devolve pilotos filtrados mais o total para paginação.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Piloto, int, error) {
	where := []string{`TRUE`}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if regiao := strings.TrimSpace(filter.Regiao); regiao != "" {
		where = append(where, `regiao = `+arg(strings.ToUpper(regiao)))
	}
	if tel := strings.TrimSpace(filter.Telefone); tel != "" {
		where = append(where, `telefone ILIKE `+arg("%"+tel+"%"))
	}
	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		p := arg("%" + busca + "%")
		where = append(where, `(nome ILIKE `+p+` OR regiao ILIKE `+p+` OR telefone ILIKE `+p+`)`)
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pilotos WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := `nome ASC`
	switch filter.Sort {
	case "nome_desc":
		order = `nome DESC`
	case "id_desc":
		order = `id DESC`
	case "id_asc":
		order = `id ASC`
	}

	query := `SELECT id, nome, regiao, telefone FROM pilotos WHERE ` + cond + ` ORDER BY ` + order
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Piloto
	for rows.Next() {
		p, err := scanPiloto(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Vincular associa piloto a uma UVIS.
func (r *Repository) Vincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) (Vinculo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO piloto_uvis (id, piloto_id, uvis_usuario_id)
		VALUES ($1, $2, $3)
		RETURNING id, piloto_id, uvis_usuario_id, criado_em
	`, uuid.New(), pilotoID, uvisUsuarioID)

	var v Vinculo
	if err := row.Scan(&v.ID, &v.PilotoID, &v.UVISUsuarioID, &v.CriadoEm); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Vinculo{}, ErrVinculoDuplicado
		}
		return Vinculo{}, err
	}
	return v, nil
}

// Desvincular remove o par piloto↔UVIS.
func (r *Repository) Desvincular(ctx context.Context, pilotoID, uvisUsuarioID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM piloto_uvis
		WHERE piloto_id = $1 AND uvis_usuario_id = $2
	`, pilotoID, uvisUsuarioID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVinculos devolve as UVIS atendidas pelo piloto.
func (r *Repository) ListVinculos(ctx context.Context, pilotoID uuid.UUID) ([]Vinculo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pu.id, pu.piloto_id, pu.uvis_usuario_id, u.nome, pu.criado_em
		FROM piloto_uvis pu
		JOIN usuarios u ON u.id = pu.uvis_usuario_id
		WHERE pu.piloto_id = $1
		ORDER BY u.nome
	`, pilotoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vinculo
	for rows.Next() {
		var v Vinculo
		if err := rows.Scan(&v.ID, &v.PilotoID, &v.UVISUsuarioID, &v.UVISNome, &v.CriadoEm); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
