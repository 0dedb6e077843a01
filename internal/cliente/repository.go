package cliente

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository acessa a tabela clientes no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colunas = `
	id, nome, tipo_documento, documento, contato, telefone, email,
	cep, logradouro, bairro, cidade, uf, numero, complemento, criado_em`

func scanCliente(row pgx.Row) (*Cliente, error) {
	var c Cliente
	err := row.Scan(
		&c.ID, &c.Nome, &c.TipoDocumento, &c.Documento, &c.Contato, &c.Telefone, &c.Email,
		&c.CEP, &c.Logradouro, &c.Bairro, &c.Cidade, &c.UF, &c.Numero, &c.Complemento,
		&c.CriadoEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cliente: %w", err)
	}
	return &c, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Cliente, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+colunas+" FROM clientes WHERE id = $1", id)
	return scanCliente(row)
}

func (r *Repository) Create(ctx context.Context, c *Cliente) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (
			id, nome, tipo_documento, documento, contato, telefone, email,
			cep, logradouro, bairro, cidade, uf, numero, complemento, criado_em
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())`,
		c.ID, c.Nome, c.TipoDocumento, c.Documento, c.Contato, c.Telefone, c.Email,
		c.CEP, c.Logradouro, c.Bairro, c.Cidade, c.UF, c.Numero, c.Complemento,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDocumentoDuplicado
	}
	if err != nil {
		return fmt.Errorf("inserir cliente: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, c *Cliente) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clientes SET
			nome = $2, tipo_documento = $3, documento = $4, contato = $5, telefone = $6,
			email = $7, cep = $8, logradouro = $9, bairro = $10, cidade = $11, uf = $12,
			numero = $13, complemento = $14
		WHERE id = $1`,
		c.ID, c.Nome, c.TipoDocumento, c.Documento, c.Contato, c.Telefone, c.Email,
		c.CEP, c.Logradouro, c.Bairro, c.Cidade, c.UF, c.Numero, c.Complemento,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDocumentoDuplicado
	}
	if err != nil {
		return fmt.Errorf("atualizar cliente: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remover cliente: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExisteDocumento verifica duplicidade por dígitos, ignorando o próprio id
// em edições.
func (r *Repository) ExisteDocumento(ctx context.Context, digitos string, ignorar *uuid.UUID) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM clientes WHERE documento = $1`
	args := []any{digitos}
	if ignorar != nil {
		q += ` AND id <> $2`
		args = append(args, *ignorar)
	}
	q += `)`

	var existe bool
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&existe); err != nil {
		return false, fmt.Errorf("verificar documento: %w", err)
	}
	return existe, nil
}

// List pagina clientes com busca por nome ou documento.
func (r *Repository) List(ctx context.Context, filtro ListFilter) ([]Cliente, int, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filtro.Busca != "" {
		p := arg("%" + filtro.Busca + "%")
		where = append(where, "(nome ILIKE "+p+" OR documento LIKE "+p+")")
	}
	if filtro.Cidade != "" {
		where = append(where, "cidade ILIKE "+arg("%"+filtro.Cidade+"%"))
	}
	if filtro.UF != "" {
		where = append(where, "uf = "+arg(strings.ToUpper(filtro.UF)))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM clientes"+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("contar clientes: %w", err)
	}

	ordem := "nome ASC"
	switch filtro.Ordem {
	case "nome_desc":
		ordem = "nome DESC"
	case "recentes":
		ordem = "criado_em DESC"
	}

	q := "SELECT " + colunas + " FROM clientes" + cond + " ORDER BY " + ordem
	if filtro.Limit > 0 {
		args = append(args, filtro.Limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
		args = append(args, filtro.Offset)
		q += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listar clientes: %w", err)
	}
	defer rows.Close()

	var out []Cliente
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}
