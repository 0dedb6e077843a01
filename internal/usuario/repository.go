package usuario

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository provê acesso à tabela de usuários.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colunas = `id, nome, regiao, codigo_setor, login, senha_hash, perfil, piloto_id, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var (
		u      Usuario
		perfil string
	)
	err := row.Scan(&u.ID, &u.Nome, &u.Regiao, &u.CodigoSetor, &u.Login, &u.SenhaHash, &perfil, &u.PilotoID, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}

	p, err := ParsePerfil(perfil)
	if err != nil {
		return Usuario{}, err
	}
	u.Perfil = p
	return u, nil
}

// GetByLogin busca conta pelo login (case insensitive).
func (r *Repository) GetByLogin(ctx context.Context, login string) (Usuario, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+colunas+`
		FROM usuarios
		WHERE lower(login) = lower($1)
	`, strings.TrimSpace(login))
	return scanUsuario(row)
}

// GetByID busca conta pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+colunas+`
		FROM usuarios
		WHERE id = $1
	`, id)
	return scanUsuario(row)
}

// Create insere uma conta nova.
func (r *Repository) Create(ctx context.Context, u Usuario) (Usuario, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO usuarios (id, nome, regiao, codigo_setor, login, senha_hash, perfil, piloto_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+colunas+`
	`, u.ID, u.Nome, u.Regiao, u.CodigoSetor, u.Login, u.SenhaHash, string(u.Perfil), u.PilotoID)

	created, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Usuario{}, ErrLoginDuplicado
		}
		return Usuario{}, err
	}
	return created, nil
}

// Update grava nome, região, setor, login e (opcionalmente) senha.
func (r *Repository) Update(ctx context.Context, u Usuario) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE usuarios
		SET nome = $2, regiao = $3, codigo_setor = $4, login = $5, senha_hash = $6
		WHERE id = $1
	`, u.ID, u.Nome, u.Regiao, u.CodigoSetor, u.Login, u.SenhaHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrLoginDuplicado
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove uma conta UVIS. Contas com solicitações vinculadas são
// protegidas: a exclusão é bloqueada antes de tocar a linha.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var temSolicitacao bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM solicitacoes WHERE usuario_id = $1)
	`, id).Scan(&temSolicitacao)
	if err != nil {
		return err
	}
	if temSolicitacao {
		return ErrPossuiSolicitacoes
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUVIS lista contas de perfil uvis com filtros administrativos.
func (r *Repository) ListUVIS(ctx context.Context, filter ListFilter) ([]Usuario, int, error) {
	where := []string{`perfil = 'uvis'`}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		p := arg("%" + busca + "%")
		where = append(where, `(nome ILIKE `+p+` OR login ILIKE `+p+`)`)
	}
	if regiao := strings.TrimSpace(filter.Regiao); regiao != "" {
		where = append(where, `regiao ILIKE `+arg("%"+regiao+"%"))
	}
	if setor := strings.TrimSpace(filter.CodigoSetor); setor != "" {
		where = append(where, `codigo_setor ILIKE `+arg("%"+setor+"%"))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM usuarios WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + colunas + ` FROM usuarios WHERE ` + cond + ` ORDER BY nome ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// ListUVISResumo devolve (id, nome) de todas as UVIS para selects de filtro.
func (r *Repository) ListUVISResumo(ctx context.Context) ([]Usuario, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, nome
		FROM usuarios
		WHERE perfil = 'uvis'
		ORDER BY nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Usuario
	for rows.Next() {
		var u Usuario
		if err := rows.Scan(&u.ID, &u.Nome); err != nil {
			return nil, err
		}
		u.Perfil = PerfilUVIS
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListPasskeys devolve credenciais WebAuthn da conta.
func (r *Repository) ListPasskeys(ctx context.Context, usuarioID uuid.UUID) ([]Passkey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, usuario_id, credential_id, public_key, sign_count, transports, aaguid, apelido, clonada, criado_em
		FROM usuario_passkeys
		WHERE usuario_id = $1
		ORDER BY criado_em
	`, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Passkey
	for rows.Next() {
		var p Passkey
		if err := rows.Scan(&p.ID, &p.UsuarioID, &p.CredentialID, &p.PublicKey, &p.SignCount, &p.Transports, &p.AAGUID, &p.Apelido, &p.Clonada, &p.CriadoEm); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePasskey persiste uma credencial recém registrada.
func (r *Repository) CreatePasskey(ctx context.Context, p Passkey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usuario_passkeys (id, usuario_id, credential_id, public_key, sign_count, transports, aaguid, apelido, clonada)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.UsuarioID, p.CredentialID, p.PublicKey, p.SignCount, p.Transports, p.AAGUID, p.Apelido, p.Clonada)
	return err
}

// UpdatePasskeyCounter atualiza o contador de assinaturas após um login.
func (r *Repository) UpdatePasskeyCounter(ctx context.Context, credentialID []byte, signCount uint32, clonada bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE usuario_passkeys
		SET sign_count = $2, clonada = $3
		WHERE credential_id = $1
	`, credentialID, signCount, clonada)
	return err
}

