package relatorio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ijasaude/vistoria/internal/solicitacao"
)

// Repository agrega solicitações direto no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const baseFrom = `
	FROM solicitacoes s
	JOIN usuarios u ON u.id = s.usuario_id`

func condicoes(escopo solicitacao.Escopo, filtro Filtro) (string, []any) {
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	where := escopo.SQL(arg)
	if filtro.Ano > 0 {
		where = append(where, "extract(year from s.data_agendamento) = "+arg(filtro.Ano))
	}
	if filtro.Mes >= 1 && filtro.Mes <= 12 {
		where = append(where, "extract(month from s.data_agendamento) = "+arg(filtro.Mes))
	}
	if filtro.Regiao != "" {
		where = append(where, "u.regiao = "+arg(filtro.Regiao))
	}
	if filtro.UVISID != nil {
		where = append(where, "s.usuario_id = "+arg(*filtro.UVISID))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Total conta as solicitações do recorte.
func (r *Repository) Total(ctx context.Context, escopo solicitacao.Escopo, filtro Filtro) (int, error) {
	where, args := condicoes(escopo, filtro)
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*)"+baseFrom+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("total do relatório: %w", err)
	}
	return total, nil
}

// Agrupar conta por uma expressão de coluna, com vazio virando o rótulo
// "Não informado".
func (r *Repository) Agrupar(ctx context.Context, escopo solicitacao.Escopo, filtro Filtro, expr string) ([]Faixa, error) {
	where, args := condicoes(escopo, filtro)
	q := "SELECT coalesce(nullif(trim(" + expr + "), ''), '" + NaoInformado + "') AS rotulo, count(*)" +
		baseFrom + where + " GROUP BY 1 ORDER BY 2 DESC, 1"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("agrupar relatório: %w", err)
	}
	defer rows.Close()

	var out []Faixa
	for rows.Next() {
		var f Faixa
		if err := rows.Scan(&f.Rotulo, &f.Total); err != nil {
			return nil, fmt.Errorf("scan faixa: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SerieMensal conta todas as solicitações por mês, sem recorte algum.
// O gráfico de linha mostra a série histórica completa, independente
// dos filtros aplicados aos demais painéis.
func (r *Repository) SerieMensal(ctx context.Context) ([]PontoMes, error) {
	q := "SELECT extract(month from s.data_agendamento)::int AS mes, count(*)" +
		baseFrom + " GROUP BY 1 ORDER BY 1"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("série mensal: %w", err)
	}
	defer rows.Close()

	porMes := map[int]int{}
	for rows.Next() {
		var mes, total int
		if err := rows.Scan(&mes, &total); err != nil {
			return nil, fmt.Errorf("scan mês: %w", err)
		}
		porMes[mes] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Todos os 12 meses aparecem, com zero onde não houve visita.
	out := make([]PontoMes, 0, 12)
	for mes := 1; mes <= 12; mes++ {
		out = append(out, PontoMes{Mes: mes, Total: porMes[mes]})
	}
	return out, nil
}

// AnosDisponiveis lista os anos com solicitações no escopo, decrescente.
func (r *Repository) AnosDisponiveis(ctx context.Context, escopo solicitacao.Escopo) ([]int, error) {
	where, args := condicoes(escopo, Filtro{})
	q := "SELECT DISTINCT extract(year from s.data_agendamento)::int" +
		baseFrom + where + " ORDER BY 1 DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("anos disponíveis: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var ano int
		if err := rows.Scan(&ano); err != nil {
			return nil, fmt.Errorf("scan ano: %w", err)
		}
		out = append(out, ano)
	}
	return out, rows.Err()
}
