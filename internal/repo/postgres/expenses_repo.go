package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/geocoder89/expensehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpensesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewExpensesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ExpensesRepo {
	return &ExpensesRepo{pool: pool, prom: prom}
}

func (r *ExpensesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ExpensesRepo) Create(ctx context.Context, req expense.CreateExpenseRequest, userID string) (expense.Expense, error) {
	e := expense.NewFromCreateRequest(req, userID)

	err := r.observe("expenses.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO expenses (id, title, amount, category, description, date, user_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, e.Title, e.Amount, string(e.Category), e.Description, e.Date, e.UserID, e.CreatedAt, e.UpdatedAt,
		)
		return execErr
	})

	if err != nil {
		return expense.Expense{}, err
	}

	return e, nil
}

// buildListWhere maps a ListFilter onto conjunctive SQL clauses. Ownership is
// always the first clause; absent optional fields contribute nothing.
func buildListWhere(f expense.ListFilter) (string, []interface{}) {
	conds := []string{"user_id = $1"}
	args := []interface{}{f.UserID}
	pos := 2

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", pos))
		args = append(args, string(*f.Category))
		pos++
	}

	if f.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", pos))
		args = append(args, *f.From)
		pos++
	}

	if f.To != nil {
		conds = append(conds, fmt.Sprintf("date <= $%d", pos))
		args = append(args, *f.To)
		pos++
	}

	if f.Search != nil {
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", pos, pos))
		args = append(args, "%"+escapeLike(*f.Search)+"%")
		pos++
	}

	return strings.Join(conds, " AND "), args
}

func buildStatsWhere(f expense.StatsFilter) (string, []interface{}) {
	conds := []string{"user_id = $1"}
	args := []interface{}{f.UserID}
	pos := 2

	if f.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", pos))
		args = append(args, *f.From)
		pos++
	}

	if f.To != nil {
		conds = append(conds, fmt.Sprintf("date <= $%d", pos))
		args = append(args, *f.To)
		pos++
	}

	return strings.Join(conds, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters so search input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// List returns one page in date-descending order plus the total count of the
// whole filtered set, independent of the page window.
func (r *ExpensesRepo) List(ctx context.Context, f expense.ListFilter) ([]expense.Expense, int, error) {
	where, args := buildListWhere(f)
	pos := len(args) + 1

	query := fmt.Sprintf(`SELECT id, title, amount, category, description, date, user_id, created_at, updated_at,
			COUNT(*) OVER() AS total
		FROM expenses
		WHERE %s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, pos, pos+1)

	args = append(args, f.Limit, f.Offset)

	output := make([]expense.Expense, 0, f.Limit)
	total := 0

	err := r.observe("expenses.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e expense.Expense
			var category string
			var t int

			if err := rows.Scan(&e.ID, &e.Title, &e.Amount, &category, &e.Description, &e.Date, &e.UserID, &e.CreatedAt, &e.UpdatedAt, &t); err != nil {
				return err
			}

			e.Category = expense.Category(category)
			total = t
			output = append(output, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// COUNT(*) OVER() yields no row when the page is past the end; count
	// separately so totalItems stays correct for out-of-range pages.
	if len(output) == 0 {
		countQuery := "SELECT COUNT(*) FROM expenses WHERE " + where
		countArgs := args[:len(args)-2]

		err = r.observe("expenses.count", func() error {
			return r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
		})
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

// Update applies only the supplied fields in a single statement scoped to the
// owner. No match means not found; a record owned by someone else is
// indistinguishable from an absent one.
func (r *ExpensesRepo) Update(ctx context.Context, userID, id string, req expense.UpdateExpenseRequest) (expense.Expense, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, userID}
	pos := 3

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", pos))
		args = append(args, strings.TrimSpace(*req.Title))
		pos++
	}

	if req.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", pos))
		args = append(args, *req.Amount)
		pos++
	}

	if req.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", pos))
		args = append(args, *req.Category)
		pos++
	}

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", pos))
		args = append(args, strings.TrimSpace(*req.Description))
		pos++
	}

	if req.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", pos))
		args = append(args, req.Date.Time())
		pos++
	}

	query := fmt.Sprintf(`UPDATE expenses
		SET %s
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, amount, category, description, date, user_id, created_at, updated_at`,
		strings.Join(sets, ", "))

	var e expense.Expense
	var category string

	err := r.observe("expenses.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&e.ID, &e.Title, &e.Amount, &category, &e.Description, &e.Date, &e.UserID, &e.CreatedAt, &e.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expense.Expense{}, expense.ErrNotFound
		}
		return expense.Expense{}, err
	}

	e.Category = expense.Category(category)
	return e, nil
}

// Delete removes the record in one owner-scoped statement, so a delete can
// never race a concurrent update into a partial state.
func (r *ExpensesRepo) Delete(ctx context.Context, userID, id string) error {
	var tag int64

	err := r.observe("expenses.delete", func() error {
		res, execErr := r.pool.Exec(ctx,
			`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		if execErr != nil {
			return execErr
		}
		tag = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if tag == 0 {
		return expense.ErrNotFound
	}

	return nil
}

// TotalSummary sums the whole filtered set. Zero matches reports {0, 0}.
func (r *ExpensesRepo) TotalSummary(ctx context.Context, f expense.StatsFilter) (expense.TotalSummary, error) {
	where, args := buildStatsWhere(f)

	var s expense.TotalSummary

	err := r.observe("expenses.stats_total", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE `+where,
			args...,
		).Scan(&s.Total, &s.Count)
	})

	if err != nil {
		return expense.TotalSummary{}, err
	}

	return s, nil
}

// CategorySummaries groups the filtered set by category, largest spend first.
// Categories with no matching records are omitted.
func (r *ExpensesRepo) CategorySummaries(ctx context.Context, f expense.StatsFilter) ([]expense.CategorySummary, error) {
	where, args := buildStatsWhere(f)

	out := []expense.CategorySummary{}

	err := r.observe("expenses.stats_by_category", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT category, SUM(amount), COUNT(*)
			 FROM expenses
			 WHERE `+where+`
			 GROUP BY category
			 ORDER BY SUM(amount) DESC`,
			args...,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s expense.CategorySummary
			var category string

			if err := rows.Scan(&category, &s.Total, &s.Count); err != nil {
				return err
			}

			s.Category = expense.Category(category)
			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// MonthlySummaries groups by calendar month, most recent first, capped at the
// six most recent groups present in the filtered set.
func (r *ExpensesRepo) MonthlySummaries(ctx context.Context, f expense.StatsFilter) ([]expense.MonthlySummary, error) {
	where, args := buildStatsWhere(f)

	out := []expense.MonthlySummary{}

	err := r.observe("expenses.stats_monthly", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT EXTRACT(YEAR FROM date)::int AS year,
			        EXTRACT(MONTH FROM date)::int AS month,
			        SUM(amount), COUNT(*)
			 FROM expenses
			 WHERE `+where+`
			 GROUP BY 1, 2
			 ORDER BY 1 DESC, 2 DESC
			 LIMIT 6`,
			args...,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s expense.MonthlySummary

			if err := rows.Scan(&s.Year, &s.Month, &s.Total, &s.Count); err != nil {
				return err
			}

			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
