package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qme/qme/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type resultRepoPG struct{ pool *pgxpool.Pool }

func NewResultRepoPG(pool *pgxpool.Pool) ResultRepository {
	return &resultRepoPG{pool: pool}
}

func (r *resultRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const resultCols = `id, measure_id, sub_id, nqf_id, effective_date, test_batch, filters,
	population, denominator, numerator, antinumerator, exclusions, denexcep,
	considered, execution_time, created_at`

func (r *resultRepoPG) scanRow(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.MeasureID, &res.SubID, &res.NQFID, &res.EffectiveDate, &res.TestBatch, &res.Filters,
		&res.Population, &res.Denominator, &res.Numerator, &res.Antinumerator, &res.Exclusions, &res.DenExcep,
		&res.Considered, &res.ExecutionTime, &res.CreatedAt)
	return &res, err
}

func (r *resultRepoPG) Insert(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO measure_result (id, measure_id, sub_id, nqf_id, effective_date, test_batch, filters,
			population, denominator, numerator, antinumerator, exclusions, denexcep,
			considered, execution_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		res.ID, res.MeasureID, res.SubID, res.NQFID, res.EffectiveDate, res.TestBatch, res.Filters,
		res.Population, res.Denominator, res.Numerator, res.Antinumerator, res.Exclusions, res.DenExcep,
		res.Considered, res.ExecutionTime)
	return err
}

func (r *resultRepoPG) ListByMeasure(ctx context.Context, measureID string, subID *string, limit, offset int) ([]*Result, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM measure_result
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2`, measureID, subID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+resultCols+` FROM measure_result
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, measureID, subID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Result
	for rows.Next() {
		res, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, rows.Err()
}
