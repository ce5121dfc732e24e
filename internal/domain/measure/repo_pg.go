package measure

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

type definitionRepoPG struct{ pool *pgxpool.Pool }

func NewDefinitionRepoPG(pool *pgxpool.Pool) DefinitionRepository {
	return &definitionRepoPG{pool: pool}
}

func (r *definitionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const definitionCols = `id, measure_id, sub_id, nqf_id, name, description, category, population_ids,
	created_at, updated_at`

func (r *definitionRepoPG) scanRow(row pgx.Row) (*Definition, error) {
	var d Definition
	err := row.Scan(&d.ID, &d.MeasureID, &d.SubID, &d.NQFID, &d.Name, &d.Description, &d.Category, &d.PopulationIDs,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *definitionRepoPG) Create(ctx context.Context, d *Definition) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO measure_def (id, measure_id, sub_id, nqf_id, name, description, category, population_ids)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.MeasureID, d.SubID, d.NQFID, d.Name, d.Description, d.Category, d.PopulationIDs)
	return err
}

func (r *definitionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Definition, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+definitionCols+` FROM measure_def WHERE id = $1`, id))
}

func (r *definitionRepoPG) GetByKey(ctx context.Context, measureID string, subID *string) (*Definition, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+definitionCols+` FROM measure_def
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2`, measureID, subID))
}

func (r *definitionRepoPG) Update(ctx context.Context, d *Definition) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE measure_def SET nqf_id=$2, name=$3, description=$4, category=$5, population_ids=$6, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.NQFID, d.Name, d.Description, d.Category, d.PopulationIDs)
	return err
}

func (r *definitionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM measure_def WHERE id = $1`, id)
	return err
}

func (r *definitionRepoPG) List(ctx context.Context, limit, offset int) ([]*Definition, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM measure_def`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+definitionCols+` FROM measure_def
		ORDER BY measure_id, sub_id NULLS FIRST LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Definition
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
