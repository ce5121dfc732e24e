package classification

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

type cacheRepoPG struct{ pool *pgxpool.Pool }

func NewCacheRepoPG(pool *pgxpool.Pool) CacheRepository {
	return &cacheRepoPG{pool: pool}
}

func (r *cacheRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const docCols = `id, measure_id, sub_id, effective_date, test_batch, patient_id,
	population, denominator, numerator, antinumerator, exclusions, denexcep,
	provider_performances, race_code, ethnicity_code, gender, languages,
	manual_exclusion, created_at, updated_at`

func (r *cacheRepoPG) scanRow(row pgx.Row) (*Doc, error) {
	var d Doc
	err := row.Scan(&d.ID, &d.MeasureID, &d.SubID, &d.EffectiveDate, &d.TestBatch, &d.PatientID,
		&d.Population, &d.Denominator, &d.Numerator, &d.Antinumerator, &d.Exclusions, &d.DenExcep,
		&d.ProviderPerformances, &d.RaceCode, &d.EthnicityCode, &d.Gender, &d.Languages,
		&d.ManualExclusion, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

// Upsert replaces the full document on conflict. A fresh classification run
// therefore clears any previously set manual_exclusion flag; the overlay is
// re-run after every classification pass to restore it.
func (r *cacheRepoPG) Upsert(ctx context.Context, d *Doc) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO classification (id, measure_id, sub_id, effective_date, test_batch, patient_id,
			population, denominator, numerator, antinumerator, exclusions, denexcep,
			provider_performances, race_code, ethnicity_code, gender, languages, manual_exclusion)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (measure_id, sub_id, effective_date, test_batch, patient_id)
		DO UPDATE SET
			population = EXCLUDED.population,
			denominator = EXCLUDED.denominator,
			numerator = EXCLUDED.numerator,
			antinumerator = EXCLUDED.antinumerator,
			exclusions = EXCLUDED.exclusions,
			denexcep = EXCLUDED.denexcep,
			provider_performances = EXCLUDED.provider_performances,
			race_code = EXCLUDED.race_code,
			ethnicity_code = EXCLUDED.ethnicity_code,
			gender = EXCLUDED.gender,
			languages = EXCLUDED.languages,
			manual_exclusion = EXCLUDED.manual_exclusion,
			updated_at = NOW()`,
		d.ID, d.MeasureID, d.SubID, d.EffectiveDate, d.TestBatch, d.PatientID,
		d.Population, d.Denominator, d.Numerator, d.Antinumerator, d.Exclusions, d.DenExcep,
		d.ProviderPerformances, d.RaceCode, d.EthnicityCode, d.Gender, d.Languages, d.ManualExclusion)
	return err
}

func (r *cacheRepoPG) Get(ctx context.Context, key Key, patientID string) (*Doc, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+docCols+` FROM classification
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2
		  AND effective_date = $3 AND test_batch = $4 AND patient_id = $5`,
		key.MeasureID, key.SubID, key.EffectiveDate, key.TestBatch, patientID))
}

func (r *cacheRepoPG) FindByKey(ctx context.Context, key Key) ([]*Doc, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+docCols+` FROM classification
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2
		  AND effective_date = $3 AND test_batch = $4
		ORDER BY patient_id`,
		key.MeasureID, key.SubID, key.EffectiveDate, key.TestBatch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*Doc
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *cacheRepoPG) SetManualExclusion(ctx context.Context, measureID string, subID *string, patientIDs []string) (int64, error) {
	if len(patientIDs) == 0 {
		return 0, nil
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE classification SET manual_exclusion = TRUE, updated_at = NOW()
		WHERE measure_id = $1 AND sub_id IS NOT DISTINCT FROM $2 AND patient_id = ANY($3)`,
		measureID, subID, patientIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
