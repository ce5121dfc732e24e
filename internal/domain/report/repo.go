package report

import (
	"context"

	"github.com/qme/qme/internal/domain/classification"
	"github.com/qme/qme/internal/domain/measure"
)

// ResultRepository is the append-only results store. Insert must be durable
// before it returns.
type ResultRepository interface {
	Insert(ctx context.Context, r *Result) error
	ListByMeasure(ctx context.Context, measureID string, subID *string, limit, offset int) ([]*Result, int, error)
}

// CacheReader is the read-only slice of the classification cache the
// aggregator needs. Satisfied by classification.CacheRepository.
type CacheReader interface {
	FindByKey(ctx context.Context, key classification.Key) ([]*classification.Doc, error)
}

// DefinitionSource resolves measure definitions to enrich results with the
// measure's display identifier. Satisfied by measure.Service.
type DefinitionSource interface {
	GetByKey(ctx context.Context, measureID string, subID *string) (*measure.Definition, error)
}
