package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qme/qme/internal/domain/classification"
)

// Request describes one aggregation call: the evaluation-run key, optional
// filters, and an optional start timestamp (unix seconds) for timing.
type Request struct {
	Key       classification.Key
	Filters   FilterSpec
	StartTime *int64
}

// Service aggregates cached classification documents into measure-group
// counts and persists each result.
type Service struct {
	cache   CacheReader
	results ResultRepository
	defs    DefinitionSource
	log     zerolog.Logger
}

func NewService(cache CacheReader, results ResultRepository, defs DefinitionSource, log zerolog.Logger) *Service {
	return &Service{cache: cache, results: results, defs: defs, log: log}
}

type tally struct {
	population    int
	denominator   int
	numerator     int
	antinumerator int
	exclusions    int
	denexcep      int
	considered    int
}

func (t *tally) add(d *classification.Doc) {
	t.population += d.Population
	t.denominator += d.Denominator
	t.numerator += d.Numerator
	t.antinumerator += d.Antinumerator
	t.exclusions += d.Exclusions
	t.denexcep += d.DenExcep
	t.considered++
}

func groupKey(d *classification.Doc) string {
	sub := ""
	if d.SubID != nil {
		sub = *d.SubID
	}
	return fmt.Sprintf("%s|%s|%d|%s", d.MeasureID, sub, d.EffectiveDate, d.TestBatch)
}

// Aggregate scans the cache for the request key, sums the measure-group
// counters over documents passing the filter predicate, reconciles manual
// exclusions, persists the result, and returns it.
//
// Manually excluded documents are kept out of the grouped sums (and out of
// the considered count) but each adds one to the exclusions counter,
// regardless of its originally computed groups.
func (s *Service) Aggregate(ctx context.Context, req Request) (*Result, error) {
	pred := BuildPredicate(req.Filters)

	docs, err := s.cache.FindByKey(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("scan classification cache: %w", err)
	}

	groups := make(map[string]*tally)
	manual := 0
	for _, d := range docs {
		if !pred(d) {
			continue
		}
		if d.ManuallyExcluded() {
			manual++
			continue
		}
		g := groups[groupKey(d)]
		if g == nil {
			g = &tally{}
			groups[groupKey(d)] = g
		}
		g.add(d)
	}

	// All documents share the base key, so a correct scan yields at most one
	// group. Zero groups means no records and a zero result.
	if len(groups) > 1 {
		return nil, &AggregationError{MeasureID: req.Key.MeasureID, Groups: len(groups)}
	}

	res := &Result{
		MeasureID:     req.Key.MeasureID,
		SubID:         req.Key.SubID,
		EffectiveDate: req.Key.EffectiveDate,
		TestBatch:     req.Key.TestBatch,
	}
	if !req.Filters.Empty() {
		filters := req.Filters
		res.Filters = &filters
	}
	for _, g := range groups {
		res.Population = g.population
		res.Denominator = g.denominator
		res.Numerator = g.numerator
		res.Antinumerator = g.antinumerator
		res.Exclusions = g.exclusions
		res.DenExcep = g.denexcep
		res.Considered = g.considered
	}
	res.Exclusions += manual

	if def, err := s.defs.GetByKey(ctx, req.Key.MeasureID, req.Key.SubID); err == nil {
		res.NQFID = &def.NQFID
	} else {
		s.log.Debug().Err(err).Str("measure_id", req.Key.MeasureID).Msg("no definition for result enrichment")
	}

	if req.StartTime != nil {
		elapsed := time.Now().Unix() - *req.StartTime
		res.ExecutionTime = &elapsed
	}

	if err := s.results.Insert(ctx, res); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	s.log.Info().
		Str("measure_id", req.Key.MeasureID).
		Str("test_batch", req.Key.TestBatch).
		Int64("effective_date", req.Key.EffectiveDate).
		Int("considered", res.Considered).
		Int("manual_exclusions", manual).
		Msg("aggregation complete")

	return res, nil
}

// ListResults returns persisted results for a measure, newest first.
func (s *Service) ListResults(ctx context.Context, measureID string, subID *string, limit, offset int) ([]*Result, int, error) {
	return s.results.ListByMeasure(ctx, measureID, subID, limit, offset)
}
