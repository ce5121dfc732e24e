package report

import "fmt"

// AggregationError is returned when grouping the cache scan for a single base
// key does not yield exactly one summarized group. Zero groups is not an
// error; it simply means no records and produces a zero-counter result.
type AggregationError struct {
	MeasureID string
	Groups    int
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation for measure %s produced %d groups, expected one", e.MeasureID, e.Groups)
}
