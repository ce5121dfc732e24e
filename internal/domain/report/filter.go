package report

import (
	"strings"

	"github.com/qme/qme/internal/domain/classification"
)

// NullToken is the literal filter value meaning "attribute not assigned":
// for providers, documents with no provider attribution; for languages,
// documents with no recorded language.
const NullToken = "null"

// FilterSpec narrows an aggregation to documents matching the requested
// demographic and provider criteria. Empty slices (and a zero FilterSpec)
// match everything.
type FilterSpec struct {
	Providers   []string `json:"providers,omitempty"`
	Races       []string `json:"races,omitempty"`
	Ethnicities []string `json:"ethnicities,omitempty"`
	Genders     []string `json:"genders,omitempty"`
	Languages   []string `json:"languages,omitempty"`
}

// Empty reports whether the filter imposes no constraints.
func (f FilterSpec) Empty() bool {
	return len(f.Providers) == 0 && len(f.Races) == 0 && len(f.Ethnicities) == 0 &&
		len(f.Genders) == 0 && len(f.Languages) == 0
}

// Predicate decides whether a classification document passes a filter.
type Predicate func(*classification.Doc) bool

// BuildPredicate translates a FilterSpec into a predicate over classification
// documents: a conjunction across filter dimensions, with OR semantics inside
// each dimension. Pure function; a dimension with no requested values imposes
// no constraint.
func BuildPredicate(f FilterSpec) Predicate {
	var clauses []Predicate

	if len(f.Providers) > 0 {
		clauses = append(clauses, providerClause(f.Providers))
	}
	if len(f.Races) > 0 {
		clauses = append(clauses, codeClause(f.Races, func(d *classification.Doc) *string { return d.RaceCode }))
	}
	if len(f.Ethnicities) > 0 {
		clauses = append(clauses, codeClause(f.Ethnicities, func(d *classification.Doc) *string { return d.EthnicityCode }))
	}
	if len(f.Genders) > 0 {
		clauses = append(clauses, codeClause(f.Genders, func(d *classification.Doc) *string { return d.Gender }))
	}
	if len(f.Languages) > 0 {
		clauses = append(clauses, languageClause(f.Languages))
	}

	if len(clauses) == 0 {
		return func(*classification.Doc) bool { return true }
	}

	return func(d *classification.Doc) bool {
		for _, clause := range clauses {
			if !clause(d) {
				return false
			}
		}
		return true
	}
}

// providerClause matches documents with at least one attribution window whose
// provider is in the requested set. The null token matches documents with no
// attribution at all, or with windows that have no provider assigned; it
// never matches a real provider id.
func providerClause(providers []string) Predicate {
	wantNull := false
	want := make(map[string]bool, len(providers))
	for _, p := range providers {
		if p == NullToken {
			wantNull = true
			continue
		}
		want[p] = true
	}

	return func(d *classification.Doc) bool {
		if wantNull && len(d.ProviderPerformances) == 0 {
			return true
		}
		for _, pp := range d.ProviderPerformances {
			if pp.ProviderID == nil || *pp.ProviderID == "" {
				if wantNull {
					return true
				}
				continue
			}
			if want[*pp.ProviderID] {
				return true
			}
		}
		return false
	}
}

// codeClause is an exact membership test against a single-valued attribute.
func codeClause(codes []string, attr func(*classification.Doc) *string) Predicate {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	return func(d *classification.Doc) bool {
		v := attr(d)
		return v != nil && want[*v]
	}
}

// languageClause matches documents speaking any requested language. Requested
// codes match on the tag prefix before any region suffix, so "en" matches
// "en-US". The null token matches documents with no recorded languages.
func languageClause(languages []string) Predicate {
	wantNull := false
	want := make(map[string]bool, len(languages))
	for _, l := range languages {
		if l == NullToken {
			wantNull = true
			continue
		}
		want[l] = true
	}

	return func(d *classification.Doc) bool {
		if wantNull && len(d.Languages) == 0 {
			return true
		}
		for _, tag := range d.Languages {
			prefix, _, _ := strings.Cut(tag, "-")
			if want[prefix] {
				return true
			}
		}
		return false
	}
}
