package report

import (
	"testing"

	"github.com/qme/qme/internal/domain/classification"
)

func strp(s string) *string { return &s }

func TestBuildPredicate_EmptySpecMatchesEverything(t *testing.T) {
	pred := BuildPredicate(FilterSpec{})
	doc := &classification.Doc{PatientID: "p1"}
	if !pred(doc) {
		t.Error("empty spec must match any document")
	}
}

func TestBuildPredicate_ExplicitEmptyListsMatchEverything(t *testing.T) {
	pred := BuildPredicate(FilterSpec{
		Providers: []string{}, Races: []string{}, Ethnicities: []string{},
		Genders: []string{}, Languages: []string{},
	})
	if !pred(&classification.Doc{}) {
		t.Error("spec with empty lists must behave like an empty spec")
	}
}

func TestProviderFilter_MatchesAttributedProvider(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Providers: []string{"prov-1"}})

	attributed := &classification.Doc{ProviderPerformances: []classification.ProviderPerformance{
		{ProviderID: strp("prov-1")},
	}}
	other := &classification.Doc{ProviderPerformances: []classification.ProviderPerformance{
		{ProviderID: strp("prov-2")},
	}}

	if !pred(attributed) {
		t.Error("expected match on attributed provider")
	}
	if pred(other) {
		t.Error("expected no match for a different provider")
	}
}

func TestProviderFilter_NullToken(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Providers: []string{NullToken}})

	noWindows := &classification.Doc{}
	unassigned := &classification.Doc{ProviderPerformances: []classification.ProviderPerformance{
		{ProviderID: nil},
	}}
	assigned := &classification.Doc{ProviderPerformances: []classification.ProviderPerformance{
		{ProviderID: strp("prov-1")},
	}}

	if !pred(noWindows) {
		t.Error("null token must match documents with no provider windows")
	}
	if !pred(unassigned) {
		t.Error("null token must match windows with no provider assigned")
	}
	if pred(assigned) {
		t.Error("null token must never match a real provider id")
	}
}

func TestProviderFilter_NullTokenAlongsideRealIDs(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Providers: []string{"prov-1", NullToken}})

	if !pred(&classification.Doc{}) {
		t.Error("expected null-token match")
	}
	if !pred(&classification.Doc{ProviderPerformances: []classification.ProviderPerformance{{ProviderID: strp("prov-1")}}}) {
		t.Error("expected real-id match")
	}
	if pred(&classification.Doc{ProviderPerformances: []classification.ProviderPerformance{{ProviderID: strp("prov-2")}}}) {
		t.Error("expected no match for unrequested provider")
	}
}

func TestCodeFilters_ExactMembership(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Races: []string{"2106-3"}, Genders: []string{"F"}})

	match := &classification.Doc{RaceCode: strp("2106-3"), Gender: strp("F")}
	wrongRace := &classification.Doc{RaceCode: strp("2054-5"), Gender: strp("F")}
	missingRace := &classification.Doc{Gender: strp("F")}

	if !pred(match) {
		t.Error("expected match on race and gender")
	}
	if pred(wrongRace) {
		t.Error("expected conjunction to fail on race")
	}
	if pred(missingRace) {
		t.Error("document without the attribute must not match")
	}
}

func TestLanguageFilter_PrefixMatch(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Languages: []string{"en"}})

	regional := &classification.Doc{Languages: []string{"en-US"}}
	bare := &classification.Doc{Languages: []string{"en"}}
	other := &classification.Doc{Languages: []string{"fr-CA"}}
	none := &classification.Doc{}

	if !pred(regional) {
		t.Error(`"en" must match "en-US"`)
	}
	if !pred(bare) {
		t.Error(`"en" must match "en"`)
	}
	if pred(other) {
		t.Error(`"en" must not match "fr-CA"`)
	}
	if pred(none) {
		t.Error("document without languages matches only via the null token")
	}
}

func TestLanguageFilter_NullToken(t *testing.T) {
	pred := BuildPredicate(FilterSpec{Languages: []string{NullToken}})

	if !pred(&classification.Doc{}) {
		t.Error("null token must match documents with no languages")
	}
	if pred(&classification.Doc{Languages: []string{"en-US"}}) {
		t.Error("null token alone must not match documents with languages")
	}

	both := BuildPredicate(FilterSpec{Languages: []string{"en", NullToken}})
	if !both(&classification.Doc{}) || !both(&classification.Doc{Languages: []string{"en-GB"}}) {
		t.Error("null token and codes combine with OR semantics")
	}
}

func TestBuildPredicate_ConjunctionAcrossDimensions(t *testing.T) {
	pred := BuildPredicate(FilterSpec{
		Providers: []string{"prov-1"},
		Languages: []string{"es"},
	})

	doc := &classification.Doc{
		ProviderPerformances: []classification.ProviderPerformance{{ProviderID: strp("prov-1")}},
		Languages:            []string{"es-MX"},
	}
	if !pred(doc) {
		t.Error("expected both dimensions to match")
	}

	doc.Languages = []string{"en-US"}
	if pred(doc) {
		t.Error("failing one dimension must fail the conjunction")
	}
}
