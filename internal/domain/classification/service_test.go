package classification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/qme/qme/internal/domain/measure"
)

// =========== Mocks ===========

type mockCache struct {
	store map[string]*Doc
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string]*Doc)}
}

func subKey(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func docKey(d *Doc) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", d.MeasureID, subKey(d.SubID), d.EffectiveDate, d.TestBatch, d.PatientID)
}

func (m *mockCache) Upsert(_ context.Context, d *Doc) error {
	cp := *d
	m.store[docKey(d)] = &cp
	return nil
}

func (m *mockCache) Get(_ context.Context, key Key, patientID string) (*Doc, error) {
	k := fmt.Sprintf("%s|%s|%d|%s|%s", key.MeasureID, subKey(key.SubID), key.EffectiveDate, key.TestBatch, patientID)
	d, ok := m.store[k]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockCache) FindByKey(_ context.Context, key Key) ([]*Doc, error) {
	var docs []*Doc
	for _, d := range m.store {
		if d.MeasureID == key.MeasureID && subKey(d.SubID) == subKey(key.SubID) &&
			d.EffectiveDate == key.EffectiveDate && d.TestBatch == key.TestBatch {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *mockCache) SetManualExclusion(_ context.Context, measureID string, subID *string, patientIDs []string) (int64, error) {
	var n int64
	excluded := make(map[string]bool, len(patientIDs))
	for _, pid := range patientIDs {
		excluded[pid] = true
	}
	for _, d := range m.store {
		if d.MeasureID == measureID && subKey(d.SubID) == subKey(subID) && excluded[d.PatientID] {
			v := true
			d.ManualExclusion = &v
			n++
		}
	}
	return n, nil
}

type fakeClassifier struct {
	docs  map[string]*Doc
	fails map[string]*ClassificationError
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _ *measure.Definition, _ Params, patientID string) (*Doc, error) {
	f.calls++
	if cerr, ok := f.fails[patientID]; ok {
		return nil, cerr
	}
	d, ok := f.docs[patientID]
	if !ok {
		return &Doc{PatientID: patientID, Population: 1}, nil
	}
	cp := *d
	return &cp, nil
}

type fakePatients struct {
	ids []string
}

func (f *fakePatients) PatientIDs(_ context.Context, _ string) ([]string, error) {
	return f.ids, nil
}

type fakeDefs struct{}

func (fakeDefs) GetByKey(_ context.Context, measureID string, subID *string) (*measure.Definition, error) {
	return &measure.Definition{MeasureID: measureID, SubID: subID, NQFID: "0038"}, nil
}

type fakeOverlay struct {
	applies int
}

func (f *fakeOverlay) Apply(_ context.Context, _ string, _ *string) (int64, error) {
	f.applies++
	return 0, nil
}

func testKey() Key {
	return Key{MeasureID: "X", EffectiveDate: 1284883200, TestBatch: "t1"}
}

func newTestService(cache *mockCache, cls *fakeClassifier, pts *fakePatients, ov *fakeOverlay) *Service {
	return NewService(cache, cls, pts, fakeDefs{}, ov, zerolog.New(os.Stderr))
}

// =========== Tests ===========

func TestClassifyBatch_WritesOneDocPerPatient(t *testing.T) {
	cache := newMockCache()
	cls := &fakeClassifier{docs: map[string]*Doc{
		"p1": {Population: 1, Numerator: 1, Denominator: 1},
		"p2": {Population: 1, Denominator: 1},
	}}
	ov := &fakeOverlay{}
	svc := newTestService(cache, cls, &fakePatients{ids: []string{"p1", "p2"}}, ov)

	count, err := svc.ClassifyBatch(context.Background(), testKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 classified, got %d", count)
	}
	if len(cache.store) != 2 {
		t.Errorf("expected 2 cached docs, got %d", len(cache.store))
	}
	if ov.applies != 1 {
		t.Errorf("expected overlay to run once, got %d", ov.applies)
	}

	doc, err := cache.Get(context.Background(), testKey(), "p1")
	if err != nil {
		t.Fatalf("cached doc missing: %v", err)
	}
	if doc.MeasureID != "X" || doc.TestBatch != "t1" || doc.EffectiveDate != 1284883200 {
		t.Errorf("doc identity not stamped: %+v", doc)
	}
}

func TestClassifyBatch_ReclassificationOverwrites(t *testing.T) {
	cache := newMockCache()
	cls := &fakeClassifier{docs: map[string]*Doc{"p1": {Population: 1, Numerator: 1}}}
	svc := newTestService(cache, cls, &fakePatients{ids: []string{"p1"}}, &fakeOverlay{})
	ctx := context.Background()

	if _, err := svc.ClassifyBatch(ctx, testKey()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cls.docs["p1"] = &Doc{Population: 1, Numerator: 0, Antinumerator: 1}
	if _, err := svc.ClassifyBatch(ctx, testKey()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cache.store) != 1 {
		t.Fatalf("expected 1 doc after re-classification, got %d", len(cache.store))
	}
	doc, _ := cache.Get(ctx, testKey(), "p1")
	if doc.Numerator != 0 || doc.Antinumerator != 1 {
		t.Errorf("expected overwrite, got %+v", doc)
	}
}

func TestClassifyPatient_RunsOverlay(t *testing.T) {
	cache := newMockCache()
	cls := &fakeClassifier{}
	ov := &fakeOverlay{}
	svc := newTestService(cache, cls, &fakePatients{}, ov)

	doc, err := svc.ClassifyPatient(context.Background(), testKey(), "p9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PatientID != "p9" {
		t.Errorf("expected patient p9, got %s", doc.PatientID)
	}
	if ov.applies != 1 {
		t.Errorf("expected overlay to run once, got %d", ov.applies)
	}
	if len(cache.store) != 1 {
		t.Errorf("expected cached doc, got %d", len(cache.store))
	}
}

func TestEvaluateInline_DoesNotTouchCacheOrOverlay(t *testing.T) {
	cache := newMockCache()
	cls := &fakeClassifier{docs: map[string]*Doc{"p1": {Population: 1, Numerator: 1}}}
	ov := &fakeOverlay{}
	svc := newTestService(cache, cls, &fakePatients{}, ov)

	doc, err := svc.EvaluateInline(context.Background(), testKey(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Numerator != 1 {
		t.Errorf("expected numerator 1, got %d", doc.Numerator)
	}
	if len(cache.store) != 0 {
		t.Error("inline evaluation must not write to the cache")
	}
	if ov.applies != 0 {
		t.Error("inline evaluation must not run the overlay")
	}
}

func TestEvaluateInline_SurfacesClassificationError(t *testing.T) {
	payload := json.RawMessage(`{"problem":"missing record"}`)
	cls := &fakeClassifier{fails: map[string]*ClassificationError{
		"p1": {PatientID: "p1", Status: "error", Payload: payload},
	}}
	svc := newTestService(newMockCache(), cls, &fakePatients{}, &fakeOverlay{})

	_, err := svc.EvaluateInline(context.Background(), testKey(), "p1")
	var cerr *ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if string(cerr.Payload) != string(payload) {
		t.Errorf("expected verbatim payload, got %s", cerr.Payload)
	}
}

func TestClassifyBatch_StopsOnClassifierFailure(t *testing.T) {
	cache := newMockCache()
	cls := &fakeClassifier{
		docs:  map[string]*Doc{"p1": {Population: 1}},
		fails: map[string]*ClassificationError{"p2": {PatientID: "p2", Status: "error"}},
	}
	ov := &fakeOverlay{}
	svc := newTestService(cache, cls, &fakePatients{ids: []string{"p1", "p2", "p3"}}, ov)

	count, err := svc.ClassifyBatch(context.Background(), testKey())
	if err == nil {
		t.Fatal("expected classifier failure to propagate")
	}
	if count != 1 {
		t.Errorf("expected 1 doc written before failure, got %d", count)
	}
	if ov.applies != 0 {
		t.Error("overlay must not run after a failed batch")
	}
}
