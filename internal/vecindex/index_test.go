package vecindex

import (
	"errors"
	"reflect"
	"testing"

	"estateqa/internal/domain"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Build("test-embed", []Entry{
		{ID: 1, Vector: []float32{1, 0, 0}},
		{ID: 2, Vector: []float32{0, 1, 0}},
		{ID: 3, Vector: []float32{0.9, 0.1, 0}},
		{ID: 4, Vector: []float32{0, 0, 1}},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		entries []Entry
	}{
		{"empty entries", "m", nil},
		{"empty model", "", []Entry{{ID: 1, Vector: []float32{1}}}},
		{"inconsistent dims", "m", []Entry{
			{ID: 1, Vector: []float32{1, 0}},
			{ID: 2, Vector: []float32{1}},
		}},
		{"duplicate id", "m", []Entry{
			{ID: 1, Vector: []float32{1, 0}},
			{ID: 1, Vector: []float32{0, 1}},
		}},
		{"zero dimension", "m", []Entry{{ID: 1, Vector: nil}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.model, tc.entries); !errors.Is(err, domain.ErrIndexBuild) {
				t.Errorf("Build = %v, want ErrIndexBuild", err)
			}
		})
	}
}

func TestSearchRanking(t *testing.T) {
	idx := buildTestIndex(t)

	hits, err := idx.Search([]float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits[0].ID != 1 {
		t.Errorf("top hit = %d, want 1 (self-retrieval)", hits[0].ID)
	}
	if hits[1].ID != 3 {
		t.Errorf("second hit = %d, want 3", hits[1].ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not descending at %d: %v", i, hits)
		}
	}
}

func TestSearchTieBreakAscendingID(t *testing.T) {
	idx, err := Build("m", []Entry{
		{ID: 9, Vector: []float32{1, 0}},
		{ID: 2, Vector: []float32{1, 0}},
		{ID: 5, Vector: []float32{2, 0}}, // same direction, same cosine
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	hits, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	got := []int64{hits[0].ID, hits[1].ID, hits[2].ID}
	if !reflect.DeepEqual(got, []int64{2, 5, 9}) {
		t.Errorf("tie order = %v, want [2 5 9]", got)
	}
}

func TestSearchKValidationAndClip(t *testing.T) {
	idx := buildTestIndex(t)

	if _, err := idx.Search([]float32{1, 0, 0}, 0); err == nil {
		t.Error("Search(k=0) succeeded, want error")
	}
	hits, err := idx.Search([]float32{1, 0, 0}, 100)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != idx.Len() {
		t.Errorf("got %d hits, want clipped to %d", len(hits), idx.Len())
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	idx := buildTestIndex(t)
	if _, err := idx.Search([]float32{1, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("Search = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchDeterministic(t *testing.T) {
	idx := buildTestIndex(t)
	q := []float32{0.3, 0.7, 0.1}
	first, err := idx.Search(q, 4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	second, err := idx.Search(q, 4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated search differs:\n%v\n%v", first, second)
	}
}

func TestTopKMonotonicity(t *testing.T) {
	idx := buildTestIndex(t)
	q := []float32{0.5, 0.5, 0.2}
	for k := 1; k < idx.Len(); k++ {
		small, err := idx.Search(q, k)
		if err != nil {
			t.Fatalf("Search(k=%d) failed: %v", k, err)
		}
		big, err := idx.Search(q, k+1)
		if err != nil {
			t.Fatalf("Search(k=%d) failed: %v", k+1, err)
		}
		if !reflect.DeepEqual(small, big[:k]) {
			t.Errorf("top-%d is not a prefix of top-%d:\n%v\n%v", k, k+1, small, big)
		}
	}
}
