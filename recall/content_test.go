package recall

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/tfidf"
)

func contentBooks() []*core.Book {
	return []*core.Book{
		{ID: "a", Title: "Dragon Quest", Description: "epic battles", TagNames: []string{"action", "fantasy"}},
		{ID: "b", Title: "Blade Saga", Description: "sword battles", TagNames: []string{"action"}},
		{ID: "c", Title: "Sweet Days", Description: "school life", TagNames: []string{"romance"}},
	}
}

func TestBuildContentIndex_Empty(t *testing.T) {
	if idx := BuildContentIndex(nil, nil); idx != nil {
		t.Errorf("BuildContentIndex(nil) = %v, want nil", idx)
	}
}

func TestBuildContentIndex_SkipsInvalidBooks(t *testing.T) {
	idx := BuildContentIndex([]*core.Book{
		nil,
		{ID: "", Title: "no id"},
		{ID: "a", Title: "Dragon Quest"},
	}, nil)
	if idx == nil {
		t.Fatal("BuildContentIndex() = nil")
	}
	if idx.Len() != 1 {
		t.Errorf("index length = %d, want 1", idx.Len())
	}
}

func TestContentRecall_TagOverlapRanking(t *testing.T) {
	idx := BuildContentIndex(contentBooks(), nil)
	r := &ContentRecall{Index: func() *tfidf.Index { return idx }}
	items, err := r.Recall(context.Background(), &core.RecommendContext{SeedBookID: "a"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("Recall() returned nothing")
	}
	// b 与种子共享 action/battles，c 毫无交集，b 必须排在最前
	if items[0].ID != "b" {
		t.Errorf("items[0].ID = %q, want %q", items[0].ID, "b")
	}
	for _, it := range items {
		if it.ID == "a" {
			t.Error("seed book returned in its own recommendations")
		}
		if lb, ok := it.Labels["recall_source"]; !ok || lb.Value != "content" {
			t.Errorf("recall_source label = %v, want content", lb)
		}
	}
}

func TestContentRecall_NoSeed(t *testing.T) {
	idx := BuildContentIndex(contentBooks(), nil)
	r := &ContentRecall{Index: func() *tfidf.Index { return idx }}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil || len(items) != 0 {
		t.Errorf("Recall(no seed) = %v, %v, want empty, nil", items, err)
	}
}

func TestContentRecall_UninitializedIndex(t *testing.T) {
	r := &ContentRecall{Index: func() *tfidf.Index { return nil }}
	items, err := r.Recall(context.Background(), &core.RecommendContext{SeedBookID: "a"})
	if err != nil || len(items) != 0 {
		t.Errorf("Recall(nil index) = %v, %v, want empty, nil", items, err)
	}
}
