package recall

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

func TestHot_CatalogOrder(t *testing.T) {
	catalog := store.NewMemoryCatalog()
	catalog.AddBook(&core.Book{ID: "low", AverageRating: 3.0})
	catalog.AddBook(&core.Book{ID: "high", AverageRating: 4.8, ReviewCount: 10})
	catalog.AddBook(&core.Book{ID: "mid", AverageRating: 4.8, ReviewCount: 3})

	r := &Hot{Catalog: catalog}
	items, err := r.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	want := []string{"high", "mid", "low"}
	if len(items) != len(want) {
		t.Fatalf("Recall() returned %d items, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, id)
		}
	}
	if items[0].Score != 4.8 {
		t.Errorf("items[0].Score = %v, want 4.8", items[0].Score)
	}
}

func TestHot_StoreZSet(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	if err := kv.ZAdd(ctx, "hot:books", 9, "top"); err != nil {
		t.Fatal(err)
	}
	if err := kv.ZAdd(ctx, "hot:books", 5, "second"); err != nil {
		t.Fatal(err)
	}

	r := &Hot{Store: kv, Key: "hot:books"}
	items, err := r.Recall(ctx, nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "top" || items[1].ID != "second" {
		t.Errorf("Recall() = %v, want [top second]", items)
	}
}

func TestHot_MemoryFallback(t *testing.T) {
	r := &Hot{IDs: []string{"a", "b", "c"}, TopK: 2}
	items, err := r.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Errorf("Recall() = %v, want truncated [a b]", items)
	}
	if lb, ok := items[0].Labels["recall_source"]; !ok || lb.Value != "hot" {
		t.Errorf("recall_source label = %v, want hot", lb)
	}
}
