package service

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRecommender(t *testing.T, catalog core.CatalogStore, opts ...Option) *Recommender {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	r, err := NewRecommender(catalog, opts...)
	if err != nil {
		t.Fatalf("NewRecommender() error = %v", err)
	}
	return r
}

func bookCatalog() *store.MemoryCatalog {
	c := store.NewMemoryCatalog()
	c.AddBook(&core.Book{
		ID: "a", Title: "Dragon Quest", Description: "epic battles",
		TagIDs: []string{"action", "fantasy"}, TagNames: []string{"action", "fantasy"},
		AverageRating: 4.0,
	})
	c.AddBook(&core.Book{
		ID: "b", Title: "Blade Saga", Description: "sword battles",
		TagIDs: []string{"action"}, TagNames: []string{"action"},
		AverageRating: 4.5, ReviewCount: 7,
	})
	c.AddBook(&core.Book{
		ID: "c", Title: "Sweet Days", Description: "school life",
		TagIDs: []string{"romance"}, TagNames: []string{"romance"},
		AverageRating: 4.5, ReviewCount: 3,
	})
	return c
}

func TestNewRecommender_Validation(t *testing.T) {
	if _, err := NewRecommender(nil); err == nil {
		t.Error("NewRecommender(nil catalog) succeeded, want error")
	}
	_, err := NewRecommender(store.NewMemoryCatalog(), WithParams(Params{K: -1}))
	if err == nil {
		t.Fatal("NewRecommender(negative K) succeeded, want error")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT domain error", err)
	}
}

func TestContentBased(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	items, err := r.ContentBased(context.Background(), "a", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if len(items) == 0 || items[0].ID != "b" {
		t.Errorf("ContentBased(a) = %v, want b first (shared action vocabulary)", items)
	}
	for _, it := range items {
		if it.ID == "a" {
			t.Error("seed book returned in its own recommendations")
		}
	}
}

func TestContentBased_UnknownBook(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	items, err := r.ContentBased(context.Background(), "ghost", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("ContentBased(unknown) = %v, want empty", items)
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	ctx := context.Background()

	if err := r.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := r.ContentBased(ctx, "a", 10)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := r.ContentBased(ctx, "a", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("rebuild changed result size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Score != second[i].Score {
			t.Errorf("rebuild changed result at %d: (%s %v) vs (%s %v)",
				i, first[i].ID, first[i].Score, second[i].ID, second[i].Score)
		}
	}
}

func TestInitialize_EmptyCatalog(t *testing.T) {
	r := newTestRecommender(t, store.NewMemoryCatalog())
	if err := r.Initialize(context.Background()); err != nil {
		t.Errorf("Initialize(empty catalog) error = %v, want nil", err)
	}
	items, err := r.ContentBased(context.Background(), "a", 10)
	if err != nil || len(items) != 0 {
		t.Errorf("ContentBased on empty catalog = %v, %v, want empty, nil", items, err)
	}
}

func ratedCatalog() *store.MemoryCatalog {
	c := bookCatalog()
	c.AddBook(&core.Book{ID: "x", Title: "X"})
	c.AddBook(&core.Book{ID: "y", Title: "Y"})
	c.AddBook(&core.Book{ID: "z", Title: "Z"})
	c.AddEvent(&core.InteractionEvent{UserID: "u1", BookID: "x", Kind: core.EventRating, Value: 5})
	c.AddEvent(&core.InteractionEvent{UserID: "u1", BookID: "y", Kind: core.EventRating, Value: 3})
	c.AddEvent(&core.InteractionEvent{UserID: "u1", BookID: "z", Kind: core.EventRating, Value: 5})
	c.AddEvent(&core.InteractionEvent{UserID: "u2", BookID: "x", Kind: core.EventRating, Value: 5})
	c.AddEvent(&core.InteractionEvent{UserID: "u2", BookID: "y", Kind: core.EventRating, Value: 3})
	return c
}

func TestCollaborative_KNN(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog())
	items, err := r.Collaborative(context.Background(), "u2", MethodKNN, 10)
	if err != nil {
		t.Fatalf("Collaborative(knn) error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "z" {
		t.Fatalf("Collaborative(knn) = %v, want [z]", items)
	}
	if math.Abs(items[0].Score-5) > 1e-9 {
		t.Errorf("predicted score = %v, want 5", items[0].Score)
	}
}

func TestCollaborative_DefaultsToKNN(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog())
	items, err := r.Collaborative(context.Background(), "u2", "", 10)
	if err != nil {
		t.Fatalf("Collaborative(\"\") error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "z" {
		t.Errorf("Collaborative(\"\") = %v, want knn behavior [z]", items)
	}
}

func TestCollaborative_SVDAndMF(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog(), WithParams(Params{Seed: 7}))
	for _, method := range []Method{MethodSVD, MethodMF} {
		items, err := r.Collaborative(context.Background(), "u2", method, 10)
		if err != nil {
			t.Fatalf("Collaborative(%s) error = %v", method, err)
		}
		for _, it := range items {
			if it.ID == "x" || it.ID == "y" {
				t.Errorf("Collaborative(%s) returned already-rated %q", method, it.ID)
			}
		}
	}
}

func TestCollaborative_UnknownMethod(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog())
	_, err := r.Collaborative(context.Background(), "u2", "als", 10)
	if err == nil {
		t.Fatal("Collaborative(als) succeeded, want error")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeNotSupported {
		t.Errorf("error = %v, want NOT_SUPPORTED domain error", err)
	}
}

func TestCollaborative_UserWithoutSignal(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog())
	items, err := r.Collaborative(context.Background(), "stranger", MethodKNN, 10)
	if err != nil {
		t.Fatalf("Collaborative(stranger) error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Collaborative(stranger) = %v, want empty", items)
	}
}

func TestHybrid_RanksCollaborativeSignal(t *testing.T) {
	r := newTestRecommender(t, ratedCatalog())
	items, err := r.Hybrid(context.Background(), "u2", "", 10)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("Hybrid() returned nothing")
	}
	if items[0].ID != "z" {
		t.Errorf("Hybrid()[0].ID = %q, want z (only strong prediction)", items[0].ID)
	}
	for _, it := range items {
		if it.ID == "x" || it.ID == "y" {
			t.Errorf("already-rated book %q in hybrid output", it.ID)
		}
	}
}

func TestHybrid_PopularityFallback(t *testing.T) {
	// 无事件、无种子书：三路全空，必须退到严格热门序
	r := newTestRecommender(t, bookCatalog())
	items, err := r.Hybrid(context.Background(), "stranger", "", 10)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	// b/c 同评分 4.5，b 评论数多排前；a 评分 4.0 最后
	want := []string{"b", "c", "a"}
	if len(items) != len(want) {
		t.Fatalf("Hybrid fallback = %v, want %v", items, want)
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("fallback[%d].ID = %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestPersonalized(t *testing.T) {
	c := bookCatalog()
	c.AddEvent(&core.InteractionEvent{UserID: "u1", BookID: "a", Kind: core.EventInteraction, Value: 2})

	r := newTestRecommender(t, c)
	items, err := r.Personalized(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	// a 已交互被排除；b 含偏好标签 action；c 不含
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("Personalized(u1) = %v, want [b]", items)
	}
}

func TestPersonalized_FallbackToPopular(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	items, err := r.Personalized(context.Background(), "stranger", 2)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "c" {
		t.Errorf("Personalized fallback = %v, want popular [b c]", items)
	}
}

func TestPopular_LimitAndOrder(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	items, err := r.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "c" {
		t.Errorf("Popular(2) = %v, want [b c]", items)
	}
}

func TestSimilarByTags(t *testing.T) {
	r := newTestRecommender(t, bookCatalog())
	items, err := r.SimilarByTags(context.Background(), "a", 10)
	if err != nil {
		t.Fatalf("SimilarByTags() error = %v", err)
	}
	// 只有 b 与 a 共享标签
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("SimilarByTags(a) = %v, want [b]", items)
	}
}
