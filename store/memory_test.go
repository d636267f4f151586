package store

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v, want ErrStoreNotFound", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v, want v, nil", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(deleted) error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v, want a=1 b=2", got)
	}
}

func TestMemoryStore_ZSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	for member, score := range map[string]float64{"low": 1, "high": 9, "mid": 5} {
		if err := s.ZAdd(ctx, "rank", score, member); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ZRange(ctx, "rank", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	want := []string{"high", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("ZRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got, err = s.ZRange(ctx, "rank", 0, 1)
	if err != nil || len(got) != 2 || got[0] != "high" || got[1] != "mid" {
		t.Errorf("ZRange(0,1) = %v, %v, want [high mid]", got, err)
	}

	score, err := s.ZScore(ctx, "rank", "mid")
	if err != nil || score != 5 {
		t.Errorf("ZScore(mid) = %v, %v, want 5, nil", score, err)
	}
	if _, err := s.ZScore(ctx, "rank", "ghost"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(ghost) error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.HSet(ctx, "h", "f1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.HSet(ctx, "h", "f2", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	got, err := s.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Errorf("HGet(h, f1) = %q, %v, want v1, nil", got, err)
	}

	all, err := s.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 || string(all["f1"]) != "v1" || string(all["f2"]) != "v2" {
		t.Errorf("HGetAll() = %v, want f1=v1 f2=v2", all)
	}
}
