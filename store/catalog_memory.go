package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rushteam/bookrec/core"
)

// MemoryCatalog 是内存实现的 CatalogStore，用于测试/开发/原型。
// 书与事件都持有内部副本；读接口返回快照，调用方可以放心持有。
type MemoryCatalog struct {
	mu     sync.RWMutex
	books  []*core.Book
	byID   map[string]*core.Book
	events []*core.InteractionEvent
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		byID: make(map[string]*core.Book),
	}
}

var _ core.CatalogStore = (*MemoryCatalog)(nil)

// AddBook 加入一本书；ID 为空时自动分配 UUID。返回实际 ID。
func (c *MemoryCatalog) AddBook(b *core.Book) string {
	if b == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, ok := c.byID[b.ID]; !ok {
		c.books = append(c.books, b)
	}
	c.byID[b.ID] = b
	return b.ID
}

// AddEvent 追加一条评分/交互事件。
func (c *MemoryCatalog) AddEvent(ev *core.InteractionEvent) {
	if ev == nil {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *MemoryCatalog) ListBooks(ctx context.Context) ([]*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*core.Book(nil), c.books...), nil
}

func (c *MemoryCatalog) ListEvents(ctx context.Context) ([]*core.InteractionEvent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*core.InteractionEvent(nil), c.events...), nil
}

func (c *MemoryCatalog) PopularBooks(ctx context.Context, limit int) ([]*core.Book, error) {
	c.mu.RLock()
	books := append([]*core.Book(nil), c.books...)
	c.mu.RUnlock()

	sort.SliceStable(books, func(i, j int) bool {
		if books[i].AverageRating != books[j].AverageRating {
			return books[i].AverageRating > books[j].AverageRating
		}
		if books[i].ReviewCount != books[j].ReviewCount {
			return books[i].ReviewCount > books[j].ReviewCount
		}
		return books[i].ViewCount > books[j].ViewCount
	})
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

func (c *MemoryCatalog) TagPreferences(ctx context.Context, userID string) ([]core.TagPreference, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	weights := make(map[string]float64)
	order := make([]string, 0)
	for _, ev := range c.events {
		if ev == nil || ev.UserID != userID || ev.Kind != core.EventInteraction {
			continue
		}
		b, ok := c.byID[ev.BookID]
		if !ok {
			continue
		}
		for _, tagID := range b.TagIDs {
			if _, seen := weights[tagID]; !seen {
				order = append(order, tagID)
			}
			weights[tagID] += ev.Value
		}
	}

	prefs := make([]core.TagPreference, 0, len(order))
	for _, tagID := range order {
		prefs = append(prefs, core.TagPreference{TagID: tagID, Weight: weights[tagID]})
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Weight > prefs[j].Weight })
	return prefs, nil
}

func (c *MemoryCatalog) SeenBooks(ctx context.Context, userID string) (map[string]struct{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, ev := range c.events {
		if ev != nil && ev.UserID == userID {
			seen[ev.BookID] = struct{}{}
		}
	}
	return seen, nil
}
