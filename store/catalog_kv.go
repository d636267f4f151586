package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rushteam/bookrec/core"
)

// KVCatalog 是基于 core.Store 的 CatalogStore 实现：
// 书目与事件以 JSON 快照的形式存在 KV（如 Redis）里，
// 由离线任务定期刷写；引擎端只读。
//
// key 约定：
//
//	{KeyPrefix}:books   → []core.Book 的 JSON
//	{KeyPrefix}:events  → []core.InteractionEvent 的 JSON
//
// 热门序与标签偏好在读取后内存计算，不依赖后端的查询能力。
type KVCatalog struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "catalog"。
	KeyPrefix string
}

func NewKVCatalog(s core.Store, keyPrefix string) *KVCatalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &KVCatalog{store: s, KeyPrefix: keyPrefix}
}

var _ core.CatalogStore = (*KVCatalog)(nil)

// SaveSnapshot 刷写一份完整快照（离线任务侧使用）。
func (c *KVCatalog) SaveSnapshot(ctx context.Context, books []*core.Book, events []*core.InteractionEvent) error {
	bData, err := json.Marshal(books)
	if err != nil {
		return err
	}
	eData, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.store.BatchSet(ctx, map[string][]byte{
		c.KeyPrefix + ":books":  bData,
		c.KeyPrefix + ":events": eData,
	})
}

func (c *KVCatalog) ListBooks(ctx context.Context) ([]*core.Book, error) {
	data, err := c.store.Get(ctx, c.KeyPrefix+":books")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var books []*core.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *KVCatalog) ListEvents(ctx context.Context) ([]*core.InteractionEvent, error) {
	data, err := c.store.Get(ctx, c.KeyPrefix+":events")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var events []*core.InteractionEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *KVCatalog) PopularBooks(ctx context.Context, limit int) ([]*core.Book, error) {
	books, err := c.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
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

func (c *KVCatalog) TagPreferences(ctx context.Context, userID string) ([]core.TagPreference, error) {
	books, err := c.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	events, err := c.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*core.Book, len(books))
	for _, b := range books {
		if b != nil {
			byID[b.ID] = b
		}
	}

	weights := make(map[string]float64)
	order := make([]string, 0)
	for _, ev := range events {
		if ev == nil || ev.UserID != userID || ev.Kind != core.EventInteraction {
			continue
		}
		b, ok := byID[ev.BookID]
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

func (c *KVCatalog) SeenBooks(ctx context.Context, userID string) (map[string]struct{}, error) {
	events, err := c.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, ev := range events {
		if ev != nil && ev.UserID == userID {
			seen[ev.BookID] = struct{}{}
		}
	}
	return seen, nil
}
