package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/bookrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉下架/违规的书。
// 名单可以来自内存列表，也可以来自 Store 中的 JSON 数组（运营侧动态维护）。
type BlacklistFilter struct {
	// BookIDs 是内存中的黑名单书 ID 列表
	BookIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.BookIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err == nil {
			var blacklist []string
			if json.Unmarshal(data, &blacklist) == nil {
				for _, id := range blacklist {
					if item.ID == id {
						return true, nil
					}
				}
			}
		}
	}

	return false, nil
}
