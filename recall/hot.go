package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Hot 是热门召回源，也是所有个性化路径失效时的冷启动兜底。
// 数据来源优先级：
//   - Catalog：按（平均评分 desc，评论数 desc，浏览数 desc）的规范热门序
//   - Store + Key：KV 有序集合 ZRange，或普通 key 的 JSON 数组（离线榜单）
//   - IDs：内存 fallback 列表
//
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Hot struct {
	Catalog core.CatalogStore
	Store   core.Store
	Key     string   // 存储 key，例如 "hot:books"
	IDs     []string // fallback 内存列表

	// TopK 返回的书数；<=0 时默认 100。
	TopK int
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	// 优先走目录的规范热门序
	if r.Catalog != nil {
		books, err := r.Catalog.PopularBooks(ctx, topK)
		if err == nil && len(books) > 0 {
			out := make([]*core.Item, 0, len(books))
			for _, b := range books {
				if b == nil {
					continue
				}
				it := core.NewItem(b.ID)
				it.Score = b.AverageRating
				it.Meta["category"] = b.Category
				it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
				out = append(out, it)
			}
			return out, nil
		}
	}

	var ids []string

	// 其次从 Store 读取（支持 ZRange 或普通 Get）
	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kvStore.ZRange(ctx, r.Key, 0, int64(topK)-1)
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：使用内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}
	if len(ids) > topK {
		ids = ids[:topK]
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
