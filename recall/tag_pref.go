package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// TagPrefRecall 是基于标签偏好的个性化召回源。
//
// 用于"无种子书、也可能无评分信号"的个性化路径：
//  1. 取用户按交互权重聚合的标签偏好，保留 TopTags 个标签
//  2. 候选 = 含任一偏好标签、且用户没交互/评论/收藏过的书
//  3. 按（共享标签数 desc，平均评分 desc）排序
//
// 没有偏好或没有候选时返回空，由上层退到热门兜底。
type TagPrefRecall struct {
	Catalog core.CatalogStore

	// TopTags 参与匹配的偏好标签数；<=0 时默认 5。
	TopTags int

	// TopK 最终返回的书数；<=0 时默认 20。
	TopK int
}

func (r *TagPrefRecall) Name() string {
	return "recall.tag_pref"
}

func (r *TagPrefRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	topTags := r.TopTags
	if topTags <= 0 {
		topTags = 5
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	prefs, err := r.Catalog.TagPreferences(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, nil
	}
	// Catalog 保证降序，这里仍兜底排一次，避免实现差异
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Weight > prefs[j].Weight })
	if len(prefs) > topTags {
		prefs = prefs[:topTags]
	}
	preferred := make(map[string]struct{}, len(prefs))
	for _, p := range prefs {
		preferred[p.TagID] = struct{}{}
	}

	seen, err := r.Catalog.SeenBooks(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	books, err := r.Catalog.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		book   *core.Book
		shared int
	}
	candidates := make([]candidate, 0)
	for _, b := range books {
		if b == nil || b.ID == "" {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		shared := 0
		for _, tagID := range b.TagIDs {
			if _, ok := preferred[tagID]; ok {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, candidate{book: b, shared: shared})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].shared != candidates[j].shared {
			return candidates[i].shared > candidates[j].shared
		}
		return candidates[i].book.AverageRating > candidates[j].book.AverageRating
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.book.ID)
		it.Score = float64(c.shared)
		it.Meta["category"] = c.book.Category
		it.PutLabel("recall_source", utils.Label{Value: "tag_pref", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
