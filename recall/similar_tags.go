package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// SimilarTags 是基于共享标签的相似书召回源（内容召回的轻量替代）。
// 不做任何向量化：候选书按与种子书共享的标签数排序，
// 标签数相同按平均评分降序。种子书自身不在结果中。
type SimilarTags struct {
	Catalog core.CatalogStore

	// TopK 最终返回的书数；<=0 时默认 20。
	TopK int
}

func (r *SimilarTags) Name() string {
	return "recall.similar_tags"
}

func (r *SimilarTags) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.SeedBookID == "" {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	books, err := r.Catalog.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	var seedTags map[string]struct{}
	for _, b := range books {
		if b != nil && b.ID == rctx.SeedBookID {
			seedTags = make(map[string]struct{}, len(b.TagIDs))
			for _, t := range b.TagIDs {
				seedTags[t] = struct{}{}
			}
			break
		}
	}
	if len(seedTags) == 0 {
		// 种子书不存在或没有标签：无从比较
		return nil, nil
	}

	type candidate struct {
		book   *core.Book
		shared int
	}
	candidates := make([]candidate, 0)
	for _, b := range books {
		if b == nil || b.ID == "" || b.ID == rctx.SeedBookID {
			continue
		}
		shared := 0
		for _, t := range b.TagIDs {
			if _, ok := seedTags[t]; ok {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, candidate{book: b, shared: shared})
		}
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
		it.PutLabel("recall_source", utils.Label{Value: "similar_tags", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
