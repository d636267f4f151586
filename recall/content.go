package recall

import (
	"context"
	"strings"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/tfidf"
	"github.com/rushteam/bookrec/pkg/utils"
)

// BuildContentIndex 为全量书目拟合 TF-IDF 索引。
// 每本书的文档由标题、本地化标题、两份简介、类型与标签名顺序拼接并小写化；
// 没有简介/标签的书也会产出一篇（可能很短的）文档。
// 空书目返回 nil，表示索引处于未初始化状态。
func BuildContentIndex(books []*core.Book, v *tfidf.Vectorizer) *tfidf.Index {
	if len(books) == 0 {
		return nil
	}
	if v == nil {
		v = &tfidf.Vectorizer{}
	}

	ids := make([]string, 0, len(books))
	docs := make([]string, 0, len(books))
	for _, b := range books {
		if b == nil || b.ID == "" {
			continue
		}
		parts := make([]string, 0, 6)
		for _, s := range []string{
			b.Title, b.TitleLocal, b.Description, b.DescLocal, b.Category,
			strings.Join(b.TagNames, " "),
		} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		ids = append(ids, b.ID)
		docs = append(docs, strings.ToLower(strings.Join(parts, " ")))
	}
	return v.Fit(ids, docs)
}

// ContentRecall 是基于内容的召回源（TF-IDF + 余弦相似度）。
//
// 核心思想："和种子书共享显著词汇/标签的书，内容上相似"
//
// 工程特征：
//  - 实时性：好（索引离线/启动时拟合，在线只查）
//  - 冷启动：好（新书只要有文本就能被召回）
//  - 个性化：无（只看种子书，不看用户）
//
// Index 返回当前索引快照；快照由 service 层在重建时原子替换，
// 本召回源在单次调用内只读同一个快照，天然并发安全。
type ContentRecall struct {
	// Index 提供当前的 TF-IDF 索引快照；返回 nil 表示尚未初始化。
	Index func() *tfidf.Index

	// TopK 返回 TopK 个物品
	TopK int
}

func (r *ContentRecall) Name() string {
	return "recall.content"
}

func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || rctx == nil || rctx.SeedBookID == "" {
		return nil, nil
	}
	idx := r.Index()
	if idx.Len() == 0 {
		// 未初始化/空语料是预期的冷启动状态，不是错误
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	scored := idx.Similar(rctx.SeedBookID, topK)
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
