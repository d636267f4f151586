// Package service 提供推荐引擎的对外门面（facade）。
//
// Recommender 组合各召回源，向 web/API 层暴露五类操作：
// Initialize / ContentBased / Collaborative / Hybrid / Personalized，
// 外加 Popular 与 SimilarByTags 两个便捷查询。
// 所有操作返回按分数降序的 []*core.Item；拼装完整书目详情是调用方的职责。
//
// 并发模型：内容索引是不可变快照，重建完成后整体原子替换（swap-on-complete）；
// 交互矩阵按调用粒度重建，过程内只读。引擎可被多请求并发调用，无跨请求锁。
// Hybrid/Collaborative 内含 CPU 密集的训练/分解，调用方应把它们当作
// 可能较慢的同步操作对待。
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/tfidf"
	"github.com/rushteam/bookrec/recall"
)

// Method 是协同过滤的算法选择。
type Method string

const (
	MethodKNN Method = "knn" // 用户邻域 + Pearson 相关
	MethodSVD Method = "svd" // 截断 SVD 重构
	MethodMF  Method = "mf"  // 梯度下降矩阵分解
)

// 混合加权的固定权重与默认超参数。
const (
	weightContent = 0.3
	weightKNN     = 0.4
	weightSVD     = 0.3

	// ratingScale 把 KNN/SVD 的预测评分归一到 [0,1] 再加权
	ratingScale = 5.0

	defaultK       = 5
	defaultFactors = 10
	defaultLimit   = 10
)

// Params 是协同过滤的超参数；零值字段使用默认值。
type Params struct {
	K            int     // KNN 邻居数
	MinCommon    int     // KNN 最少共同书数
	Factors      int     // SVD/MF 隐因子数
	Epochs       int     // MF 训练轮数
	LearningRate float64 // MF 学习率
	Reg          float64 // MF L2 正则强度
	Seed         int64   // MF 随机种子；0 表示不固定
}

// validate 在初始化期暴露 malformed 超参数；请求期不再校验。
func (p Params) validate() error {
	if p.K < 0 || p.MinCommon < 0 || p.Factors < 0 || p.Epochs < 0 {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: negative hyperparameter")
	}
	if p.LearningRate < 0 || p.Reg < 0 {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: negative learning rate or regularization")
	}
	return nil
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithLogger 指定日志器；默认使用 logrus 标准实例。
func WithLogger(log *logrus.Logger) Option {
	return func(r *Recommender) { r.log = log }
}

// WithVectorizer 指定 TF-IDF 拟合配置（词表上界、n-gram、停用词）。
func WithVectorizer(v *tfidf.Vectorizer) Option {
	return func(r *Recommender) { r.vectorizer = v }
}

// WithParams 指定协同过滤的默认超参数。
func WithParams(p Params) Option {
	return func(r *Recommender) { r.params = p }
}

// Recommender 是推荐引擎门面。
type Recommender struct {
	catalog    core.CatalogStore
	log        *logrus.Logger
	vectorizer *tfidf.Vectorizer
	params     Params

	index    atomic.Pointer[tfidf.Index]
	initOnce sync.Once // 惰性初始化只触发一次；显式 Initialize 可重复调用
}

// NewRecommender 创建引擎门面。配置错误（malformed 超参数）在这里失败，
// 请求期的各 Recommend 操作不会再因配置报错。
func NewRecommender(catalog core.CatalogStore, opts ...Option) (*Recommender, error) {
	if catalog == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: nil catalog store")
	}
	r := &Recommender{
		catalog:    catalog,
		log:        logrus.StandardLogger(),
		vectorizer: &tfidf.Vectorizer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.params.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Initialize 重建内容索引并原子替换当前快照。
// 幂等：底层数据不变时，两次重建得到完全一致的排序结果。
// 空书目不报错，索引保持未初始化状态，由各查询操作降级为空。
func (r *Recommender) Initialize(ctx context.Context) error {
	books, err := r.catalog.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("initialize: list books: %w", err)
	}
	idx := recall.BuildContentIndex(books, r.vectorizer)
	r.index.Store(idx)
	r.log.WithField("books", idx.Len()).Info("content index rebuilt")
	return nil
}

// ensureIndex 惰性初始化：首次用到内容索引时拟合一次。
func (r *Recommender) ensureIndex(ctx context.Context) {
	if r.index.Load().Len() > 0 {
		return
	}
	r.initOnce.Do(func() {
		if err := r.Initialize(ctx); err != nil {
			r.log.WithError(err).Warn("lazy content index build failed")
		}
	})
}

// currentIndex 返回当前索引快照（可能为 nil）。
func (r *Recommender) currentIndex() *tfidf.Index {
	return r.index.Load()
}

// ContentBased 返回与 bookID 内容最相似的 limit 本书。
// bookID 不在索引中（未知或索引过期）时返回空。
func (r *Recommender) ContentBased(ctx context.Context, bookID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	r.ensureIndex(ctx)

	src := &recall.ContentRecall{Index: r.currentIndex, TopK: limit}
	return src.Recall(ctx, &core.RecommendContext{SeedBookID: bookID})
}

// Collaborative 返回协同过滤推荐，method 选择 knn/svd/mf。
// 目标用户没有任何交互信号时返回空，不报错。
func (r *Recommender) Collaborative(ctx context.Context, userID string, method Method, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rctx := &core.RecommendContext{UserID: userID}

	switch method {
	case MethodSVD:
		src := &recall.SVDRecall{
			Catalog: r.catalog,
			Factors: orDefault(r.params.Factors, defaultFactors),
			TopK:    limit,
		}
		return src.Recall(ctx, rctx)
	case MethodMF:
		src := &recall.MFRecall{
			Catalog:      r.catalog,
			Factors:      orDefault(r.params.Factors, defaultFactors),
			Epochs:       r.params.Epochs,
			LearningRate: r.params.LearningRate,
			Reg:          r.params.Reg,
			Seed:         r.params.Seed,
			TopK:         limit,
		}
		return src.Recall(ctx, rctx)
	case MethodKNN, "":
		src := &recall.KNNRecall{
			Catalog:   r.catalog,
			K:         orDefault(r.params.K, defaultK),
			MinCommon: r.params.MinCommon,
			TopK:      limit,
		}
		return src.Recall(ctx, rctx)
	default:
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotSupported,
			fmt.Sprintf("service: unknown collaborative method %q", method))
	}
}

// Hybrid 返回混合推荐：内容 0.3 + KNN 0.4 + SVD 0.3。
//
// 流程：
//  1. 有种子书时取 2×limit 条内容相似，累加 similarity × 0.3
//  2. 取 2×limit 条 KNN 预测，累加 (pred/5) × 0.4
//  3. 取 2×limit 条 SVD 预测，累加 (pred/5) × 0.3
//  4. 按累计分降序截断 limit
//  5. 三路全空 → 热门兜底
//
// 三个子召回并发执行；单路失败只影响自身权重，不影响整体调用。
func (r *Recommender) Hybrid(ctx context.Context, userID, seedBookID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	r.ensureIndex(ctx)

	// 一次构建矩阵快照，KNN 与 SVD 共享，保证两路看到同一份数据
	snapshot, err := cf.BuildFromStore(ctx, r.catalog)
	if err != nil {
		r.log.WithError(err).Warn("hybrid: interaction matrix build failed")
		snapshot = nil
	}

	fetch := limit * 2
	var contentItems, knnItems, svdItems []*core.Item
	eg, egCtx := errgroup.WithContext(ctx)

	if seedBookID != "" {
		eg.Go(func() error {
			src := &recall.ContentRecall{Index: r.currentIndex, TopK: fetch}
			items, err := src.Recall(egCtx, &core.RecommendContext{SeedBookID: seedBookID})
			if err != nil {
				r.log.WithError(err).Warn("hybrid: content scorer degraded")
				return nil
			}
			contentItems = items
			return nil
		})
	}
	eg.Go(func() error {
		src := &recall.KNNRecall{
			Snapshot:  snapshot,
			K:         orDefault(r.params.K, defaultK),
			MinCommon: r.params.MinCommon,
			TopK:      fetch,
		}
		items, err := src.Recall(egCtx, &core.RecommendContext{UserID: userID})
		if err != nil {
			r.log.WithError(err).Warn("hybrid: knn scorer degraded")
			return nil
		}
		knnItems = items
		return nil
	})
	eg.Go(func() error {
		src := &recall.SVDRecall{
			Snapshot: snapshot,
			Factors:  orDefault(r.params.Factors, defaultFactors),
			TopK:     fetch,
		}
		items, err := src.Recall(egCtx, &core.RecommendContext{UserID: userID})
		if err != nil {
			r.log.WithError(err).Warn("hybrid: svd scorer degraded")
			return nil
		}
		svdItems = items
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按 ID 累加各路加权分；首次出现顺序作为数值并列时的稳定序
	acc := make(map[string]*core.Item)
	order := make([]string, 0)
	add := func(items []*core.Item, weight, scale float64) {
		for _, in := range items {
			if in == nil {
				continue
			}
			it, ok := acc[in.ID]
			if !ok {
				it = core.NewItem(in.ID)
				acc[in.ID] = it
				order = append(order, in.ID)
			}
			it.Score += in.Score / scale * weight
			for k, v := range in.Labels {
				it.PutLabel(k, v)
			}
		}
	}
	add(contentItems, weightContent, 1)
	add(knnItems, weightKNN, ratingScale)
	add(svdItems, weightSVD, ratingScale)

	if len(order) == 0 {
		// 没有任何个性化信号：热门兜底
		return r.Popular(ctx, limit)
	}

	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		out = append(out, acc[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Personalized 返回基于标签偏好的个性化推荐；
// 无偏好或无候选时退到热门兜底。
func (r *Recommender) Personalized(ctx context.Context, userID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	src := &recall.TagPrefRecall{Catalog: r.catalog, TopK: limit}
	items, err := src.Recall(ctx, &core.RecommendContext{UserID: userID})
	if err != nil {
		r.log.WithError(err).Warn("personalized: tag preference recall degraded")
		items = nil
	}
	if len(items) == 0 {
		return r.Popular(ctx, limit)
	}
	return items, nil
}

// Popular 返回冷启动兜底的热门书目，
// 严格按（平均评分 desc，评论数 desc，浏览数 desc）排序。
func (r *Recommender) Popular(ctx context.Context, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	src := &recall.Hot{Catalog: r.catalog, TopK: limit}
	return src.Recall(ctx, nil)
}

// SimilarByTags 返回与 bookID 共享标签最多的书（标签数并列时评分降序）。
func (r *Recommender) SimilarByTags(ctx context.Context, bookID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	src := &recall.SimilarTags{Catalog: r.catalog, TopK: limit}
	return src.Recall(ctx, &core.RecommendContext{SeedBookID: bookID})
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
