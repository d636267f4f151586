package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// KNNRecall 是基于用户的协同过滤召回源（User-based KNN, Pearson 相关）。
//
// 核心思想："兴趣相似的用户，喜欢相似的书"
//
// 算法流程：
//  1. 构建用户-书交互矩阵（评分 + 隐式权重合并）
//  2. 对每个与目标用户有 ≥MinCommon 本共同书的用户计算 Pearson 相关
//  3. 只保留正相关，取 TopK 个邻居
//  4. 对邻居读过而目标用户未读的书，按相似度加权平均预测评分
//
// 边界语义：
//  - 目标用户无行 → 返回空
//  - 没有合格邻居 → 返回空
//  - 任一侧零方差的用户对直接剔除（不产生 NaN/Inf）
type KNNRecall struct {
	Catalog core.CatalogStore

	// Snapshot 可选：复用已构建的矩阵快照（如 Hybrid 内共享一次构建）。
	// 为 nil 时每次调用从 Catalog 重建。
	Snapshot *cf.Matrix

	// K 邻居数；<=0 时默认 5。
	K int

	// MinCommon 计算相关所需的最少共同书数；<=0 时默认 2。
	MinCommon int

	// TopK 最终返回的书数；<=0 时默认 20。
	TopK int
}

func (r *KNNRecall) Name() string {
	return "recall.knn"
}

func (r *KNNRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	m := r.Snapshot
	if m == nil {
		if r.Catalog == nil {
			return nil, nil
		}
		var err error
		m, err = cf.BuildFromStore(ctx, r.Catalog)
		if err != nil {
			return nil, err
		}
	}
	if m == nil {
		return nil, nil
	}

	row, ok := m.UserRow(rctx.UserID)
	if !ok {
		return nil, nil
	}

	k := r.K
	if k <= 0 {
		k = 5
	}
	minCommon := r.MinCommon
	if minCommon <= 0 {
		minCommon = 2
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	nUsers, nBooks := m.NumUsers(), m.NumBooks()

	// 计算与目标用户的 Pearson 相关（只在共同非零列上）
	type neighbor struct {
		row int
		sim float64
	}
	neighbors := make([]neighbor, 0)
	for other := 0; other < nUsers; other++ {
		if other == row {
			continue // 跳过自己
		}
		var xs, ys []float64
		for j := 0; j < nBooks; j++ {
			x := m.Dense.At(row, j)
			y := m.Dense.At(other, j)
			if x > 0 && y > 0 {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		if len(xs) < minCommon {
			continue
		}
		sim := pearsonCorrelation(xs, ys)
		if sim > 0 { // 只保留正相关
			neighbors = append(neighbors, neighbor{row: other, sim: sim})
		}
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	sort.SliceStable(neighbors, func(i, j int) bool { return neighbors[i].sim > neighbors[j].sim })
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	// 对邻居读过且目标用户未读的书做相似度加权平均预测
	type pred struct {
		weightedSum   float64
		similaritySum float64
	}
	preds := make(map[int]*pred)
	order := make([]int, 0) // 保持插入顺序，数值并列时稳定
	for _, nb := range neighbors {
		for j := 0; j < nBooks; j++ {
			rating := m.Dense.At(nb.row, j)
			if rating <= 0 || m.Dense.At(row, j) > 0 {
				continue
			}
			p, ok := preds[j]
			if !ok {
				p = &pred{}
				preds[j] = p
				order = append(order, j)
			}
			p.weightedSum += rating * nb.sim
			p.similaritySum += nb.sim
		}
	}

	out := make([]*core.Item, 0, len(order))
	for _, j := range order {
		p := preds[j]
		if p.similaritySum <= 0 {
			continue
		}
		it := core.NewItem(m.Books[j])
		it.Score = p.weightedSum / p.similaritySum
		it.PutLabel("recall_source", utils.Label{Value: "knn", Source: "recall"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// pearsonCorrelation 计算皮尔逊相关系数；任一侧零方差时返回 0。
func pearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(len(x))
	meanY /= float64(len(y))

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
