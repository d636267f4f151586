package recall

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// SVDRecall 是基于截断 SVD 的隐因子召回源。
//
// 核心思想：把交互矩阵分解为 U·Σ·Vᵀ，只保留前 k 个奇异值重构，
// 重构矩阵即为全量预测面；目标用户行上未交互列的值就是预测评分。
//
// 边界语义：
//  - 矩阵不足 2 用户 × 2 书 → 返回空
//  - k = min(factors, min(维度)-1) < 1 → 返回空
//  - 分解失败（奇异/条件数问题）→ 返回空，绝不向上抛
type SVDRecall struct {
	Catalog core.CatalogStore

	// Snapshot 可选：复用已构建的矩阵快照。
	Snapshot *cf.Matrix

	// Factors 隐因子个数；<=0 时默认 10。实际使用 min(Factors, min(维度)-1)。
	Factors int

	// TopK 最终返回的书数；<=0 时默认 20。
	TopK int
}

func (r *SVDRecall) Name() string {
	return "recall.svd"
}

func (r *SVDRecall) Recall(
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
	if m == nil || m.NumUsers() < 2 || m.NumBooks() < 2 {
		return nil, nil
	}

	row, ok := m.UserRow(rctx.UserID)
	if !ok {
		return nil, nil
	}

	factors := r.Factors
	if factors <= 0 {
		factors = 10
	}
	k := factors
	if minDim := min(m.NumUsers(), m.NumBooks()) - 1; k > minDim {
		k = minDim
	}
	if k < 1 {
		return nil, nil
	}

	predicted := truncatedSVD(m.Dense, k)
	if predicted == nil {
		// 数值失败视为"本召回源没有产出"，降级为空
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	// 只保留目标用户尚未交互的列
	out := make([]*core.Item, 0, m.NumBooks())
	for j := 0; j < m.NumBooks(); j++ {
		if m.Dense.At(row, j) > 0 {
			continue
		}
		it := core.NewItem(m.Books[j])
		it.Score = predicted.At(row, j)
		it.PutLabel("recall_source", utils.Label{Value: "svd", Source: "recall"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// truncatedSVD 对 a 做薄 SVD 并用前 k 个奇异值重构；分解失败返回 nil。
func truncatedSVD(a *mat.Dense, k int) *mat.Dense {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil
	}

	values := svd.Values(nil)
	if k > len(values) {
		k = len(values)
	}
	if k < 1 {
		return nil
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rows, cols := a.Dims()
	uk := u.Slice(0, rows, 0, k)
	vk := v.Slice(0, cols, 0, k)

	sigma := mat.NewDiagDense(k, values[:k])

	var us, out mat.Dense
	us.Mul(uk, sigma)
	out.Mul(&us, vk.T())
	return &out
}
