package recall

import (
	"context"
	"math/rand"
	"sort"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// MFRecall 是梯度下降矩阵分解（FunkSVD 风格）的隐因子召回源，
// 与 SVDRecall 互为可替换实现：SVD 走线性代数分解，MF 走迭代学习。
//
// 训练规则：只在已知（非零）单元格上迭代，正则化 delta 更新：
//
//	e     = r - p·q
//	p    += lr * (e*q - reg*p)
//	q    += lr * (e*p - reg*q)
//
// 预测分数 = 用户因子向量 · 书因子向量。
//
// 可复现性：因子随机初始化，只有固定 Seed 时两次训练结果才一致；
// 测试必须显式设置 Seed。
type MFRecall struct {
	Catalog core.CatalogStore

	// Snapshot 可选：复用已构建的矩阵快照。
	Snapshot *cf.Matrix

	// Factors 隐因子个数；<=0 时默认 10。
	Factors int

	// Epochs 训练轮数；<=0 时默认 50。
	Epochs int

	// LearningRate 学习率；<=0 时默认 0.01。
	LearningRate float64

	// Reg L2 正则强度；<=0 时默认 0.02。
	Reg float64

	// Seed 随机种子；0 表示不固定（每次训练结果不同）。
	Seed int64

	// TopK 最终返回的书数；<=0 时默认 20。
	TopK int
}

func (r *MFRecall) Name() string {
	return "recall.mf"
}

func (r *MFRecall) Recall(
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
	epochs := r.Epochs
	if epochs <= 0 {
		epochs = 50
	}
	lr := r.LearningRate
	if lr <= 0 {
		lr = 0.01
	}
	reg := r.Reg
	if reg <= 0 {
		reg = 0.02
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	userFactors, bookFactors := r.train(m, factors, epochs, lr, reg)

	out := make([]*core.Item, 0, m.NumBooks())
	for j := 0; j < m.NumBooks(); j++ {
		if m.Dense.At(row, j) > 0 {
			continue
		}
		it := core.NewItem(m.Books[j])
		it.Score = dot(userFactors[row], bookFactors[j])
		it.PutLabel("recall_source", utils.Label{Value: "mf", Source: "recall"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// train 执行梯度下降训练，返回用户/书因子矩阵。
func (r *MFRecall) train(m *cf.Matrix, factors, epochs int, lr, reg float64) ([][]float64, [][]float64) {
	rng := rand.New(rand.NewSource(r.Seed))
	if r.Seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	nUsers, nBooks := m.NumUsers(), m.NumBooks()
	userFactors := make([][]float64, nUsers)
	bookFactors := make([][]float64, nBooks)
	for i := range userFactors {
		userFactors[i] = smallRandomVector(rng, factors)
	}
	for j := range bookFactors {
		bookFactors[j] = smallRandomVector(rng, factors)
	}

	// 已知单元格的坐标只收集一次，训练循环里不再扫全矩阵
	type cell struct {
		i, j int
		r    float64
	}
	known := make([]cell, 0)
	for i := 0; i < nUsers; i++ {
		for j := 0; j < nBooks; j++ {
			if v := m.Dense.At(i, j); v > 0 {
				known = append(known, cell{i: i, j: j, r: v})
			}
		}
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for _, c := range known {
			p, q := userFactors[c.i], bookFactors[c.j]
			e := c.r - dot(p, q)
			for f := 0; f < factors; f++ {
				pf, qf := p[f], q[f]
				p[f] += lr * (e*qf - reg*pf)
				q[f] += lr * (e*pf - reg*qf)
			}
		}
	}
	return userFactors, bookFactors
}

func smallRandomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64() * 0.1
	}
	return v
}

// dot 计算两个向量的点积。
func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
