// Package tfidf 提供 TF-IDF 向量化与余弦相似度查询。
//
// 设计要点：
//   - Vectorizer 负责拟合：Fit(documents) → *Index
//   - Index 是不可变快照：拟合完成后只读，可被多个请求并发查询
//   - 词表有上界（MaxFeatures），按语料内文档频次截断，保证内存可控
//   - 英文停用词在分词阶段剔除
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenRegex 在包初始化时编译一次，用于切词。
var tokenRegex = regexp.MustCompile(`[^a-z0-9_]+`)

// Vectorizer 是 TF-IDF 拟合器的配置。零值可用（默认 5000 维词表，含停用词过滤）。
type Vectorizer struct {
	// MaxFeatures 词表上界；<=0 时取默认 5000。
	// 超出上界时按文档频次降序保留高频词（同频按字典序，保证两次拟合结果一致）。
	MaxFeatures int

	// NGram 为 2 时额外加入相邻词二元组（unigram+bigram）；其他值只用 unigram。
	NGram int

	// StopWords 自定义停用词；为 nil 时使用内置英文停用词表。
	StopWords map[string]struct{}
}

// Index 是拟合完成的 TF-IDF 索引，不可变。
// rows 与 docIDs 按拟合时传入的顺序对齐。
type Index struct {
	vocab  map[string]int      // term -> 列号
	idf    []float64           // 列号 -> idf
	rows   []map[int]float64   // 稀疏行向量（已 L2 归一化）
	rowIdx map[string]int      // docID -> 行号
	docIDs []string
}

// Fit 对语料拟合并返回不可变索引。空语料返回 nil（未初始化状态，由调用方兜底）。
// docIDs 与 documents 一一对应；重复 docID 时后者覆盖前者的行号映射。
func (v *Vectorizer) Fit(docIDs []string, documents []string) *Index {
	if len(documents) == 0 || len(documents) != len(docIDs) {
		return nil
	}

	stop := v.StopWords
	if stop == nil {
		stop = englishStopWords
	}

	tokenized := make([][]string, len(documents))
	df := make(map[string]int)
	for i, doc := range documents {
		tokens := v.tokenize(doc, stop)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocab := buildVocab(df, v.MaxFeatures)
	if len(vocab) == 0 {
		return nil
	}

	n := float64(len(documents))
	idf := make([]float64, len(vocab))
	for term, col := range vocab {
		// 平滑 idf：log((1+N)/(1+df)) + 1，保证全量出现的词仍有正权重
		idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	idx := &Index{
		vocab:  vocab,
		idf:    idf,
		rows:   make([]map[int]float64, len(documents)),
		rowIdx: make(map[string]int, len(documents)),
		docIDs: append([]string(nil), docIDs...),
	}
	for i, tokens := range tokenized {
		idx.rows[i] = idx.vectorize(tokens)
		idx.rowIdx[docIDs[i]] = i
	}
	return idx
}

// tokenize 切词：小写化、去停用词、去单字符词；NGram==2 时附加 bigram。
func (v *Vectorizer) tokenize(doc string, stop map[string]struct{}) []string {
	parts := tokenRegex.Split(strings.ToLower(doc), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) < 2 {
			continue
		}
		if _, ok := stop[p]; ok {
			continue
		}
		tokens = append(tokens, p)
	}
	if v.NGram == 2 {
		for i := 0; i+1 < len(tokens); i++ {
			tokens = append(tokens, tokens[i]+" "+tokens[i+1])
		}
	}
	return tokens
}

// vectorize 计算一行的 tf-idf 稀疏向量并做 L2 归一化。
func (idx *Index) vectorize(tokens []string) map[int]float64 {
	tf := make(map[int]float64)
	for _, t := range tokens {
		if col, ok := idx.vocab[t]; ok {
			tf[col]++
		}
	}
	if len(tf) == 0 {
		return tf
	}
	var norm float64
	for col, count := range tf {
		w := count * idx.idf[col]
		tf[col] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for col := range tf {
			tf[col] /= norm
		}
	}
	return tf
}

// Len 返回索引中的文档数。
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docIDs)
}

// Contains 判断 docID 是否在索引中。
func (idx *Index) Contains(docID string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.rowIdx[docID]
	return ok
}

// Scored 是 (docID, score) 输出单元。
type Scored struct {
	ID    string
	Score float64
}

// Similar 返回与 docID 余弦相似度最高的 limit 个文档。
// 语义与约束：
//   - docID 不在索引中 → 返回空（不报错，由调用方决定是否重建）
//   - 结果不包含 docID 自身
//   - 只保留相似度 > 0 的文档
//   - 相似度相同按行号稳定排序
func (idx *Index) Similar(docID string, limit int) []Scored {
	if idx == nil || limit <= 0 {
		return nil
	}
	row, ok := idx.rowIdx[docID]
	if !ok {
		return nil
	}
	target := idx.rows[row]

	out := make([]Scored, 0, limit)
	for i, other := range idx.rows {
		if i == row {
			continue
		}
		if sim := dotSparse(target, other); sim > 0 {
			out = append(out, Scored{ID: idx.docIDs[i], Score: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dotSparse 计算两个已归一化稀疏向量的点积（即余弦相似度）。
func dotSparse(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for col, va := range a {
		if vb, ok := b[col]; ok {
			dot += va * vb
		}
	}
	return dot
}

// buildVocab 按文档频次截断词表；同频按字典序，保证重复拟合得到相同列号分配。
func buildVocab(df map[string]int, maxFeatures int) map[string]int {
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	// 列号按字典序分配，与截断顺序解耦
	sort.Strings(terms)
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}
