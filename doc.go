// Package bookrec 是书目/书评站的混合推荐引擎（Book Recommender Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - Snapshot-first: 内容索引与交互矩阵都是不可变快照，重建后原子替换，无跨请求锁
//
// 三路打分算法（内容 TF-IDF、用户邻域 KNN、隐因子 SVD/MF）由 service.Recommender
// 按固定权重混合；无任何个性化信号时退到热门兜底。
package bookrec

import "github.com/rushteam/bookrec/pipeline"

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
