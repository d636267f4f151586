package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持 UUID 等所有 ID 格式）
	Scene  string

	// SeedBookID 是内容相似召回的种子书；为空表示无种子（纯协同/个性化路径）。
	SeedBookID string

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、重度用户等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（limit 之外的调参入口）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
