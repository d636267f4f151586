package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式对每个 item 求值，结果为 true 的 item 被过滤掉。
//
// 示例：
//   - `item.meta.category == "novel"` → 过滤掉所有小说
//   - `label.recall_source == "hot" && item.score < 3.0` → 过滤低分热门
//
// 表达式在构造时编译一次；malformed 规则在初始化期报错（fatal），
// 而不是在每个请求里反复失败。
type RuleFilter struct {
	expr string
	prg  *dsl.Program
}

// NewRuleFilter 编译规则表达式并创建过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	if expr == "" {
		return nil, fmt.Errorf("rule filter: empty expression")
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("rule filter: %w", err)
	}
	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	matched, err := f.prg.Evaluate(item, rctx)
	if err != nil {
		// 单个 item 求值失败（如访问不存在的 key）时保留该 item
		return false, nil
	}
	return matched, nil
}
