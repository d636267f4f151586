// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式解释器。
// 用于 filter.RuleFilter 等策略节点对 item/label/rctx 做布尔判定。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的规则表达式，可被并发复用。
// 规则在构造时编译一次（配置错误在初始化期暴露），之后每个 item 只做求值。
type Program struct {
	prg cel.Program
}

// Compile 编译 CEL 表达式。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "hot" / item.score > 0.7
//   - 逻辑：item.meta.category == "manga" && item.score > 0.5
//   - 存在性：label.recall_source != null
//   - 包含："hot" in label.recall_source 或 label.recall_source.contains("hot")
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{prg: prg}, nil
}

// Evaluate 对单个 item 求值，返回布尔结果。
// 访问不存在的 key 时 CEL 会报错；规则请使用 `label.key != null` 做存在性判断。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	labelAccessor := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]interface{}{"value": v.Value, "source": v.Source}
		// label.recall_source 直接返回 value，兼容简写
		labelAccessor[k] = v.Value
	}

	item := map[string]interface{}{
		"id":     it.ID,
		"score":  it.Score,
		"meta":   it.Meta,
		"labels": labels,
	}

	rc := map[string]interface{}{}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["scene"] = rctx.Scene
		rc["seed_book_id"] = rctx.SeedBookID
		rc["params"] = rctx.Params
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rc,
	}
}
