package builders

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

func TestRegisteredTypes(t *testing.T) {
	factory := config.DefaultFactory()
	for _, typeName := range []string{
		"recall.hot", "recall.fanout", "rerank.topn", "rerank.diversity", "filter",
	} {
		cfg := map[string]interface{}{}
		switch typeName {
		case "recall.fanout":
			cfg["sources"] = []interface{}{
				map[string]interface{}{"type": "hot", "ids": []any{"a"}},
			}
		case "filter":
			cfg["filters"] = []interface{}{
				map[string]interface{}{"type": "blacklist", "book_ids": []any{"bad"}},
			}
		}
		if _, err := factory.Build(typeName, cfg); err != nil {
			t.Errorf("Build(%s) error = %v", typeName, err)
		}
	}
}

func TestConfigDrivenPipeline(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "homepage"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{
			Type: "recall.hot",
			Config: map[string]interface{}{
				"ids":   []any{"b1", "b2", "b3"},
				"top_k": 10,
			},
		},
		{
			Type: "filter",
			Config: map[string]interface{}{
				"filters": []interface{}{
					map[string]interface{}{"type": "blacklist", "book_ids": []any{"b2"}},
				},
			},
		},
		{
			Type:   "rerank.topn",
			Config: map[string]interface{}{"n": 1},
		},
	}

	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "b1" {
		t.Errorf("Run() = %v, want [b1]", out)
	}
}

func TestValidatePipelineConfig_Unknown(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "recall.quantum"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("ValidatePipelineConfig(unknown type) = nil, want error")
	}
}

func TestBuildFilterNode_RuleCompileError(t *testing.T) {
	factory := config.DefaultFactory()
	_, err := factory.Build("filter", map[string]interface{}{
		"filters": []interface{}{
			map[string]interface{}{"type": "rule", "expr": "item.score <"},
		},
	})
	if err == nil {
		t.Error("Build(filter with malformed rule) = nil, want compile error")
	}
}
