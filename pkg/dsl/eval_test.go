package dsl

import (
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func TestCompile(t *testing.T) {
	cases := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"score comparison", `item.score > 0.5`, false},
		{"label shortcut", `label.recall_source == "hot"`, false},
		{"rctx access", `rctx.scene == "homepage"`, false},
		{"syntax error", `item.score >`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.expr)
			if (err != nil) != tc.wantErr {
				t.Errorf("Compile(%q) error = %v, wantErr %v", tc.expr, err, tc.wantErr)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	it := core.NewItem("b1")
	it.Score = 4.2
	it.Meta["category"] = "manga"
	it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "u1", Scene: "homepage"}

	cases := []struct {
		name string
		expr string
		want bool
	}{
		{"score true", `item.score > 4.0`, true},
		{"score false", `item.score > 5.0`, false},
		{"label shortcut", `label.recall_source == "hot"`, true},
		{"label long form", `item.labels.recall_source.value == "hot"`, true},
		{"meta", `item.meta.category == "manga"`, true},
		{"rctx", `rctx.scene == "homepage" && rctx.user_id == "u1"`, true},
		{"combined", `label.recall_source == "hot" && item.score < 3.0`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prg, err := Compile(tc.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tc.expr, err)
			}
			got, err := prg.Evaluate(it, rctx)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluate_MissingKey(t *testing.T) {
	prg, err := Compile(`label.nonexistent == "x"`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := prg.Evaluate(core.NewItem("b1"), nil); err == nil {
		t.Error("Evaluate(missing key) succeeded, want error")
	}
}

func TestEvaluate_NonBoolean(t *testing.T) {
	prg, err := Compile(`item.score`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := prg.Evaluate(core.NewItem("b1"), nil); err == nil {
		t.Error("Evaluate(non-boolean expression) succeeded, want error")
	}
}
