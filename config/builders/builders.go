// Package builders 注册内置 Node 的配置构建器。
// import _ "github.com/rushteam/bookrec/config/builders" 即可启用配置驱动的 Pipeline。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

func init() {
	config.Register("recall.hot", buildHotNode)
	config.Register("recall.fanout", buildFanoutNode)
	config.Register("rerank.topn", buildTopNNode)
	config.Register("rerank.diversity", buildDiversityNode)
	config.Register("filter", buildFilterNode)
}

func buildHotNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	return &recall.Hot{
		IDs:  ids,
		Key:  conv.ConfigGet[string](cfg, "key", ""),
		TopK: conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

func buildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		switch sourceType {
		case "hot":
			ids := conv.SliceAnyToString(sourceMap["ids"])
			if ids == nil {
				ids = []string{}
			}
			sources = append(sources, &recall.Hot{IDs: ids})
		default:
			// KNN/SVD/内容召回需要 CatalogStore 等运行期依赖，
			// 不支持纯配置构建，由业务代码直接组装
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet[string](cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func buildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	labelKey := conv.ConfigGet[string](cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}

func buildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet[string](filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["book_ids"])
			if ids == nil {
				ids = []string{}
			}
			filters = append(filters, &filter.BlacklistFilter{
				BookIDs: ids,
				Key:     conv.ConfigGet[string](filterMap, "key", ""),
			})

		case "rule":
			expr := conv.ConfigGet[string](filterMap, "expr", "")
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, err
			}
			filters = append(filters, rf)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}
