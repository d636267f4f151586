package filter

import (
	"context"
	"sync"

	"github.com/rushteam/bookrec/core"
)

// SeenFilter 过滤掉用户已经交互/评论/收藏过的书。
// 个性化路径（tag_pref 之外的召回源）通常都要挂上它，
// 避免把用户读过的书再推一遍。
//
// 已读集合在一次 Pipeline 内只从 Catalog 读一次（惰性），
// 同一请求内的多次 ShouldFilter 复用同一份快照。
type SeenFilter struct {
	Catalog core.CatalogStore

	mu     sync.Mutex
	cached map[string]map[string]struct{} // userID -> 已读集合
}

// NewSeenFilter 创建一个已读过滤器。
func NewSeenFilter(catalog core.CatalogStore) *SeenFilter {
	return &SeenFilter{Catalog: catalog}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Catalog == nil || rctx == nil || rctx.UserID == "" || item == nil {
		return false, nil
	}

	seen, err := f.seenFor(ctx, rctx.UserID)
	if err != nil {
		// 读不到已读集合时放行，宁多推不误杀
		return false, nil
	}
	_, ok := seen[item.ID]
	return ok, nil
}

func (f *SeenFilter) seenFor(ctx context.Context, userID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		f.cached = make(map[string]map[string]struct{})
	}
	if seen, ok := f.cached[userID]; ok {
		return seen, nil
	}
	seen, err := f.Catalog.SeenBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	f.cached[userID] = seen
	return seen, nil
}

// Reset 清空已读缓存；快照重建后由上层调用。
func (f *SeenFilter) Reset() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}
