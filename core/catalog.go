package core

import "context"

// CatalogStore 是推荐引擎对外部数据的唯一依赖边界。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎按调用/初始化粒度读取一次快照，过程内不再回源
//   - 快照之间的数据陈旧是可接受的，由下一次重建消化
//
// 实现：
//   - store.MemoryCatalog（内存，测试/原型）
//   - store.KVCatalog（基于 core.Store 的 JSON 快照，可落 Redis）
//   - 业务方也可以直接用数据库实现此接口
type CatalogStore interface {
	// ListBooks 返回全量书目（含文本字段、标签、统计），用于内容索引与热门兜底。
	ListBooks(ctx context.Context) ([]*Book, error)

	// ListEvents 返回全量评分/交互事件快照，用于构建用户-物品矩阵。
	ListEvents(ctx context.Context) ([]*InteractionEvent, error)

	// PopularBooks 按（平均评分 desc，评论数 desc，浏览数 desc）返回热门书目。
	PopularBooks(ctx context.Context, limit int) ([]*Book, error)

	// TagPreferences 返回用户按交互权重聚合的标签偏好，降序。
	TagPreferences(ctx context.Context, userID string) ([]TagPreference, error)

	// SeenBooks 返回用户已交互/评论/收藏过的书 ID 集合，用于个性化路径排除。
	SeenBooks(ctx context.Context, userID string) (map[string]struct{}, error)
}
