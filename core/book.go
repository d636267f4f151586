package core

// Book 是目录中的一本书（或漫画/小说），推荐引擎只读不写。
// 文本字段 + 标签名用于内容索引；统计字段用于热门兜底排序。
type Book struct {
	ID            string
	Title         string
	TitleLocal    string // 本地化标题（如泰文/中文译名）
	Description   string
	DescLocal     string
	Category      string // 作品类型：manga / novel / manhwa ...
	TagIDs        []string
	TagNames      []string
	AverageRating float64
	ReviewCount   int64
	ViewCount     int64
}

// EventKind 区分显式评分与隐式行为信号。
type EventKind string

const (
	// EventRating 是显式评分事件，Value 为 1~5 的评分。
	EventRating EventKind = "rating"
	// EventInteraction 是隐式行为事件（浏览/点击/收藏），Value 为行为权重。
	EventInteraction EventKind = "interaction"
)

// InteractionEvent 是用户-书交互事件的快照记录。
// 引擎只读取事件快照；事件的写入与留存由 web 层负责。
type InteractionEvent struct {
	UserID string
	BookID string
	Kind   EventKind
	Value  float64
}

// TagPreference 是用户对某个标签的累计偏好权重（按交互权重求和）。
type TagPreference struct {
	TagID  string
	Weight float64
}
