// Package cf 提供协同过滤的用户-物品交互矩阵构建。
//
// 合并规则（每个 (user, book) 单元格）：
//   - 有显式评分 → 以评分为基底
//   - 无显式评分 → 以中性常数 3 为基底
//   - 每条隐式事件把权重加到基底上
//
// 即 score = rating + Σweight（有评分时）或 3 + Σweight（仅隐式信号时）。
// 单元格非零当且仅当该 (user, book) 至少存在一条事件；
// 完全没有事件的用户/书不会出现在索引里，而不是以零行存在。
package cf

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/core"
)

// implicitBase 是仅有隐式信号时的中性评分基底。
const implicitBase = 3.0

// Matrix 是一次构建得到的不可变交互矩阵快照。
// 行列下标在同一次构建内稳定：Users[i]/Books[j] 与 Dense 的第 i 行/第 j 列对齐。
type Matrix struct {
	Dense *mat.Dense // 用户 × 书，零值表示无交互
	Users []string   // 行号 -> userID
	Books []string   // 列号 -> bookID

	userIdx map[string]int
	bookIdx map[string]int
}

// UserRow 返回用户的行号；不存在时 ok=false。
func (m *Matrix) UserRow(userID string) (int, bool) {
	i, ok := m.userIdx[userID]
	return i, ok
}

// BookCol 返回书的列号；不存在时 ok=false。
func (m *Matrix) BookCol(bookID string) (int, bool) {
	j, ok := m.bookIdx[bookID]
	return j, ok
}

// NumUsers 返回矩阵行数。
func (m *Matrix) NumUsers() int { return len(m.Users) }

// NumBooks 返回矩阵列数。
func (m *Matrix) NumBooks() int { return len(m.Books) }

// Build 从事件快照构建交互矩阵。无事件时返回 nil（冷启动，由调用方兜底）。
// 行列按事件首次出现顺序分配下标；顺序无语义，但同一次构建内查找可往返。
func Build(events []*core.InteractionEvent) *Matrix {
	if len(events) == 0 {
		return nil
	}

	m := &Matrix{
		userIdx: make(map[string]int),
		bookIdx: make(map[string]int),
	}
	for _, ev := range events {
		if ev == nil || ev.UserID == "" || ev.BookID == "" {
			continue
		}
		if _, ok := m.userIdx[ev.UserID]; !ok {
			m.userIdx[ev.UserID] = len(m.Users)
			m.Users = append(m.Users, ev.UserID)
		}
		if _, ok := m.bookIdx[ev.BookID]; !ok {
			m.bookIdx[ev.BookID] = len(m.Books)
			m.Books = append(m.Books, ev.BookID)
		}
	}
	if len(m.Users) == 0 || len(m.Books) == 0 {
		return nil
	}

	m.Dense = mat.NewDense(len(m.Users), len(m.Books), nil)

	// 第一遍：显式评分作为基底
	for _, ev := range events {
		if ev == nil || ev.Kind != core.EventRating || ev.Value <= 0 {
			continue
		}
		i, ok := m.userIdx[ev.UserID]
		if !ok {
			continue
		}
		j := m.bookIdx[ev.BookID]
		m.Dense.Set(i, j, ev.Value)
	}

	// 第二遍：隐式权重累加；无评分基底的单元格先落中性基底
	for _, ev := range events {
		if ev == nil || ev.Kind != core.EventInteraction {
			continue
		}
		i, ok := m.userIdx[ev.UserID]
		if !ok {
			continue
		}
		j := m.bookIdx[ev.BookID]
		cur := m.Dense.At(i, j)
		if cur == 0 {
			m.Dense.Set(i, j, implicitBase+ev.Value)
		} else {
			m.Dense.Set(i, j, cur+ev.Value)
		}
	}

	return m
}

// BuildFromStore 读取事件快照并构建矩阵，是召回源的统一入口。
func BuildFromStore(ctx context.Context, catalog core.CatalogStore) (*Matrix, error) {
	events, err := catalog.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return Build(events), nil
}
