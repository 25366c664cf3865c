package notes

import "github.com/google/uuid"

// Note 笔记
type Note struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// ChangeKind 变更类型
type ChangeKind string

const (
	Created ChangeKind = "created"
	Deleted ChangeKind = "deleted"
)

// Change 一次已提交的写操作
type Change struct {
	Kind ChangeKind
	Note Note
}

// Observer 在写锁内被调用，不得阻塞，也不得回调 Store
type Observer func(Change)

// Store 笔记存储
type Store interface {
	List() []Note
	// View 在读锁内以快照调用 fn，期间不会有写操作提交；fn 不得阻塞，也不得回调 Store
	View(fn func([]Note))
	Create(text string) Note
	Delete(id uuid.UUID) bool
	Len() int
}
