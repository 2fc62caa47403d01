package models

import "fmt"

// Follow is a directed edge: User follows Author. The composite unique index
// keeps at most one row per pair.
type Follow struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_follow_user_author" json:"userId"`
	User     User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	AuthorID uint `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"authorId"`
	Author   User `gorm:"constraint:OnDelete:CASCADE" json:"author"`
}

func (f Follow) String() string {
	return fmt.Sprintf("%s follows %s", f.User.Username, f.Author.Username)
}
