package models

import "time"

// StrLimit is how many characters of text a Post or Comment shows as its string form.
const StrLimit = 15

type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pubDate"`
	AuthorID uint      `gorm:"not null;index" json:"authorId"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"groupId"`
	Group    *Group    `gorm:"constraint:OnDelete:SET NULL" json:"group"`
	Image    string    `gorm:"type:varchar(255)" json:"image"`
}

func (p Post) String() string {
	return truncate(p.Text, StrLimit)
}

// IsAuthoredBy reports whether user owns the post. A nil user never does.
func (p Post) IsAuthoredBy(user *User) bool {
	return user != nil && user.ID == p.AuthorID
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
