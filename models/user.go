package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(150)" json:"firstName"`
	LastName     string    `gorm:"type:varchar(150)" json:"lastName"`
	Email        string    `gorm:"type:varchar(254)" json:"email"`
	IsStaff      bool      `gorm:"default:false;not null" json:"isStaff"`
	DateJoined   time.Time `gorm:"autoCreateTime" json:"dateJoined"`
}

func (u User) String() string {
	return u.Username
}

// FullName falls back to the username when no name is set.
func (u User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
