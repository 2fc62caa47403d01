package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yatube/config"
	"yatube/models"
)

func TestConnectMigratesSchema(t *testing.T) {
	db := NewTestDB(t)
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T table missing", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follow_user_author"))
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle", URL: "x"}, nil)
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestFollowPairIsUnique(t *testing.T) {
	db := NewTestDB(t)
	a := models.User{Username: "a", PasswordHash: "x"}
	b := models.User{Username: "b", PasswordHash: "x"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, db.Create(&models.Follow{UserID: a.ID, AuthorID: b.ID}).Error)
	err := db.Create(&models.Follow{UserID: a.ID, AuthorID: b.ID}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestPubDateIsAssigned(t *testing.T) {
	db := NewTestDB(t)
	u := models.User{Username: "author", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	p := models.Post{Text: "hello", AuthorID: u.ID}
	require.NoError(t, db.Create(&p).Error)
	assert.False(t, p.PubDate.IsZero())
}
