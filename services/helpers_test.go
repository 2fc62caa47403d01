package services

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yatube/database"
	"yatube/messaging"
	"yatube/metrics"
	"yatube/models"
	"yatube/storage"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type fixture struct {
	db      *gorm.DB
	events  *messaging.Recorder
	metrics *metrics.Metrics
	media   *storage.Local
	content *ContentService
	follows *FollowService
	users   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := database.NewTestDB(t)
	f := &fixture{
		db:      db,
		events:  &messaging.Recorder{},
		metrics: metrics.New(),
		media:   storage.NewLocal(t.TempDir()),
	}
	f.content = NewContentService(db, f.media, f.events, f.metrics, log)
	f.follows = NewFollowService(db, nil, f.events, f.metrics, log)
	f.users = NewUserService(db, log)
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "-"}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := models.Group{Title: "Group " + slug, Slug: slug, Description: "About " + slug}
	require.NoError(t, f.db.Create(&g).Error)
	return &g
}

func (f *fixture) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

func (f *fixture) countPosts(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Post{}).Count(&n).Error)
	return n
}

func (f *fixture) countFollows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&n).Error)
	return n
}

func upload(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := httptest.NewRequest("POST", "/", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))
	return r.MultipartForm.File["image"][0]
}
