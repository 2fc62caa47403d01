package messaging

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/models"
)

func TestNATSPublishesJSON(t *testing.T) {
	srv := natsserver.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	pub, err := Connect(srv.ClientURL(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	received := make(chan []byte, 1)
	sub, err := pub.Subscribe("yatube.post.*", func(subject string, data []byte) {
		if subject == SubjectPostCreated {
			received <- data
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	require.NoError(t, pub.conn.Flush())

	post := models.Post{ID: 3, Text: "hello", AuthorID: 1, Author: models.User{Username: "leo"}, PubDate: time.Now()}
	require.NoError(t, pub.Publish(SubjectPostCreated, NewPostEvent(post)))

	select {
	case data := <-received:
		var ev PostEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, uint(3), ev.PostID)
		assert.Equal(t, "leo", ev.Author)
		assert.Equal(t, "hello", ev.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for NATS message")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(SubjectFollowCreated, FollowEvent{Follower: "a", Author: "b"}))
	require.NoError(t, r.Publish(SubjectFollowDeleted, FollowEvent{Follower: "a", Author: "b"}))

	assert.Equal(t, []string{SubjectFollowCreated, SubjectFollowDeleted}, r.Subjects())
	assert.Equal(t, FollowEvent{Follower: "a", Author: "b"}, r.Events()[0].Event)
	assert.NoError(t, Noop{}.Publish("x", nil))
}
