package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/graph"
	"yatube/messaging"
	"yatube/models"
)

type fakeGraph struct {
	mu      sync.Mutex
	edges   map[[2]string]bool
	recs    []graph.Recommendation
	recErr  error
	lastFor string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{edges: map[[2]string]bool{}}
}

func (g *fakeGraph) AddFollow(_ context.Context, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[[2]string{from, to}] = true
	return nil
}

func (g *fakeGraph) RemoveFollow(_ context.Context, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, [2]string{from, to})
	return nil
}

func (g *fakeGraph) Recommend(_ context.Context, username string, _ int) ([]graph.Recommendation, error) {
	g.lastFor = username
	return g.recs, g.recErr
}

func TestFollowCreatesSingleRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	f.user(t, "author")

	author, created, err := f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "author", author.Username)
	assert.Equal(t, int64(1), f.countFollows(t))

	_, created, err = f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), f.countFollows(t))

	assert.Equal(t, []string{messaging.SubjectFollowCreated}, f.events.Subjects())
}

func TestFollowSelfIsNoop(t *testing.T) {
	f := newFixture(t)
	me := f.user(t, "me")

	_, created, err := f.follows.Follow(context.Background(), me, "me")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(0), f.countFollows(t))
}

func TestFollowErrors(t *testing.T) {
	f := newFixture(t)
	reader := f.user(t, "reader")

	_, _, err := f.follows.Follow(context.Background(), nil, "reader")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.follows.Follow(context.Background(), reader, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentFollowKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	reader := f.user(t, "reader")
	f.user(t, "author")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.follows.Follow(context.Background(), reader, "author")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.countFollows(t))
}

func TestUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	f.user(t, "author")

	_, err := f.follows.Unfollow(ctx, reader, "author")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)
	author, err := f.follows.Unfollow(ctx, reader, "author")
	require.NoError(t, err)
	assert.Equal(t, "author", author.Username)
	assert.Equal(t, int64(0), f.countFollows(t))

	_, err = f.follows.Unfollow(ctx, reader, "author")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{messaging.SubjectFollowCreated, messaging.SubjectFollowDeleted}, f.events.Subjects())
}

func TestFeedShowsOnlyFollowedAuthors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	stranger := f.user(t, "stranger")
	author := f.user(t, "author")
	other := f.user(t, "other")
	post := f.post(t, author, nil, "followed post")
	f.post(t, other, nil, "unfollowed post")

	_, _, err := f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)

	feed, err := f.follows.Feed(ctx, reader, "")
	require.NoError(t, err)
	require.Equal(t, 1, feed.Len())
	assert.Equal(t, post.ID, feed.Items[0].ID)
	assert.Equal(t, "author", feed.Items[0].Author.Username)

	feed, err = f.follows.Feed(ctx, stranger, "")
	require.NoError(t, err)
	assert.Equal(t, 0, feed.Len())

	_, err = f.follows.Feed(ctx, nil, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestFeedIsPaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	author := f.user(t, "author")
	for i := 0; i < 14; i++ {
		f.post(t, author, nil, fmt.Sprintf("post %d", i))
	}
	_, _, err := f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)

	first, err := f.follows.Feed(ctx, reader, "1")
	require.NoError(t, err)
	assert.Equal(t, 10, first.Len())
	second, err := f.follows.Feed(ctx, reader, "2")
	require.NoError(t, err)
	assert.Equal(t, 4, second.Len())
}

func TestIsFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	author := f.user(t, "author")

	ok, err := f.follows.IsFollowing(ctx, reader, author.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = f.follows.Follow(ctx, reader, "author")
	require.NoError(t, err)
	ok, err = f.follows.IsFollowing(ctx, reader, author.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.follows.IsFollowing(ctx, nil, author.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecommendFromSQL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.user(t, "me")
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.user(t, "carol")
	f.user(t, "dave")

	follow := func(u *models.User, username string) {
		_, _, err := f.follows.Follow(ctx, u, username)
		require.NoError(t, err)
	}
	follow(me, "alice")
	follow(me, "bob")
	follow(alice, "carol")
	follow(bob, "carol")
	follow(bob, "dave")
	follow(bob, "me")
	follow(alice, "bob")

	recs, err := f.follows.Recommend(ctx, me, 0)
	require.NoError(t, err)
	assert.Equal(t, []graph.Recommendation{
		{Username: "carol", Mutuals: 2},
		{Username: "dave", Mutuals: 1},
	}, recs)

	recs, err = f.follows.Recommend(ctx, me, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestFollowMirrorsIntoGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := newFakeGraph()
	g.recs = []graph.Recommendation{{Username: "carol", Mutuals: 3}}
	svc := NewFollowService(f.db, g, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	reader := f.user(t, "reader")
	f.user(t, "author")

	_, _, err := svc.Follow(ctx, reader, "author")
	require.NoError(t, err)
	assert.True(t, g.edges[[2]string{"reader", "author"}])

	recs, err := svc.Recommend(ctx, reader, 5)
	require.NoError(t, err)
	assert.Equal(t, g.recs, recs)
	assert.Equal(t, "reader", g.lastFor)

	_, err = svc.Unfollow(ctx, reader, "author")
	require.NoError(t, err)
	assert.Empty(t, g.edges)
}

func TestRecommendFallsBackWhenGraphFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := newFakeGraph()
	g.recErr = errors.New("neo4j unavailable")
	svc := NewFollowService(f.db, g, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	me := f.user(t, "me")
	alice := f.user(t, "alice")
	f.user(t, "carol")

	_, _, err := svc.Follow(ctx, me, "alice")
	require.NoError(t, err)
	_, _, err = svc.Follow(ctx, alice, "carol")
	require.NoError(t, err)

	recs, err := svc.Recommend(ctx, me, 5)
	require.NoError(t, err)
	assert.Equal(t, []graph.Recommendation{{Username: "carol", Mutuals: 1}}, recs)
}
