package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/graph"
	"yatube/messaging"
	"yatube/metrics"
	"yatube/models"
	"yatube/paginator"
)

const DefaultRecommendLimit = 10

// FollowGraph mirrors follow edges into a graph store and answers
// friends-of-friends queries from it.
type FollowGraph interface {
	AddFollow(ctx context.Context, from, to string) error
	RemoveFollow(ctx context.Context, from, to string) error
	Recommend(ctx context.Context, username string, limit int) ([]graph.Recommendation, error)
}

type FollowService struct {
	db      *gorm.DB
	graph   FollowGraph
	events  messaging.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewFollowService builds the service. g may be nil, recommendations then come from SQL.
func NewFollowService(db *gorm.DB, g FollowGraph, events messaging.Publisher, m *metrics.Metrics, log *slog.Logger) *FollowService {
	if events == nil {
		events = messaging.Noop{}
	}
	return &FollowService{db: db, graph: g, events: events, metrics: m, log: log}
}

// Follow subscribes caller to username. Following yourself or following twice
// is a silent no-op; created reports whether a row was inserted.
func (s *FollowService) Follow(ctx context.Context, caller *models.User, username string) (*models.User, bool, error) {
	if caller == nil {
		return nil, false, ErrUnauthenticated
	}
	author, err := userByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, false, err
	}
	if author.ID == caller.ID {
		return author, false, nil
	}

	follow := models.Follow{UserID: caller.ID, AuthorID: author.ID}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if res.Error != nil {
		return nil, false, fmt.Errorf("follow %s: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return author, false, nil
	}

	s.log.Info("follow created", slog.String("follower", caller.Username), slog.String("author", author.Username))
	if s.metrics != nil {
		s.metrics.Follows.Inc()
	}
	s.mirror(ctx, func() error { return s.graph.AddFollow(ctx, caller.Username, author.Username) })
	s.publish(messaging.SubjectFollowCreated, caller.Username, author.Username)
	return author, true, nil
}

// Unfollow removes the Follow row, ErrNotFound if there is none.
func (s *FollowService) Unfollow(ctx context.Context, caller *models.User, username string) (*models.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	author, err := userByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", caller.ID, author.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return nil, fmt.Errorf("unfollow %s: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s does not follow %s: %w", caller.Username, username, ErrNotFound)
	}

	s.log.Info("follow deleted", slog.String("follower", caller.Username), slog.String("author", author.Username))
	s.mirror(ctx, func() error { return s.graph.RemoveFollow(ctx, caller.Username, author.Username) })
	s.publish(messaging.SubjectFollowDeleted, caller.Username, author.Username)
	return author, nil
}

// Feed pages posts by every author caller follows, newest first.
func (s *FollowService) Feed(ctx context.Context, caller *models.User, page string) (*PostPage, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", caller.ID)
	return paginator.Paginate[models.Post](
		db.Where("author_id IN (?)", followed),
		page, paginator.LimitPosts, newestFirst, withRelations)
}

func (s *FollowService) IsFollowing(ctx context.Context, caller *models.User, authorID uint) (bool, error) {
	return isFollowing(s.db.WithContext(ctx), caller, authorID)
}

// Recommend suggests authors followed by the people caller follows.
func (s *FollowService) Recommend(ctx context.Context, caller *models.User, limit int) ([]graph.Recommendation, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	if s.graph != nil {
		recs, err := s.graph.Recommend(ctx, caller.Username, limit)
		if err == nil {
			return recs, nil
		}
		s.log.Warn("graph recommend failed, falling back to SQL", slog.String("error", err.Error()))
	}

	recs := make([]graph.Recommendation, 0)
	err := s.db.WithContext(ctx).Raw(`
		SELECT u.username AS username, COUNT(DISTINCT f1.author_id) AS mutuals
		FROM follows f1
		JOIN follows f2 ON f2.user_id = f1.author_id
		JOIN users u ON u.id = f2.author_id
		WHERE f1.user_id = ?
		  AND f2.author_id <> ?
		  AND f2.author_id NOT IN (SELECT author_id FROM follows WHERE user_id = ?)
		GROUP BY u.username
		ORDER BY mutuals DESC, username ASC
		LIMIT ?`, caller.ID, caller.ID, caller.ID, limit).
		Scan(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("recommend for %s: %w", caller.Username, err)
	}
	return recs, nil
}

func (s *FollowService) mirror(ctx context.Context, fn func() error) {
	if s.graph == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Warn("failed to mirror follow graph", slog.String("error", err.Error()))
	}
}

func (s *FollowService) publish(subject, follower, author string) {
	ev := messaging.FollowEvent{Follower: follower, Author: author, Timestamp: time.Now().UTC()}
	if err := s.events.Publish(subject, ev); err != nil {
		s.log.Warn("failed to publish event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

func isFollowing(db *gorm.DB, caller *models.User, authorID uint) (bool, error) {
	if caller == nil {
		return false, nil
	}
	var n int64
	err := db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", caller.ID, authorID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}
