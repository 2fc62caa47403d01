package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"gorm.io/gorm"

	"yatube/forms"
	"yatube/messaging"
	"yatube/metrics"
	"yatube/models"
	"yatube/paginator"
	"yatube/storage"
)

const MsgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// MediaStore persists uploaded post images.
type MediaStore interface {
	SavePostImage(fh *multipart.FileHeader) (string, error)
	Delete(rel string) error
}

type PostPage = paginator.Page[models.Post]

type ContentService struct {
	db      *gorm.DB
	media   MediaStore
	events  messaging.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewContentService(db *gorm.DB, media MediaStore, events messaging.Publisher, m *metrics.Metrics, log *slog.Logger) *ContentService {
	if events == nil {
		events = messaging.Noop{}
	}
	return &ContentService{db: db, media: media, events: events, metrics: m, log: log}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("pub_date DESC").Order("id DESC")
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group")
}

func (s *ContentService) ListPosts(ctx context.Context, page string) (*PostPage, error) {
	return paginator.Paginate[models.Post](s.db.WithContext(ctx), page, paginator.LimitPosts, newestFirst, withRelations)
}

func (s *ContentService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title").Order("id").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *ContentService) ListGroupPosts(ctx context.Context, slug, page string) (*models.Group, *PostPage, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, nil, notFound(err, "group "+slug)
	}
	posts, err := paginator.Paginate[models.Post](
		s.db.WithContext(ctx).Where("group_id = ?", group.ID),
		page, paginator.LimitPosts, newestFirst, withRelations)
	if err != nil {
		return nil, nil, err
	}
	return &group, posts, nil
}

type Profile struct {
	Author    models.User
	Posts     *PostPage
	Following bool
}

// ListProfilePosts pages the author's posts. Following is only ever true for
// an authenticated caller.
func (s *ContentService) ListProfilePosts(ctx context.Context, caller *models.User, username, page string) (*Profile, error) {
	author, err := userByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	posts, err := paginator.Paginate[models.Post](
		s.db.WithContext(ctx).Where("author_id = ?", author.ID),
		page, paginator.LimitPosts, newestFirst, withRelations)
	if err != nil {
		return nil, err
	}
	following, err := isFollowing(s.db.WithContext(ctx), caller, author.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{Author: *author, Posts: posts, Following: following}, nil
}

type PostDetail struct {
	Post        models.Post
	Comments    []models.Comment
	CommentForm forms.CommentForm
	PostCount   int64
}

func (s *ContentService) GetPostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var comments []models.Comment
	err = db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created").Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", post.ID, err)
	}

	var count int64
	if err := db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count posts of %s: %w", post.Author.Username, err)
	}
	return &PostDetail{Post: *post, Comments: comments, PostCount: count}, nil
}

// CreatePost saves a post owned by caller.
func (s *ContentService) CreatePost(ctx context.Context, caller *models.User, form forms.PostForm, image *multipart.FileHeader) (*models.Post, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	clean, err := s.validatePost(ctx, form)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Text:     clean.Text,
		AuthorID: caller.ID,
		GroupID:  clean.GroupID,
	}
	if image != nil {
		if post.Image, err = s.saveImage(image); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		s.discardImage(post.Image)
		return nil, fmt.Errorf("save post: %w", err)
	}
	post.Author = *caller

	s.log.Info("post created", slog.Uint64("post_id", uint64(post.ID)), slog.String("author", caller.Username))
	if s.metrics != nil {
		s.metrics.Posts.Inc()
	}
	s.publish(messaging.SubjectPostCreated, messaging.NewPostEvent(post))
	return &post, nil
}

// PostForEdit loads a post its author is about to edit.
func (s *ContentService) PostForEdit(ctx context.Context, caller *models.User, postID uint) (*models.Post, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	post, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(caller) {
		return post, ErrForbidden
	}
	return post, nil
}

// EditPost applies text, group and image changes. A non-author gets
// ErrForbidden and the post is left untouched.
func (s *ContentService) EditPost(ctx context.Context, caller *models.User, postID uint, form forms.PostForm, image *multipart.FileHeader) (*models.Post, error) {
	post, err := s.PostForEdit(ctx, caller, postID)
	if err != nil {
		return post, err
	}
	clean, err := s.validatePost(ctx, form)
	if err != nil {
		return post, err
	}

	oldImage := post.Image
	newImage := oldImage
	if image != nil {
		if newImage, err = s.saveImage(image); err != nil {
			return post, err
		}
	} else if clean.ClearImage {
		newImage = ""
	}

	err = s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
		Select("text", "group_id", "image").
		Updates(map[string]any{"text": clean.Text, "group_id": clean.GroupID, "image": newImage}).Error
	if err != nil {
		if newImage != oldImage {
			s.discardImage(newImage)
		}
		return post, fmt.Errorf("update post %d: %w", post.ID, err)
	}
	if newImage != oldImage {
		s.discardImage(oldImage)
	}

	updated, err := s.post(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("post updated", slog.Uint64("post_id", uint64(post.ID)), slog.String("author", caller.Username))
	s.publish(messaging.SubjectPostUpdated, messaging.NewPostEvent(*updated))
	return updated, nil
}

func (s *ContentService) AddComment(ctx context.Context, caller *models.User, postID uint, form forms.CommentForm) (*models.Comment, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", postID))
	}
	text, errs := form.Validate()
	if !errs.Valid() {
		return nil, invalid(errs)
	}

	comment := models.Comment{PostID: post.ID, AuthorID: caller.ID, Text: text}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	comment.Author = *caller

	s.log.Info("comment created", slog.Uint64("post_id", uint64(post.ID)), slog.String("author", caller.Username))
	if s.metrics != nil {
		s.metrics.Comments.Inc()
	}
	s.publish(messaging.SubjectCommentCreated, messaging.NewCommentEvent(comment))
	return &comment, nil
}

func (s *ContentService) post(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	if err := withRelations(s.db.WithContext(ctx)).First(&post, postID).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", postID))
	}
	return &post, nil
}

func (s *ContentService) validatePost(ctx context.Context, form forms.PostForm) (forms.CleanPost, error) {
	clean, errs, err := form.Validate(func(id uint) (bool, error) {
		var n int64
		err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return clean, err
	}
	if !errs.Valid() {
		return clean, invalid(errs)
	}
	return clean, nil
}

func (s *ContentService) saveImage(fh *multipart.FileHeader) (string, error) {
	if s.media == nil {
		return "", errors.New("media storage is not configured")
	}
	rel, err := s.media.SavePostImage(fh)
	switch {
	case errors.Is(err, storage.ErrInvalidType):
		return "", fieldError("image", MsgInvalidImage)
	case errors.Is(err, storage.ErrTooLarge):
		return "", fieldError("image", storage.ErrTooLarge.Error())
	case err != nil:
		return "", fmt.Errorf("save image: %w", err)
	}
	return rel, nil
}

func (s *ContentService) discardImage(rel string) {
	if rel == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(rel); err != nil {
		s.log.Warn("failed to delete image", slog.String("image", rel), slog.String("error", err.Error()))
	}
}

func (s *ContentService) publish(subject string, event any) {
	if err := s.events.Publish(subject, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

func userByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user "+username)
	}
	return &user, nil
}
