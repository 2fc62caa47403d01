package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"yatube/audit"
	"yatube/forms"
	"yatube/messaging"
	"yatube/models"
	"yatube/paginator"
	"yatube/services"
)

const (
	AuditLimit = 50

	MsgSlugTaken = "Group with this Slug already exists."
)

const dateLayout = "2006-01-02 15:04:05"

var ErrNotStaff = errors.New("staff only")

type Service struct {
	db     *gorm.DB
	audit  audit.Log
	events messaging.Publisher
	media  services.MediaStore
	log    *slog.Logger
	now    func() time.Time
}

// NewService builds the moderation service. media may be nil, deleted posts
// then keep their image files.
func NewService(db *gorm.DB, auditLog audit.Log, events messaging.Publisher, media services.MediaStore, log *slog.Logger) *Service {
	if auditLog == nil {
		auditLog = &audit.Memory{}
	}
	if events == nil {
		events = messaging.Noop{}
	}
	return &Service{db: db, audit: auditLog, events: events, media: media, log: log, now: time.Now}
}

// Section is one registry entry with its row count, as shown on /admin/.
type Section struct {
	ModelAdmin
	Count int64 `json:"count"`
}

func (s *Service) Index(ctx context.Context) ([]Section, error) {
	tables := map[string]any{
		"posts":    &models.Post{},
		"groups":   &models.Group{},
		"comments": &models.Comment{},
		"follows":  &models.Follow{},
	}
	out := make([]Section, 0, len(Registry))
	for _, m := range Registry {
		var n int64
		if err := s.db.WithContext(ctx).Model(tables[m.Name]).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", m.Name, err)
		}
		out = append(out, Section{ModelAdmin: m, Count: n})
	}
	return out, nil
}

type ListQuery struct {
	Search  string
	Filters map[string]string
	Page    string
}

// Row holds the ListDisplay values of one record, already formatted.
type Row struct {
	PK     uint     `json:"pk"`
	Values []string `json:"values"`
}

type Listing struct {
	Admin   ModelAdmin           `json:"admin"`
	Search  string               `json:"q"`
	Filters map[string]string    `json:"filters"`
	Page    *paginator.Page[Row] `json:"page"`
}

// List renders the change list of entity name: searched, filtered and paged.
func (s *Service) List(ctx context.Context, name string, q ListQuery) (*Listing, error) {
	m, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("admin entity %q: %w", name, services.ErrNotFound)
	}
	filters := map[string]string{}
	for _, field := range m.ListFilter {
		if v := q.Filters[field]; v != "" {
			filters[field] = v
		}
	}
	search := strings.TrimSpace(q.Search)
	db := s.db.WithContext(ctx)

	var (
		page *paginator.Page[Row]
		err  error
	)
	switch m.Name {
	case "posts":
		query := s.filterDates(contains(db.Model(&models.Post{}), "posts.text", search), "posts.pub_date", filters["pub_date"])
		page, err = rows(query, q.Page, func(db *gorm.DB) *gorm.DB {
			return db.Preload("Author").Preload("Group").Order("posts.id DESC")
		}, func(p models.Post) Row {
			group := ""
			if p.Group != nil {
				group = p.Group.String()
			}
			return row(p.ID, p.Text, p.PubDate.UTC().Format(dateLayout), p.Author.String(), group)
		})
	case "groups":
		query := contains(db.Model(&models.Group{}), "groups.title", search)
		page, err = rows(query, q.Page, byIDDesc("groups"), func(g models.Group) Row {
			return row(g.ID, g.Title, g.Slug, g.Description)
		})
	case "comments":
		query := s.filterDates(contains(db.Model(&models.Comment{}), "comments.text", search), "comments.created", filters["created"])
		page, err = rows(query, q.Page, func(db *gorm.DB) *gorm.DB {
			return db.Preload("Post").Preload("Author").Order("comments.id DESC")
		}, func(c models.Comment) Row {
			post := ""
			if c.Post != nil {
				post = c.Post.String()
			}
			return row(c.ID, c.Text, post, c.Author.String(), c.Created.UTC().Format(dateLayout))
		})
	case "follows":
		query := db.Model(&models.Follow{})
		if search != "" {
			query = contains(query.Joins("JOIN users AS follower ON follower.id = follows.user_id"), "follower.username", search)
		}
		page, err = rows(query, q.Page, func(db *gorm.DB) *gorm.DB {
			return db.Preload("User").Preload("Author").Order("follows.id DESC")
		}, func(f models.Follow) Row {
			return row(f.ID, f.User.String(), f.Author.String())
		})
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.Name, err)
	}
	return &Listing{Admin: m, Search: search, Filters: filters, Page: page}, nil
}

func rows[T any](query *gorm.DB, raw string, load func(*gorm.DB) *gorm.DB, render func(T) Row) (*paginator.Page[Row], error) {
	page, err := paginator.Paginate[T](query, raw, PerPage, load)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(page.Items))
	for i, item := range page.Items {
		out[i] = render(item)
	}
	return &paginator.Page[Row]{Meta: page.Meta, Items: out}, nil
}

func row(pk uint, values ...string) Row {
	cells := make([]string, 0, len(values)+1)
	cells = append(cells, strconv.FormatUint(uint64(pk), 10))
	for _, v := range values {
		if v == "" {
			v = EmptyValueDisplay
		}
		cells = append(cells, v)
	}
	return Row{PK: pk, Values: cells}
}

func byIDDesc(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id DESC")
	}
}

// contains is a case-insensitive substring match on column.
func contains(db *gorm.DB, column, term string) *gorm.DB {
	if term == "" {
		return db
	}
	return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(term)+"%")
}

// filterDates restricts column to the window named by value. Unknown values
// leave the query unfiltered.
func (s *Service) filterDates(db *gorm.DB, column, value string) *gorm.DB {
	from, to, ok := dateRange(value, s.now().UTC())
	if !ok {
		return db
	}
	return db.Where(column+" >= ? AND "+column+" < ?", from, to)
}

func dateRange(value string, now time.Time) (time.Time, time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	switch value {
	case FilterToday:
		return today, tomorrow, true
	case FilterPast7Days:
		return today.AddDate(0, 0, -7), tomorrow, true
	case FilterThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, 0), true
	case FilterThisYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(1, 0, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// SetPostGroup is the list_editable group column of the posts change list.
// A blank raw value clears the group.
func (s *Service) SetPostGroup(ctx context.Context, actor *models.User, postID uint, raw string) (*models.Post, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var post models.Post
	if err := db.First(&post, postID).Error; err != nil {
		return nil, lookupErr(err, fmt.Sprintf("post %d", postID))
	}

	errs := forms.Errors{}
	gid, err := forms.GroupChoice(errs, "group", raw, func(id uint) (bool, error) {
		var n int64
		err := db.Model(&models.Group{}).Where("id = ?", id).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		return nil, &services.ValidationError{Errors: errs}
	}

	if err := db.Model(&models.Post{}).Where("id = ?", post.ID).Update("group_id", gid).Error; err != nil {
		return nil, fmt.Errorf("set group of post %d: %w", post.ID, err)
	}
	var updated models.Post
	if err := db.Preload("Author").Preload("Group").First(&updated, post.ID).Error; err != nil {
		return nil, fmt.Errorf("reload post %d: %w", post.ID, err)
	}

	details := map[string]any{"group_id": nil}
	if gid != nil {
		details["group_id"] = *gid
	}
	s.record(ctx, actor, audit.ActionUpdate, "posts", updated.ID, details)
	s.publish(messaging.SubjectPostUpdated, messaging.NewPostEvent(updated))
	return &updated, nil
}

// DeletePost removes a post together with its comments.
func (s *Service) DeletePost(ctx context.Context, actor *models.User, postID uint) error {
	if err := staff(actor); err != nil {
		return err
	}
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Author").First(&post, postID).Error; err != nil {
			return lookupErr(err, fmt.Sprintf("post %d", postID))
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of post %d: %w", post.ID, err)
		}
		if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
			return fmt.Errorf("delete post %d: %w", post.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if post.Image != "" && s.media != nil {
		if err := s.media.Delete(post.Image); err != nil {
			s.log.Warn("failed to delete image", slog.String("image", post.Image), slog.String("error", err.Error()))
		}
	}
	s.record(ctx, actor, audit.ActionDelete, "posts", post.ID, map[string]any{"author": post.Author.Username, "text": post.String()})
	s.publish(messaging.SubjectPostDeleted, messaging.NewPostEvent(post))
	return nil
}

func (s *Service) CreateGroup(ctx context.Context, actor *models.User, form forms.GroupForm) (*models.Group, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	clean, errs := form.Validate()
	if !errs.Valid() {
		return nil, &services.ValidationError{Errors: errs}
	}
	group := models.Group{Title: clean.Title, Slug: clean.Slug, Description: clean.Description}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, slugErr(err, "create group")
	}
	s.record(ctx, actor, audit.ActionCreate, "groups", group.ID, map[string]any{"slug": group.Slug})
	return &group, nil
}

func (s *Service) UpdateGroup(ctx context.Context, actor *models.User, groupID uint, form forms.GroupForm) (*models.Group, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var group models.Group
	if err := db.First(&group, groupID).Error; err != nil {
		return nil, lookupErr(err, fmt.Sprintf("group %d", groupID))
	}
	clean, errs := form.Validate()
	if !errs.Valid() {
		return &group, &services.ValidationError{Errors: errs}
	}

	group.Title, group.Slug, group.Description = clean.Title, clean.Slug, clean.Description
	err := db.Model(&models.Group{}).Where("id = ?", group.ID).
		Updates(map[string]any{"title": group.Title, "slug": group.Slug, "description": group.Description}).Error
	if err != nil {
		return nil, slugErr(err, fmt.Sprintf("update group %d", group.ID))
	}
	s.record(ctx, actor, audit.ActionUpdate, "groups", group.ID, map[string]any{"slug": group.Slug})
	return &group, nil
}

// DeleteGroup removes a group. Its posts stay, with no group.
func (s *Service) DeleteGroup(ctx context.Context, actor *models.User, groupID uint) error {
	if err := staff(actor); err != nil {
		return err
	}
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, groupID).Error; err != nil {
			return lookupErr(err, fmt.Sprintf("group %d", groupID))
		}
		res := tx.Model(&models.Post{}).Where("group_id = ?", group.ID).Update("group_id", nil)
		if res.Error != nil {
			return fmt.Errorf("detach posts from group %d: %w", group.ID, res.Error)
		}
		detached = res.RowsAffected
		if err := tx.Delete(&group).Error; err != nil {
			return fmt.Errorf("delete group %d: %w", group.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, audit.ActionDelete, "groups", groupID, map[string]any{"detached_posts": detached})
	return nil
}

// Audit returns the latest moderation entries, newest first.
func (s *Service) Audit(ctx context.Context, actor *models.User) ([]audit.Entry, error) {
	if err := staff(actor); err != nil {
		return nil, err
	}
	entries, err := s.audit.Latest(ctx, AuditLimit)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

func (s *Service) record(ctx context.Context, actor *models.User, action, entity string, id uint, details map[string]any) {
	e := audit.Entry{
		Actor:    actor.Username,
		Action:   action,
		Entity:   entity,
		EntityID: id,
		At:       s.now().UTC(),
		Details:  details,
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Warn("failed to record audit entry", slog.String("entity", entity), slog.String("error", err.Error()))
	}
	s.log.Info("moderation", slog.String("actor", actor.Username), slog.String("action", action),
		slog.String("entity", entity), slog.Uint64("id", uint64(id)))
}

func (s *Service) publish(subject string, event any) {
	if err := s.events.Publish(subject, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

func staff(actor *models.User) error {
	if actor == nil {
		return services.ErrUnauthenticated
	}
	if !actor.IsStaff {
		return ErrNotStaff
	}
	return nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, services.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func slugErr(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		errs := forms.Errors{}
		errs.Add("slug", MsgSlugTaken)
		return &services.ValidationError{Errors: errs}
	}
	return fmt.Errorf("%s: %w", op, err)
}
