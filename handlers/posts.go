package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yatube/cache"
	"yatube/forms"
	"yatube/models"
	"yatube/paginator"
	"yatube/services"
)

const (
	tmplIndex      = "posts/index.html"
	tmplGroupList  = "posts/group_list.html"
	tmplProfile    = "posts/profile.html"
	tmplPostDetail = "posts/post_detail.html"
	tmplCreatePost = "posts/create_post.html"
)

// Index serves the global post list. Each page is cached for the index TTL,
// so new posts show up once the cached page expires.
func (h *Handler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := paginator.ParseNumber(c.Query("page"))
	if err != nil || n < 1 {
		n = 1
	}
	key := cache.IndexKey(n)

	data, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.log.Warn("index cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if ok {
		var page services.PostPage
		if err := json.Unmarshal(data, &page); err == nil {
			h.render(c, http.StatusOK, tmplIndex, gin.H{"page_obj": &page})
			return
		}
		h.log.Warn("dropping corrupt index cache entry", slog.String("key", key))
	}

	page, err := h.content.ListPosts(ctx, strconv.Itoa(n))
	if err != nil {
		h.fail(c, err)
		return
	}
	if data, err := json.Marshal(page); err == nil {
		if err := h.cache.Set(ctx, key, data, h.cacheTTL); err != nil {
			h.log.Warn("index cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	h.render(c, http.StatusOK, tmplIndex, gin.H{"page_obj": page})
}

func (h *Handler) GroupPosts(c *gin.Context) {
	group, page, err := h.content.ListGroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplGroupList, gin.H{"group": group, "page_obj": page})
}

func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.content.ListProfilePosts(c.Request.Context(), CurrentUser(c), c.Param("username"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplProfile, gin.H{
		"author":     profile.Author,
		"page_obj":   profile.Posts,
		"post_count": profile.Posts.Count,
		"following":  profile.Following,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	h.renderDetail(c, id, formContext(forms.CommentForm{}, nil))
}

func (h *Handler) renderDetail(c *gin.Context, id uint, commentForm gin.H) {
	detail, err := h.content.GetPostDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplPostDetail, gin.H{
		"post":         detail.Post,
		"comments":     detail.Comments,
		"comment_form": commentForm,
		"post_count":   detail.PostCount,
	})
}

func (h *Handler) CreatePostForm(c *gin.Context) {
	h.renderPostForm(c, forms.PostForm{}, nil, nil)
}

func (h *Handler) CreatePost(c *gin.Context) {
	form := postForm(c)
	user := CurrentUser(c)
	_, err := h.content.CreatePost(c.Request.Context(), user, form, uploadedImage(c))
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		h.renderPostForm(c, form, verr.Errors, nil)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

func (h *Handler) EditPostForm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	post, err := h.content.PostForEdit(c.Request.Context(), CurrentUser(c), id)
	if errors.Is(err, services.ErrForbidden) {
		c.Redirect(http.StatusFound, postURL(id))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderPostForm(c, formFromPost(post), nil, post)
}

func (h *Handler) EditPost(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	form := postForm(c)
	post, err := h.content.EditPost(c.Request.Context(), CurrentUser(c), id, form, uploadedImage(c))
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.Redirect(http.StatusFound, postURL(id))
	case errors.As(err, &verr):
		h.renderPostForm(c, form, verr.Errors, post)
	case err != nil:
		h.fail(c, err)
	default:
		c.Redirect(http.StatusFound, postURL(id))
	}
}

// renderPostForm serves the create template; a non-nil post makes it the edit form.
func (h *Handler) renderPostForm(c *gin.Context, form forms.PostForm, errs forms.Errors, post *models.Post) {
	groups, err := h.content.ListGroups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"form":    formContext(form, errs),
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	h.render(c, http.StatusOK, tmplCreatePost, data)
}

func (h *Handler) AddComment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	form := forms.CommentForm{Text: c.PostForm("text")}
	_, err := h.content.AddComment(c.Request.Context(), CurrentUser(c), id, form)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		h.renderDetail(c, id, formContext(form, verr.Errors))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

func postForm(c *gin.Context) forms.PostForm {
	return forms.PostForm{
		Text:       c.PostForm("text"),
		Group:      c.PostForm("group"),
		ClearImage: c.PostForm("image-clear") != "",
	}
}

func formFromPost(p *models.Post) forms.PostForm {
	form := forms.PostForm{Text: p.Text}
	if p.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	return form
}

// uploadedImage returns the "image" file part, nil when none was sent.
func uploadedImage(c *gin.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	return fh
}
