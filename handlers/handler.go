package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"yatube/admin"
	"yatube/cache"
	"yatube/forms"
	"yatube/services"
	"yatube/utils"
)

const (
	LoginURL = "/auth/login/"

	tmpl404 = "core/404.html"
	tmpl403 = "core/403.html"
	tmpl500 = "core/500.html"
)

type Handler struct {
	content  *services.ContentService
	follows  *services.FollowService
	users    *services.UserService
	admin    *admin.Service
	tokens   *utils.TokenManager
	cache    cache.PageCache
	cacheTTL time.Duration
	log      *slog.Logger
}

func New(d Deps) *Handler {
	pageCache := d.Cache
	if pageCache == nil {
		pageCache = cache.Noop{}
	}
	return &Handler{
		content:  d.Content,
		follows:  d.Follows,
		users:    d.Users,
		admin:    d.Admin,
		tokens:   d.Tokens,
		cache:    pageCache,
		cacheTTL: d.IndexTTL,
		log:      d.Log,
	}
}

// render writes a view context: the data a template would receive plus the
// template name and the current user.
func (h *Handler) render(c *gin.Context, status int, template string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["template"] = template
	data["user"] = CurrentUser(c)
	c.JSON(status, data)
}

func formContext(fields any, errs forms.Errors) gin.H {
	if errs == nil {
		errs = forms.Errors{}
	}
	return gin.H{"fields": fields, "errors": errs}
}

func (h *Handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, tmpl404, gin.H{"path": c.Request.URL.Path})
}

// fail maps a service error onto a response. Validation and forbidden-edit
// errors are handled by the views themselves.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.notFound(c)
	case errors.Is(err, services.ErrUnauthenticated):
		redirectToLogin(c)
	case errors.Is(err, admin.ErrNotStaff):
		h.render(c, http.StatusForbidden, tmpl403, nil)
	default:
		h.log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()))
		h.render(c, http.StatusInternalServerError, tmpl500, gin.H{"error": "internal server error"})
	}
}

// loginURL keeps slashes of next readable: /auth/login/?next=/posts/5/edit/.
func loginURL(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, loginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

// safeNext accepts only local paths, so login cannot bounce to another host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
