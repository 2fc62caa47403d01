package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/admin"
	"yatube/forms"
	"yatube/services"
)

const tmplChangeForm = "admin/change_form.html"

func (h *Handler) AdminIndex(c *gin.Context) {
	sections, err := h.admin.Index(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin/index.html", gin.H{"registry": sections})
}

func (h *Handler) AdminList(c *gin.Context) {
	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	listing, err := h.admin.List(c.Request.Context(), c.Param("entity"), admin.ListQuery{
		Search:  c.Query("q"),
		Filters: filters,
		Page:    c.Query("page"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin/change_list.html", gin.H{"cl": listing})
}

func (h *Handler) AdminAudit(c *gin.Context) {
	entries, err := h.admin.Audit(c.Request.Context(), CurrentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin/audit.html", gin.H{"entries": entries})
}

func (h *Handler) AdminSetPostGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	group := c.PostForm("group")
	_, err := h.admin.SetPostGroup(c.Request.Context(), CurrentUser(c), id, group)
	h.afterChange(c, err, "/admin/posts/", gin.H{"entity": "posts", "object_id": id, "fields": gin.H{"group": group}})
}

func (h *Handler) AdminDeletePost(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	err := h.admin.DeletePost(c.Request.Context(), CurrentUser(c), id)
	h.afterChange(c, err, "/admin/posts/", nil)
}

func (h *Handler) AdminCreateGroup(c *gin.Context) {
	form := groupForm(c)
	_, err := h.admin.CreateGroup(c.Request.Context(), CurrentUser(c), form)
	h.afterChange(c, err, "/admin/groups/", gin.H{"entity": "groups", "fields": form})
}

func (h *Handler) AdminUpdateGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	form := groupForm(c)
	_, err := h.admin.UpdateGroup(c.Request.Context(), CurrentUser(c), id, form)
	h.afterChange(c, err, "/admin/groups/", gin.H{"entity": "groups", "object_id": id, "fields": form})
}

func (h *Handler) AdminDeleteGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		h.notFound(c)
		return
	}
	err := h.admin.DeleteGroup(c.Request.Context(), CurrentUser(c), id)
	h.afterChange(c, err, "/admin/groups/", nil)
}

// afterChange redirects to the change list on success and re-renders the
// change form with its errors when validation failed.
func (h *Handler) afterChange(c *gin.Context, err error, listURL string, form gin.H) {
	var verr *services.ValidationError
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, listURL)
	case errors.As(err, &verr) && form != nil:
		form["errors"] = verr.Errors
		h.render(c, http.StatusOK, tmplChangeForm, gin.H{"form": form})
	default:
		h.fail(c, err)
	}
}

func groupForm(c *gin.Context) forms.GroupForm {
	return forms.GroupForm{
		Title:       c.PostForm("title"),
		Slug:        c.PostForm("slug"),
		Description: c.PostForm("description"),
	}
}
