package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yatube/services"
)

func (h *Handler) Feed(c *gin.Context) {
	page, err := h.follows.Feed(c.Request.Context(), CurrentUser(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/follow.html", gin.H{"page_obj": page})
}

func (h *Handler) Follow(c *gin.Context) {
	username := c.Param("username")
	if _, _, err := h.follows.Follow(c.Request.Context(), CurrentUser(c), username); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *Handler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), CurrentUser(c), username); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *Handler) Recommend(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = services.DefaultRecommendLimit
	}
	recs, err := h.follows.Recommend(c.Request.Context(), CurrentUser(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/recommend.html", gin.H{"recommendations": recs})
}
