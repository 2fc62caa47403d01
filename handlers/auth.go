package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/forms"
	"yatube/models"
	"yatube/services"
	"yatube/utils"
)

const (
	SessionCookie = "session"

	ctxUserKey = "user"
)

// CurrentUser is the authenticated user of the request, nil for anonymous.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// Authenticate resolves the session token to a user. Missing, invalid or
// stale tokens leave the request anonymous.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := utils.TokenFromRequest(c.Request, SessionCookie)
		if err != nil {
			c.Next()
			return
		}
		claims, err := h.tokens.Verify(tokenStr)
		if err != nil {
			h.log.Debug("rejected session token", slog.String("error", err.Error()))
			c.Next()
			return
		}
		user, err := h.users.ByID(c.Request.Context(), claims.UserID)
		switch {
		case errors.Is(err, services.ErrNotFound):
			// deleted user, stay anonymous
		case err != nil:
			h.log.Warn("failed to load session user", slog.Uint64("user_id", uint64(claims.UserID)), slog.String("error", err.Error()))
		default:
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

// LoginRequired sends anonymous visitors to the login page with next set.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}

func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			redirectToLogin(c)
			return
		}
		if !user.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"template": tmpl403, "user": user})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, "users/signup.html", gin.H{"form": formContext(forms.SignupForm{}, nil)})
}

func (h *Handler) Signup(c *gin.Context) {
	form := forms.SignupForm{
		Username:  c.PostForm("username"),
		Password:  c.PostForm("password"),
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Email:     c.PostForm("email"),
	}
	user, err := h.users.Signup(c.Request.Context(), form)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		h.render(c, http.StatusOK, "users/signup.html", gin.H{"form": formContext(form, verr.Errors)})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) LoginForm(c *gin.Context) {
	form := forms.LoginForm{Next: c.Query("next")}
	h.render(c, http.StatusOK, "users/login.html", gin.H{"form": formContext(form, nil), "next": form.Next})
}

func (h *Handler) Login(c *gin.Context) {
	form := forms.LoginForm{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Next:     c.DefaultPostForm("next", c.Query("next")),
	}
	user, err := h.users.Authenticate(c.Request.Context(), form)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		h.render(c, http.StatusOK, "users/login.html", gin.H{"form": formContext(form, verr.Errors), "next": form.Next})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("user logged in", slog.String("username", user.Username))
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Set(ctxUserKey, nil)
	h.render(c, http.StatusOK, "users/logged_out.html", nil)
}

func (h *Handler) startSession(c *gin.Context, user *models.User) error {
	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(utils.TokenTTL.Seconds()), "/", "", false, true)
	return nil
}
