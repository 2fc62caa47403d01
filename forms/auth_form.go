package forms

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	MaxUsernameLen = 150
	MinPasswordLen = 8

	MsgUsernameInvalid = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgUsernameTooLong = "Ensure this value has at most 150 characters."
	MsgPasswordShort   = "This password is too short. It must contain at least 8 characters."
	MsgEmailInvalid    = "Enter a valid email address."
	MsgBadCredentials  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

type SignupForm struct {
	Username  string `form:"username" json:"username"`
	Password  string `form:"password" json:"-"`
	FirstName string `form:"first_name" json:"firstName"`
	LastName  string `form:"last_name" json:"lastName"`
	Email     string `form:"email" json:"email"`
}

// Validate checks field shapes only; username uniqueness is the caller's job.
func (f SignupForm) Validate() (SignupForm, Errors) {
	errs := Errors{}
	clean := SignupForm{
		Username:  required(errs, "username", f.Username),
		Password:  f.Password,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
	}

	if clean.Username != "" {
		if len([]rune(clean.Username)) > MaxUsernameLen {
			errs.Add("username", MsgUsernameTooLong)
		} else if !usernamePattern.MatchString(clean.Username) {
			errs.Add("username", MsgUsernameInvalid)
		}
	}

	if f.Password == "" {
		errs.Add("password", MsgRequired)
	} else if len([]rune(f.Password)) < MinPasswordLen {
		errs.Add("password", MsgPasswordShort)
	}

	if clean.Email != "" {
		if _, err := mail.ParseAddress(clean.Email); err != nil {
			errs.Add("email", MsgEmailInvalid)
		}
	}
	return clean, errs
}

type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"-"`
	Next     string `form:"next" json:"next"`
}

func (f LoginForm) Validate() (LoginForm, Errors) {
	errs := Errors{}
	clean := LoginForm{
		Username: required(errs, "username", f.Username),
		Password: f.Password,
		Next:     f.Next,
	}
	if f.Password == "" {
		errs.Add("password", MsgRequired)
	}
	return clean, errs
}
