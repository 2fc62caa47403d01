package forms

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxGroupTitleLen = 200
	MaxGroupSlugLen  = 100

	MsgSlugInvalid = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupForm is the admin create/edit payload for a group.
type GroupForm struct {
	Title       string `form:"title" json:"title"`
	Slug        string `form:"slug" json:"slug"`
	Description string `form:"description" json:"description"`
}

func (f GroupForm) Validate() (GroupForm, Errors) {
	errs := Errors{}
	clean := GroupForm{
		Title:       required(errs, "title", f.Title),
		Slug:        required(errs, "slug", f.Slug),
		Description: strings.TrimSpace(f.Description),
	}
	maxLength(errs, "title", clean.Title, MaxGroupTitleLen)
	if clean.Slug != "" && !maxLength(errs, "slug", clean.Slug, MaxGroupSlugLen) && !slugPattern.MatchString(clean.Slug) {
		errs.Add("slug", MsgSlugInvalid)
	}
	return clean, errs
}

// maxLength adds an error and reports true when value is longer than n runes.
func maxLength(errs Errors, field, value string, n int) bool {
	if len([]rune(value)) <= n {
		return false
	}
	errs.Add(field, fmt.Sprintf("Ensure this value has at most %d characters.", n))
	return true
}
