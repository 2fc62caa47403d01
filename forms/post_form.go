package forms

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupLookup reports whether a group with id exists.
type GroupLookup func(id uint) (bool, error)

// PostForm is the create/edit payload for a post. Image travels separately as an upload.
type PostForm struct {
	Text       string `form:"text" json:"text"`
	Group      string `form:"group" json:"group"`
	ClearImage bool   `form:"image-clear" json:"imageClear"`
}

// CleanPost is a validated PostForm.
type CleanPost struct {
	Text       string
	GroupID    *uint
	ClearImage bool
}

// Validate trims and checks the form. The returned error is only set when the
// group lookup itself fails.
func (f PostForm) Validate(groupExists GroupLookup) (CleanPost, Errors, error) {
	errs := Errors{}
	clean := CleanPost{
		Text:       required(errs, "text", f.Text),
		ClearImage: f.ClearImage,
	}

	gid, err := GroupChoice(errs, "group", f.Group, groupExists)
	clean.GroupID = gid
	return clean, errs, err
}

// GroupChoice parses an optional group id. A blank value means no group; an
// id that is malformed or unknown adds MsgInvalidChoice to field.
func GroupChoice(errs Errors, field, raw string, groupExists GroupLookup) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		errs.Add(field, MsgInvalidChoice)
		return nil, nil
	}
	gid := uint(id)
	ok, err := groupExists(gid)
	if err != nil {
		return nil, fmt.Errorf("look up group %d: %w", gid, err)
	}
	if !ok {
		errs.Add(field, MsgInvalidChoice)
		return nil, nil
	}
	return &gid, nil
}
