package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupsWith(ids ...uint) GroupLookup {
	return func(id uint) (bool, error) {
		for _, known := range ids {
			if known == id {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestPostFormValid(t *testing.T) {
	clean, errs, err := PostForm{Text: "  hello  ", Group: "3"}.Validate(groupsWith(3))
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Equal(t, "hello", clean.Text)
	require.NotNil(t, clean.GroupID)
	assert.Equal(t, uint(3), *clean.GroupID)
}

func TestPostFormWithoutGroup(t *testing.T) {
	clean, errs, err := PostForm{Text: "hello"}.Validate(groupsWith())
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Nil(t, clean.GroupID)
}

func TestPostFormErrors(t *testing.T) {
	tests := []struct {
		name  string
		form  PostForm
		field string
		msg   string
	}{
		{"empty text", PostForm{Text: ""}, "text", MsgRequired},
		{"blank text", PostForm{Text: " \n\t"}, "text", MsgRequired},
		{"unknown group", PostForm{Text: "x", Group: "42"}, "group", MsgInvalidChoice},
		{"non numeric group", PostForm{Text: "x", Group: "planes"}, "group", MsgInvalidChoice},
		{"zero group", PostForm{Text: "x", Group: "0"}, "group", MsgInvalidChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs, err := tt.form.Validate(groupsWith(1))
			require.NoError(t, err)
			assert.False(t, errs.Valid())
			assert.Equal(t, []string{tt.msg}, errs[tt.field])
		})
	}
}

func TestPostFormLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	_, _, err := PostForm{Text: "x", Group: "1"}.Validate(func(uint) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCommentForm(t *testing.T) {
	text, errs := CommentForm{Text: " nice "}.Validate()
	assert.True(t, errs.Valid())
	assert.Equal(t, "nice", text)

	_, errs = CommentForm{Text: "   "}.Validate()
	assert.Equal(t, []string{MsgRequired}, errs["text"])
}

func TestSignupForm(t *testing.T) {
	clean, errs := SignupForm{Username: " leo ", Password: "war-and-peace", Email: "leo@example.com"}.Validate()
	assert.True(t, errs.Valid(), errs.Error())
	assert.Equal(t, "leo", clean.Username)

	_, errs = SignupForm{Username: "bad name!", Password: "short", Email: "nope"}.Validate()
	assert.Equal(t, []string{MsgUsernameInvalid}, errs["username"])
	assert.Equal(t, []string{MsgPasswordShort}, errs["password"])
	assert.Equal(t, []string{MsgEmailInvalid}, errs["email"])

	_, errs = SignupForm{Username: strings.Repeat("a", 151), Password: "longenough"}.Validate()
	assert.Equal(t, []string{MsgUsernameTooLong}, errs["username"])

	_, errs = SignupForm{}.Validate()
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("password"))
}

func TestLoginForm(t *testing.T) {
	_, errs := LoginForm{Username: "leo", Password: "secret"}.Validate()
	assert.True(t, errs.Valid())

	_, errs = LoginForm{}.Validate()
	assert.Equal(t, []string{MsgRequired}, errs["username"])
	assert.Equal(t, []string{MsgRequired}, errs["password"])
}

func TestErrorsError(t *testing.T) {
	errs := Errors{}
	errs.Add("text", MsgRequired)
	errs.Add("group", MsgInvalidChoice)
	assert.Equal(t, "group: "+MsgInvalidChoice+"; text: "+MsgRequired, errs.Error())
}

func TestGroupChoice(t *testing.T) {
	errs := Errors{}
	gid, err := GroupChoice(errs, "group", " 7 ", groupsWith(7))
	require.NoError(t, err)
	require.NotNil(t, gid)
	assert.Equal(t, uint(7), *gid)

	gid, err = GroupChoice(errs, "group", "", groupsWith())
	require.NoError(t, err)
	assert.Nil(t, gid)
	assert.True(t, errs.Valid())

	gid, err = GroupChoice(errs, "group", "8", groupsWith(7))
	require.NoError(t, err)
	assert.Nil(t, gid)
	assert.Equal(t, []string{MsgInvalidChoice}, errs["group"])
}

func TestGroupForm(t *testing.T) {
	clean, errs := GroupForm{Title: " Planes ", Slug: "planes", Description: " all about wings "}.Validate()
	assert.True(t, errs.Valid())
	assert.Equal(t, GroupForm{Title: "Planes", Slug: "planes", Description: "all about wings"}, clean)

	tests := []struct {
		name  string
		form  GroupForm
		field string
		msg   string
	}{
		{"missing title", GroupForm{Slug: "ok"}, "title", MsgRequired},
		{"missing slug", GroupForm{Title: "ok"}, "slug", MsgRequired},
		{"bad slug", GroupForm{Title: "ok", Slug: "no spaces"}, "slug", MsgSlugInvalid},
		{"long slug", GroupForm{Title: "ok", Slug: strings.Repeat("a", 101)}, "slug", "Ensure this value has at most 100 characters."},
		{"long title", GroupForm{Title: strings.Repeat("я", 201), Slug: "ok"}, "title", "Ensure this value has at most 200 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := tt.form.Validate()
			assert.Equal(t, []string{tt.msg}, errs[tt.field])
		})
	}
}
