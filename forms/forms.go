package forms

import (
	"sort"
	"strings"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a field name to its messages. NonFieldErrors holds form-wide messages.
type Errors map[string][]string

const NonFieldErrors = "__all__"

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Error renders every message as "field: msg" in field order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e[f], " "))
	}
	return b.String()
}

func required(errs Errors, field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.Add(field, MsgRequired)
	}
	return value
}
