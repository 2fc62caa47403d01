// Package admin is the staff moderation surface: a fixed registry of
// browsable entities plus the handful of mutations moderators may apply.
package admin

const EmptyValueDisplay = "-empty-"

// Date filter values accepted by every ListFilter field.
const (
	FilterToday     = "today"
	FilterPast7Days = "past_7_days"
	FilterThisMonth = "this_month"
	FilterThisYear  = "this_year"
)

// PerPage is the admin change list page size.
const PerPage = 100

// ModelAdmin describes how one entity is listed.
type ModelAdmin struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	ListDisplay  []string `json:"listDisplay"`
	SearchFields []string `json:"searchFields,omitempty"`
	ListFilter   []string `json:"listFilter,omitempty"`
	ListEditable []string `json:"listEditable,omitempty"`
	EmptyValue   string   `json:"emptyValue"`
}

var Registry = []ModelAdmin{
	{
		Name:         "posts",
		Label:        "Post",
		ListDisplay:  []string{"pk", "text", "pub_date", "author", "group"},
		SearchFields: []string{"text"},
		ListFilter:   []string{"pub_date"},
		ListEditable: []string{"group"},
		EmptyValue:   EmptyValueDisplay,
	},
	{
		Name:         "groups",
		Label:        "Group",
		ListDisplay:  []string{"pk", "title", "slug", "description"},
		SearchFields: []string{"title"},
		EmptyValue:   EmptyValueDisplay,
	},
	{
		Name:         "comments",
		Label:        "Comment",
		ListDisplay:  []string{"pk", "text", "post", "author", "created"},
		SearchFields: []string{"text"},
		ListFilter:   []string{"created"},
		EmptyValue:   EmptyValueDisplay,
	},
	{
		Name:         "follows",
		Label:        "Follow",
		ListDisplay:  []string{"pk", "user", "author"},
		SearchFields: []string{"user"},
		EmptyValue:   EmptyValueDisplay,
	},
}

func Lookup(name string) (ModelAdmin, bool) {
	for _, m := range Registry {
		if m.Name == name {
			return m, true
		}
	}
	return ModelAdmin{}, false
}
