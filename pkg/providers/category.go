package providers

import "strings"

// Category is a startup-sector label used to scope the news query.
type Category string

const (
	// CategoryNone is the sidebar sentinel meaning "nothing selected".
	CategoryNone     Category = "-"
	Agritech         Category = "Agritech"
	Fintech          Category = "Fintech"
	Edtech           Category = "Edtech"
	Healthtech       Category = "Healthtech"
	SocialImpactTech Category = "Social impact tech"
	AICRMP           Category = "AIC RMP"
)

const (
	fundingTerm = "funding"
	indiaTerm   = "India"
)

// categoryQueries holds the synonym expansions, keyed by lowercased label.
// Categories missing from this table fall back to "<category> startup".
var categoryQueries = map[string]string{
	"social impact tech": "(social impact tech OR social innovation technology OR tech for good OR social entrepreneurship OR impact tech)",
	"edtech":             "(edtech OR education technology OR e-learning OR online education)",
}

// Categories returns the selectable categories in sidebar order, sentinel first.
func Categories() []Category {
	return []Category{CategoryNone, Agritech, Fintech, Edtech, Healthtech, SocialImpactTech, AICRMP}
}

// ParseCategory resolves a sidebar label case-insensitively. An empty label
// resolves to CategoryNone.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryNone, true
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return CategoryNone, false
}

// IsNone reports whether c is the "nothing selected" sentinel.
func (c Category) IsNone() bool {
	return c == CategoryNone || strings.TrimSpace(string(c)) == ""
}

func (c Category) String() string { return string(c) }

// BuildQuery turns a filter selection into the search query string.
func BuildQuery(category Category, fundingOnly, indiaOnly bool) string {
	key := strings.ToLower(string(category))

	query, ok := categoryQueries[key]
	if !ok {
		query = key + " startup"
	}
	if fundingOnly {
		query += " " + fundingTerm
	}
	if indiaOnly {
		query += " " + indiaTerm
	}
	return query
}
