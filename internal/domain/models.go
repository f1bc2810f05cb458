package domain

// Article is a single news item as delivered by the search API. Description
// and ImageURL are empty when the API reported them as absent. PublishedAt is
// kept in the API's ISO-8601 form.
type Article struct {
	ID          string
	Source      string
	Title       string
	URL         string
	Description string
	ImageURL    string
	PublishedAt string
}

// HasImage reports whether the article carries its own image URL.
func (a Article) HasImage() bool { return a.ImageURL != "" }

// HasDescription reports whether the article carries a summary.
func (a Article) HasDescription() bool { return a.Description != "" }
