package dashboard

import "github.com/Adda-Baaj/startup-pulse/pkg/providers"

// Filter is the sidebar selection read once per fetch cycle.
type Filter struct {
	Category    providers.Category
	FundingOnly bool
	IndiaOnly   bool
}

// Idle reports whether no category is chosen, in which case nothing is fetched.
func (f Filter) Idle() bool {
	return f.Category.IsNone()
}

// Query is the search query the filter maps to.
func (f Filter) Query() string {
	return providers.BuildQuery(f.Category, f.FundingOnly, f.IndiaOnly)
}

func (f Filter) state() State {
	if f.Idle() {
		return StateIdle
	}
	return StateResults
}
