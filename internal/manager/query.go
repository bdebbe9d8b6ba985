package manager

import "taskflow/internal/service"

// Filters are the manager's list constraints. Empty fields mean "All".
type Filters struct {
	Search   string
	Status   service.Status
	Priority service.Priority
	Assignee string
}

// Active reports whether any constraint applies, which switches the list
// into filtered mode.
func (f Filters) Active() bool {
	return f.Search != "" || f.Status != "" || f.Priority != "" || f.Assignee != ""
}

// QueryMode selects how much of the matching set one fetch requests.
// It is either Paginated or Unbounded.
type QueryMode interface {
	pageAndLimit() (page, limit int)
}

// Paginated requests one server page.
type Paginated struct {
	Page  int
	Limit int
}

func (m Paginated) pageAndLimit() (int, int) { return m.Page, m.Limit }

// Unbounded requests the whole matching set as page 1, capped at CapLimit.
type Unbounded struct {
	CapLimit int
}

func (m Unbounded) pageAndLimit() (int, int) { return 1, m.CapLimit }

// ModeFor picks the query mode: filtered lists are fetched whole, everything
// else page by page.
func ModeFor(f Filters, page, pageSize, capLimit int) QueryMode {
	if f.Active() {
		return Unbounded{CapLimit: capLimit}
	}
	if page < 1 {
		page = 1
	}
	return Paginated{Page: page, Limit: pageSize}
}

// BuildQuery turns filters and a mode into a backend query.
func BuildQuery(f Filters, mode QueryMode) service.TaskQuery {
	page, limit := mode.pageAndLimit()
	return service.TaskQuery{
		Search:     f.Search,
		Status:     f.Status,
		Priority:   f.Priority,
		AssignedTo: f.Assignee,
		Page:       page,
		Limit:      limit,
	}
}
