package executor

import (
	"github.com/teemow/textcal/internal/plan"
)

// Entry describes a successfully applied operation.
type Entry struct {
	RemoteID string `json:"remoteId"`
	Link     string `json:"link,omitempty"`
	Title    string `json:"title,omitempty"`
}

// ErrorEntry describes a failed operation.
type ErrorEntry struct {
	Action   plan.Kind `json:"action"`
	RemoteID string    `json:"remoteId,omitempty"`
	Message  string    `json:"message"`
}

// PlanResult partitions the outcomes of one execution.
type PlanResult struct {
	Created []Entry      `json:"created"`
	Updated []Entry      `json:"updated"`
	Deleted []Entry      `json:"deleted"`
	Errors  []ErrorEntry `json:"errors"`
}

// Total is the number of outcomes the result was built from.
func (r PlanResult) Total() int {
	return len(r.Created) + len(r.Updated) + len(r.Deleted) + len(r.Errors)
}

// Aggregate sorts outcomes into created, updated, deleted and errors,
// keeping their relative order. All four slices are non-nil.
func Aggregate(outcomes []Outcome) PlanResult {
	res := PlanResult{
		Created: []Entry{},
		Updated: []Entry{},
		Deleted: []Entry{},
		Errors:  []ErrorEntry{},
	}

	for _, o := range outcomes {
		if !o.Succeeded() {
			res.Errors = append(res.Errors, ErrorEntry{
				Action:   o.Action(),
				RemoteID: o.RemoteID,
				Message:  o.Error,
			})
			continue
		}

		entry := Entry{RemoteID: o.RemoteID, Link: o.RemoteLink, Title: o.Title()}
		switch o.Action() {
		case plan.KindCreate:
			res.Created = append(res.Created, entry)
		case plan.KindUpdate:
			res.Updated = append(res.Updated, entry)
		case plan.KindDelete:
			entry.Link = ""
			res.Deleted = append(res.Deleted, entry)
		}
	}

	return res
}
