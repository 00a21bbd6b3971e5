package tasks

import (
	"fmt"
	"slices"
)

// Filter selects tasks by status; FilterAll passes everything
type Filter string

// FilterAll matches every task
const FilterAll Filter = "all"

// ParseFilter validates a filter value. Empty means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" || Filter(s) == FilterAll {
		return FilterAll, nil
	}
	if !Status(s).Valid() {
		return "", &ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", s)}
	}
	return Filter(s), nil
}

// Match reports whether t passes the filter
func (f Filter) Match(t Task) bool {
	return f == FilterAll || Status(f) == t.Status
}

// SortKey selects the ordering of a view
type SortKey string

const (
	SortByPriority SortKey = "priority"
	SortByStatus   SortKey = "status"
	SortByDate     SortKey = "date"
)

// SortKeys lists the sort modes in cycling order
var SortKeys = []SortKey{SortByPriority, SortByStatus, SortByDate}

// ParseSortKey validates a sort value. Empty means priority.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortByPriority, nil
	}
	key := SortKey(s)
	if _, ok := comparators[key]; !ok {
		return "", &ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort key %q", s)}
	}
	return key, nil
}

var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

var statusRank = map[Status]int{
	StatusInProgress: 0,
	StatusPending:    1,
	StatusCompleted:  2,
	StatusCancelled:  3,
}

// comparators holds one ordering per sort key. Views sort stably, so ties
// keep insertion order.
var comparators = map[SortKey]func(a, b Task) int{
	SortByPriority: func(a, b Task) int {
		return priorityRank[a.Priority] - priorityRank[b.Priority]
	},
	SortByStatus: func(a, b Task) int {
		return statusRank[a.Status] - statusRank[b.Status]
	},
	SortByDate: func(a, b Task) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	},
}

// project filters and stable-sorts a copy of list
func project(list []Task, filter Filter, key SortKey) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if filter.Match(t) {
			out = append(out, t.clone())
		}
	}
	slices.SortStableFunc(out, comparators[key])
	return out
}
