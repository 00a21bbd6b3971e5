package cache

import (
	"fmt"
	"time"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/tasks"
)

// Task view cache keys
const (
	KeyTaskViewPrefix = "tasks:view"
	KeyTaskStats      = "tasks:stats"
)

// ViewKey names a projection of the task list at a given revision
func ViewKey(filter tasks.Filter, key tasks.SortKey, revision uint64) string {
	return fmt.Sprintf("%s:%s:%s:%d", KeyTaskViewPrefix, filter, key, revision)
}

// StatsKey names the stats snapshot at a given revision
func StatsKey(revision uint64) string {
	return fmt.Sprintf("%s:%d", KeyTaskStats, revision)
}

// ViewCache is a specialized cache for task projections. Entries are keyed
// by store revision, so a mutation makes older entries unreachable.
type ViewCache struct {
	*Cache
	store *tasks.Store
}

// NewViewCache creates a view cache over store with a short TTL
func NewViewCache(store *tasks.Store, ttl time.Duration, c clock.Clock) *ViewCache {
	if c == nil {
		c = clock.Real{}
	}
	return &ViewCache{
		Cache: NewWithClock(ttl, c),
		store: store,
	}
}

// View returns the filtered and sorted tasks, served from cache while the
// store revision is unchanged
func (v *ViewCache) View(filter tasks.Filter, key tasks.SortKey) ([]tasks.Task, error) {
	cacheKey := ViewKey(filter, key, v.store.Revision())
	if cached, found := v.Get(cacheKey); found {
		return cloneTasks(cached.([]tasks.Task)), nil
	}

	list, rev, err := v.store.ViewWithRevision(filter, key)
	if err != nil {
		return nil, err
	}

	v.Set(ViewKey(filter, key, rev), list)
	return cloneTasks(list), nil
}

// Stats returns per-status counts, cached per revision
func (v *ViewCache) Stats() tasks.Stats {
	value, _ := v.GetOrSet(StatsKey(v.store.Revision()), func() (interface{}, error) {
		return v.store.Stats(), nil
	})
	return cloneStats(value.(tasks.Stats))
}

func cloneStats(s tasks.Stats) tasks.Stats {
	byStatus := make(map[tasks.Status]int, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[status] = n
	}
	s.ByStatus = byStatus
	return s
}

func cloneTasks(list []tasks.Task) []tasks.Task {
	out := make([]tasks.Task, len(list))
	for i, t := range list {
		t.Tags = append([]string{}, t.Tags...)
		if t.DueDate != nil {
			d := *t.DueDate
			t.DueDate = &d
		}
		out[i] = t
	}
	return out
}
