package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry records one moderation action taken through the admin surface.
type Entry struct {
	Actor    string         `bson:"actor" json:"actor"`
	Action   string         `bson:"action" json:"action"`
	Entity   string         `bson:"entity" json:"entity"`
	EntityID uint           `bson:"entity_id" json:"entityId"`
	At       time.Time      `bson:"at" json:"at"`
	Details  map[string]any `bson:"details,omitempty" json:"details,omitempty"`
}

type Log interface {
	Record(ctx context.Context, e Entry) error
	Latest(ctx context.Context, limit int) ([]Entry, error)
}

// Memory is the in-process Log used when no MongoDB is configured.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Latest(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	out := append([]Entry(nil), m.entries...)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
