package vacancy

import (
	"fmt"
	"io"
	"sort"

	"github.com/project-tktt/go-vacancies/internal/domain"
)

// Collection is an ordered, append-only set of entities owned by the caller.
// It is not safe for concurrent use: TopN reorders the shared storage in place.
type Collection struct {
	items []*Entity
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{}
}

// Add wraps each record into an entity and appends it
func (c *Collection) Add(records ...domain.Record) []*Entity {
	added := make([]*Entity, 0, len(records))
	for _, r := range records {
		e := NewEntity(r)
		c.items = append(c.items, e)
		added = append(added, e)
	}
	return added
}

// Len returns the number of entities
func (c *Collection) Len() int {
	return len(c.items)
}

// All returns the entities in their current order
func (c *Collection) All() []*Entity {
	out := make([]*Entity, len(c.items))
	copy(out, c.items)
	return out
}

// Clear drops every entity
func (c *Collection) Clear() {
	c.items = nil
}

// TopN sorts the whole collection by display salary, highest first, and returns
// the first n entities. The new order is kept as a side effect.
func (c *Collection) TopN(n int) []*Entity {
	if n <= 0 {
		return []*Entity{}
	}

	sort.SliceStable(c.items, func(i, j int) bool {
		return Less(c.items[j], c.items[i])
	})

	n = min(n, len(c.items))
	out := make([]*Entity, n)
	copy(out, c.items[:n])
	return out
}

// Display prints every entity followed by a total line
func (c *Collection) Display(w io.Writer) error {
	for _, e := range c.items {
		if _, err := fmt.Fprintf(w, "%s\n\n", e); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total vacancies: %d\n", len(c.items))
	return err
}
