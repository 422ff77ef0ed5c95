package record

import (
	"context"
	"sync"
)

// lazyRecords loads a directory once. A failed load is retried on the next
// call.
type lazyRecords struct {
	mu      sync.Mutex
	loaded  bool
	records []Record
}

func (c *lazyRecords) get(ctx context.Context, load func(context.Context) ([]Record, error)) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		recs, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := Validate(recs); err != nil {
			return nil, err
		}
		c.records = recs
		c.loaded = true
	}
	return cloneRecords(c.records), nil
}

func (c *lazyRecords) reset() {
	c.mu.Lock()
	c.loaded = false
	c.records = nil
	c.mu.Unlock()
}
