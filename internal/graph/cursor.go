package graph

import (
	"go.uber.org/zap"

	"github.com/appheap/tase/pkg/errors"
)

// Cursor is a lazy, finite, non-restartable sequence of decoded documents.
// Rows that fail to decode are dropped with a debug log entry instead of
// aborting the whole sequence; an integrity failure stops iteration and is
// reported through Err.
type Cursor[T Entity] struct {
	rows   []map[string]any
	idx    int
	cur    T
	err    error
	decode func(map[string]any) (T, error)
	log    *zap.Logger
}

func newCursor[T Entity](rows []map[string]any, decode func(map[string]any) (T, error), log *zap.Logger) *Cursor[T] {
	return &Cursor[T]{rows: rows, decode: decode, log: log}
}

// Next advances to the next decodable document.
func (c *Cursor[T]) Next() bool {
	if c.err != nil {
		return false
	}
	for c.idx < len(c.rows) {
		row := c.rows[c.idx]
		c.idx++

		doc, ok := row["doc"].(map[string]any)
		if !ok {
			c.log.Debug("row without document payload dropped")
			continue
		}
		v, err := c.decode(doc)
		if err != nil {
			if errors.IsType(err, errors.ErrorTypeIntegrity) {
				c.err = err
				return false
			}
			c.log.Debug("undecodable document dropped", zap.Error(err))
			continue
		}
		c.cur = v
		return true
	}
	return false
}

// Value returns the document produced by the last successful Next.
func (c *Cursor[T]) Value() T { return c.cur }

// Err returns the integrity error that stopped iteration, if any.
func (c *Cursor[T]) Err() error { return c.err }

// Collect drains the cursor into a slice.
func (c *Cursor[T]) Collect() []T {
	var out []T
	for c.Next() {
		out = append(out, c.Value())
	}
	return out
}
