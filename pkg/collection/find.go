package collection

import (
	"context"
	"sort"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/cursor"
	"github.com/adfharrison1/go-docdb/pkg/indexing"
	"github.com/adfharrison1/go-docdb/pkg/query"
)

// keySet is a set of primary keys; a nil keySet stands for every key
type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// within keeps the keys that are also in scope
func within(keys []string, scope keySet) []string {
	if scope == nil {
		return keys
	}
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := scope[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

type step struct {
	clause  query.Clause
	indexed bool
	caps    indexing.Capabilities
}

func (s step) compare() query.CompareFunc {
	if s.caps.Fold {
		return indexing.CompareFold
	}
	return indexing.Compare
}

// rank orders evaluation: exact index lookups, then lossy ones, then scans
func (s step) rank() int {
	switch {
	case s.indexed && s.caps.Exact:
		return 0
	case s.indexed:
		return 1
	}
	return 2
}

func supports(caps indexing.Capabilities, op query.Operator) bool {
	switch {
	case op == query.OpEq || op == query.OpNeq || op == query.OpIn || op == query.OpNin:
		return true
	case op.IsRange():
		// prefix buckets do not sort like the strings they hold
		return caps.Comparable && caps.Monotonic
	case op == query.OpEmpty:
		return caps.Predicate
	}
	return false
}

// Find returns a cursor over the sorted keys of documents matching every clause of q.
// An empty query matches every document.
func (c *Collection) Find(ctx context.Context, q query.Query) (*cursor.Cursor, error) {
	start := time.Now()
	clauses, err := query.Parse(q)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	c.loads.Store(0)

	steps, err := c.plan(clauses)
	if err != nil {
		return nil, err
	}

	var matched keySet
	for _, s := range steps {
		if matched != nil && len(matched) == 0 {
			break
		}
		keys, err := c.evaluate(ctx, s, matched)
		if err != nil {
			return nil, err
		}
		matched = newKeySet(keys)
	}

	var keys []string
	if matched == nil {
		keys = c.sortedKeys()
	} else {
		keys = make([]string, 0, len(matched))
		for k := range matched {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	findDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	c.logger.Debug().
		Int("clauses", len(steps)).
		Int("matches", len(keys)).
		Int64("loads", c.loads.Load()).
		Dur("took", time.Since(start)).
		Msg("find")

	return cursor.New(keys, c), nil
}

// plan validates every operand up front and orders the clauses for evaluation
func (c *Collection) plan(clauses []query.Clause) ([]step, error) {
	steps := make([]step, 0, len(clauses))
	for _, cl := range clauses {
		s := step{clause: cl}
		if caps, ok := c.indexes.Capabilities(cl.Field); ok {
			s.caps = caps
			s.indexed = supports(caps, cl.Op)
			switch {
			case cl.Op == query.OpEq || cl.Op == query.OpNeq || cl.Op.IsRange():
				if err := c.indexes.CheckOperand(cl.Field, cl.Operand); err != nil {
					return nil, err
				}
			case cl.Op == query.OpIn || cl.Op == query.OpNin:
				for _, v := range cl.Operand.([]interface{}) {
					if err := c.indexes.CheckOperand(cl.Field, v); err != nil {
						return nil, err
					}
				}
			}
		}
		steps = append(steps, s)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].rank() < steps[j].rank() })
	return steps, nil
}

// evaluate returns the keys in scope matching one clause
func (c *Collection) evaluate(ctx context.Context, s step, scope keySet) ([]string, error) {
	if !s.indexed {
		return c.confirm(ctx, c.scopeKeys(scope), s)
	}

	cl := s.clause
	switch {
	case cl.Op == query.OpEq:
		keys, err := c.indexes.GetIndexedKeys(cl.Field, cl.Operand)
		if err != nil {
			return nil, err
		}
		keys = within(keys, scope)
		if s.caps.Exact {
			return keys, nil
		}
		return c.confirm(ctx, keys, s)

	case cl.Op == query.OpNeq || cl.Op == query.OpNin:
		positive := s
		positive.clause.Op = query.OpEq
		if cl.Op == query.OpNin {
			positive.clause.Op = query.OpIn
		}
		matched, err := c.evaluate(ctx, positive, scope)
		if err != nil {
			return nil, err
		}
		excluded := newKeySet(matched)
		var keys []string
		for _, k := range c.scopeKeys(scope) {
			if _, ok := excluded[k]; !ok {
				keys = append(keys, k)
			}
		}
		return keys, nil

	case cl.Op == query.OpIn:
		seen := make(keySet)
		var keys []string
		for _, v := range cl.Operand.([]interface{}) {
			found, err := c.indexes.GetIndexedKeys(cl.Field, v)
			if err != nil {
				return nil, err
			}
			for _, k := range within(found, scope) {
				if _, dup := seen[k]; !dup {
					seen[k] = struct{}{}
					keys = append(keys, k)
				}
			}
		}
		if s.caps.Exact {
			return keys, nil
		}
		return c.confirm(ctx, keys, s)

	case cl.Op.IsRange():
		return c.evaluateRange(ctx, s, scope)

	case cl.Op == query.OpEmpty:
		keys, err := c.indexes.GetIndexedKeys(cl.Field, !cl.Operand.(bool))
		if err != nil {
			return nil, err
		}
		return within(keys, scope), nil
	}
	return c.confirm(ctx, c.scopeKeys(scope), s)
}

// evaluateRange combines the buckets strictly beyond the operand's bucket with
// the operand's own bucket. Only what the index cannot vouch for is loaded.
// The index must be monotonic, see supports.
func (c *Collection) evaluateRange(ctx context.Context, s step, scope keySet) ([]string, error) {
	cl := s.clause
	var (
		beyond []string
		err    error
	)
	if cl.Op == query.OpGt || cl.Op == query.OpGte {
		beyond, err = c.indexes.GetGreaterIndexKeys(cl.Field, cl.Operand)
	} else {
		beyond, err = c.indexes.GetLesserIndexKeys(cl.Field, cl.Operand)
	}
	if err != nil {
		return nil, err
	}
	border, err := c.indexes.GetIndexedKeys(cl.Field, cl.Operand)
	if err != nil {
		return nil, err
	}
	beyond = within(beyond, scope)
	border = within(border, scope)

	if s.caps.Exact {
		if cl.Op == query.OpGte || cl.Op == query.OpLte {
			return append(beyond, border...), nil
		}
		return beyond, nil
	}
	confirmed, err := c.confirm(ctx, border, s)
	if err != nil {
		return nil, err
	}
	return append(beyond, confirmed...), nil
}

// confirm loads keys in batches and keeps those whose document matches the clause
func (c *Collection) confirm(ctx context.Context, keys []string, s step) ([]string, error) {
	cmp := s.compare()
	var matched []string
	for start := 0; start < len(keys); start += c.batchSize {
		batch := keys[start:min(start+c.batchSize, len(keys))]
		docs, err := c.loadMany(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, doc := range docs {
			if doc != nil && s.clause.Matches(doc, cmp) {
				matched = append(matched, batch[i])
			}
		}
	}
	return matched, nil
}

func (c *Collection) scopeKeys(scope keySet) []string {
	if scope == nil {
		return c.sortedKeys()
	}
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
