package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/adfharrison1/go-docdb/pkg/cursor"
	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/query"
)

var paginationParams = map[string]bool{"limit": true, "offset": true, "after": true}

// HandleFind handles POST requests running the JSON query in the body.
// Results are paginated with the limit, offset and after query parameters.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	q, err := decodeQuery(r.Body)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.find(w, r, c.Name(), func(ctx context.Context) (*cursor.Cursor, error) {
		return c.Find(ctx, q)
	})
}

// HandleFindByParams handles GET requests where every non-pagination query
// parameter is an equality clause. Numeric values are matched as numbers.
func (h *Handler) HandleFindByParams(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	q := query.Query{}
	for key, values := range r.URL.Query() {
		if paginationParams[key] || len(values) == 0 {
			continue
		}
		value := values[0]
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			q[key] = num
		} else {
			q[key] = value
		}
	}
	h.find(w, r, c.Name(), func(ctx context.Context) (*cursor.Cursor, error) {
		return c.Find(ctx, q)
	})
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request, collName string, run func(context.Context) (*cursor.Cursor, error)) {
	opts, err := parsePagination(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	cur, err := run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collName).Msg("find failed")
		WriteError(w, err)
		return
	}

	result, err := Page(r.Context(), cur, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collName).Msg("loading find results failed")
		WriteError(w, err)
		return
	}

	h.logger.Info().
		Str("collection", collName).
		Int("total", result.Total).
		Int("returned", len(result.Documents)).
		Msg("find completed")
	writeJSON(w, http.StatusOK, result)
}

func decodeQuery(body io.Reader) (query.Query, error) {
	q := query.Query{}
	if err := json.NewDecoder(body).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	return q, nil
}

func parsePagination(r *http.Request) (*domain.PaginationOptions, error) {
	opts := domain.DefaultPaginationOptions()
	params := r.URL.Query()

	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidQuery, name)
		}
		*dst = n
	}
	opts.After = params.Get("after")

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	return opts, nil
}

// Page loads one page of a find result. A limit of zero returns every key
// from the start position.
func Page(ctx context.Context, cur *cursor.Cursor, opts *domain.PaginationOptions) (*domain.PaginationResult, error) {
	keys := cur.Keys()

	start := opts.Offset
	if opts.After != "" {
		pc, err := domain.DecodeCursor(opts.After)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
		}
		start = sort.SearchStrings(keys, pc.Key)
		if start < len(keys) && keys[start] == pc.Key {
			start++
		}
	}
	if start > len(keys) {
		start = len(keys)
	}
	end := len(keys)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	loaded, docs, err := cur.Fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}

	result := &domain.PaginationResult{
		Documents: docs,
		Keys:      loaded,
		HasNext:   end < len(keys),
		Total:     len(keys),
	}
	if result.HasNext {
		next, err := domain.EncodeCursor(&domain.PageCursor{Key: keys[end-1]})
		if err != nil {
			return nil, err
		}
		result.NextCursor = next
	}
	return result, nil
}
