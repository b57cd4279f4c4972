package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// PaginationOptions defines pagination parameters for a find result
type PaginationOptions struct {
	// Cursor-based pagination: resume after the key encoded in After
	After string `json:"after,omitempty"`

	// Limit/offset pagination (fallback)
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	MaxLimit int `json:"max_limit,omitempty"`
}

// PaginationResult contains one page of documents and its metadata
type PaginationResult struct {
	Documents  []Document `json:"documents"`
	Keys       []string   `json:"keys"`
	HasNext    bool       `json:"has_next"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Total      int        `json:"total"`
}

// PageCursor marks the last key returned on a page
type PageCursor struct {
	Key string `json:"key"`
}

// EncodeCursor encodes a cursor to base64
func EncodeCursor(cursor *PageCursor) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor decodes a base64 cursor
func DecodeCursor(encoded string) (*PageCursor, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	var cursor PageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}

// DefaultPaginationOptions returns default pagination settings
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		Limit:    50,
		MaxLimit: 1000,
	}
}

// Validate validates pagination options
func (po *PaginationOptions) Validate() error {
	if po.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if po.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if po.MaxLimit > 0 && po.Limit > po.MaxLimit {
		return fmt.Errorf("limit %d exceeds maximum %d", po.Limit, po.MaxLimit)
	}

	if po.After != "" && po.Offset > 0 {
		return fmt.Errorf("cannot mix cursor-based and offset-based pagination")
	}

	return nil
}
