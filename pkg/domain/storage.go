package domain

import "context"

// Storage is the key/value contract a collection persists documents through.
// Read returns (nil, nil) when the key is absent from an existing location.
type Storage interface {
	CreateLocation(ctx context.Context, location string) error
	GetList(ctx context.Context, location string) ([]string, error)
	Read(ctx context.Context, location, key string) (Document, error)
	Write(ctx context.Context, location, key string, doc Document) error
	Remove(ctx context.Context, location, key string) error
}
