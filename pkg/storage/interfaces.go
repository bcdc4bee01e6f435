package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob and its content type.
type Object struct {
	Body        []byte
	ContentType string
}

type ObjectStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, obj *Object) error
	Delete(ctx context.Context, key string) error
}
