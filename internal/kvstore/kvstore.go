// Package kvstore is the durable key-value store shared by every vigil
// process: the daemon, the CLI, the watch TUI and the remote-action server.
//
// Values are opaque bytes, usually JSON. Readers must not cache values across
// calls because another process may have written in between.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the replacement. Returning a nil slice deletes the key.
type UpdateFunc func(current []byte) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Update performs an atomic read-modify-write of key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// GetJSON decodes the value at key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// UpdateJSON atomically decodes the value at key into a T, applies fn and
// writes the result back. A missing or undecodable value starts from the
// zero T. If fn reports remove, the key is deleted.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(v *T) (remove bool, err error)) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		var v T
		if len(current) > 0 {
			if err := json.Unmarshal(current, &v); err != nil {
				var zero T
				v = zero
			}
		}
		remove, err := fn(&v)
		if err != nil {
			return nil, err
		}
		if remove {
			return nil, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		return data, nil
	})
}
