package portalclient

import (
	"context"
	"sync"
)

// YearView holds the latest result fetched for a selected survey year.
// Every load takes a new request token; a result is applied only while its
// token is still the newest, so a slow fetch for a previously selected year
// can never overwrite the current one.
type YearView[T any] struct {
	mu     sync.Mutex
	token  uint64
	year   int
	value  T
	loaded bool
}

// Begin starts a request and returns its token.
func (v *YearView[T]) Begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token++
	return v.token
}

// Apply stores value for year if token is still the latest request.
// It reports whether the value was applied.
func (v *YearView[T]) Apply(token uint64, year int, value T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.token {
		return false
	}
	v.year = year
	v.value = value
	v.loaded = true
	return true
}

// Current returns the applied year and value. ok is false before the first
// successful load.
func (v *YearView[T]) Current() (year int, value T, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.year, v.value, v.loaded
}

// Load fetches year and applies the result if no newer load started in the
// meantime. stale is true when the result was discarded.
func (v *YearView[T]) Load(ctx context.Context, year int, fetch func(context.Context, int) (T, error)) (value T, stale bool, err error) {
	token := v.Begin()
	value, err = fetch(ctx, year)
	if err != nil {
		return value, false, err
	}
	return value, !v.Apply(token, year, value), nil
}
