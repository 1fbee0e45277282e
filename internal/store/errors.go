package store

import "errors"

var (
	ErrNotFound         = errors.New("survey response not found")
	ErrCorruptResponse  = errors.New("stored response data is not a JSON object")
	ErrUnsupportedYear  = errors.New("unsupported survey year")
	ErrUnsupportedStore = errors.New("unsupported database driver")
)
