package repository

import "errors"

var (
	ErrSnapshotNotFound = errors.New("ticket config snapshot not found")
)
