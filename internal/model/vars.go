package model

import "github.com/zeromicro/go-zero/core/stores/sqlc"

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = sqlc.ErrNotFound
