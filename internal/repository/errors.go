package repository

import "errors"

// ErrStaleVersion is returned when a manifest write loses the optimistic concurrency check
var ErrStaleVersion = errors.New("shipment was modified by another request")
