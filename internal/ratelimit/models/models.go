// Package models defines the rate limiting vocabulary shared by the bucket
// stores and the HTTP middleware.
package models

import "time"

// Limit is the budget for one bucket: at most Limit requests per Window.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Key builds the store key for a caller within a bucket. The bucket is the
// operation name, so each operation is limited independently.
func Key(bucket, caller string) string {
	return bucket + ":" + caller
}
