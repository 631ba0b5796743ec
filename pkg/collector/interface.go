package collector

import (
	"context"

	"SodiumWatch/pkg/gateway"
)

// MealRecorder records one meal for an already resolved user.
// *gateway.Service implements it.
type MealRecorder interface {
	RecordFor(ctx context.Context, id *gateway.Identity, in gateway.MealInput) (*gateway.RecordResult, error)
}
