package store

import (
	"context"

	"finboard/internal/core"
)

// SelectionStore persists the selected tenant across client runs. Load
// returns (nil, nil) when nothing is stored; Save then Load must reproduce
// an equal Tenant; Clear removes the entry entirely.
type SelectionStore interface {
	Load(ctx context.Context) (*core.Tenant, error)
	Save(ctx context.Context, t core.Tenant) error
	Clear(ctx context.Context) error
}
