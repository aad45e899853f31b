package cli

import (
	"context"

	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
)

// openStore connects to the configured run store. The returned func closes
// the pool.
func (o *RootOptions) openStore(ctx context.Context) (*postgres.SampleRepository, func(), error) {
	if !o.Config.Database.Enabled {
		return nil, nil, NewExitError(ExitCommandError, "no run store configured: set database.enabled")
	}
	pool, err := postgres.NewPool(ctx, o.Config.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "connecting to run store", err)
	}
	if err := pool.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, WrapExitError(ExitCommandError, "opening run store", err)
	}
	return postgres.NewSampleRepository(pool.DB()), pool.Close, nil
}
