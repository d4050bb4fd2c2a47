package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule registers a forced import on the given cron spec and starts the scheduler.
// The returned cron must be stopped by the caller.
func Schedule(ctx context.Context, imp *Importer, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := imp.Run(ctx, true); err != nil && !errors.Is(err, ErrImportRunning) {
			imp.log.Error("Scheduled import failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid import schedule %q: %w", spec, err)
	}
	c.Start()
	imp.log.Info("Import scheduler started", "schedule", spec)
	return c, nil
}
