package bootstrap

import (
	"errors"

	"go.uber.org/zap"
)

// Shutdown closes the gateway first so no new events arrive, then flushes the
// reporter queue into the archive, then closes the database.
// The ops server is stopped by Run when its context ends.
func Shutdown(c *Components, log *zap.Logger) error {
	log.Info("Starting graceful shutdown...")

	var errs []error
	if c.Session != nil {
		log.Info("Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Reporter != nil {
		log.Info("Stopping reporter...")
		c.Reporter.Close()
	}

	if c.Database != nil {
		log.Info("Closing database...")
		if err := c.Database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	log.Info("Graceful shutdown complete")
	return errors.Join(errs...)
}
