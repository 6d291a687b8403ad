// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/timeouts"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The
// reference timezone must be anchored here, before any request parses or
// formats a civil date.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := civildate.SetZone(appCfg.ReferenceTimezone); err != nil {
		return err
	}
	logger.Info("reference timezone anchored", zap.String("zone", appCfg.ReferenceTimezone))

	timeouts.Configure(appCfg.TimeoutPing, appCfg.TimeoutShort, appCfg.TimeoutMedium, appCfg.TimeoutLong)

	if err := deps.Reminder.Start(); err != nil {
		return err
	}
	return nil
}
