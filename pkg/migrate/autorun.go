package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeAutoRun brings the schema up at boot. sqlite databases are always
// migrated with gorm AutoMigrate. Other drivers run the goose migrations only
// when the auto-migrate flag is on.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	driver := client.Driver()

	if driver == config.DBDriverSQLite {
		logg.Info(logg.WithField(ctx, "driver", driver), "running gorm auto-migrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("gorm auto-migrate: %w", err)
		}
		return nil
	}

	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dir := DirFor(DefaultDir, driver)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": driver, "dir": dir})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, driver, dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
