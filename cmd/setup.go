package main

import (
	"context"
	"os"

	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if needed, opens the match cache
// database, and brings its schema up to date.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.config = config
	} else {
		r.logger.Info("creating config file", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.config = config
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	return r.writePlainln("Database ready at %s", r.config.Database.Path)
}
