package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/config"
	"github.com/tbourn/go-video-rental/internal/repo"
	"github.com/tbourn/go-video-rental/internal/sysutil"
)

// cli carries state shared by every subcommand once PersistentPreRunE ran.
type cli struct {
	envFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "videorental",
		Short:         "Video rental API server and maintenance commands",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing is fine)")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newAdminCmd(c),
	)
	return root
}

// load applies the dotenv file, reads configuration, and installs logging.
// Variables already present in the environment win over the file.
func (c *cli) load(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.cfg = cfg
	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.InitLogger(cmd.ErrOrStderr(), cfg.LogPretty, cfg.OTEL.ServiceName)
	return nil
}

// openStore connects to the configured store and brings the schema up to
// date. Callers own the returned handle.
func (c *cli) openStore(ctx context.Context) (*gorm.DB, error) {
	db, err := repo.Open(ctx, c.cfg.Store, c.cfg.OTEL.Enabled)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = repo.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
