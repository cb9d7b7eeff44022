package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-video-rental/internal/repo"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and drop expired idempotency records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close(db) }()

			n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
			if err != nil {
				return err
			}
			log.Info().Str("store", c.cfg.Store.Driver).Int64("purged_idempotency", n).Msg("schema up to date")
			return nil
		},
	}
}
