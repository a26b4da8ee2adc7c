// Command catalogctl runs bulk maintenance jobs against the catalog
// database: migrations, taxonomy import and undo, product and variant
// generation, media import, listings and bulk cleanup.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/AsyncXeNo/zenrenne-backend/app/database"
	"github.com/AsyncXeNo/zenrenne-backend/app/importer"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/config"
	"github.com/AsyncXeNo/zenrenne-backend/hierarchy"
)

var (
	cfg     *config.Config
	dbOpts  database.Options
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Bulk maintenance for the ZenRenne catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		dbOpts = database.Options{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every record touched")
}

// openDB connects with the loaded configuration.
func openDB() (*gorm.DB, error) {
	return database.New(dbOpts)
}

// newImporter connects and builds an importer over the configured media
// storage.
func newImporter() (*importer.Importer, *storage.Storage, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	files, err := storage.NewLocal(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return nil, nil, err
	}
	var opts []hierarchy.Option
	if cfg.MaxHierarchyDepth > 0 {
		opts = append(opts, hierarchy.WithMaxDepth(cfg.MaxHierarchyDepth))
	}
	return importer.New(db, files, log.Logger, opts...), files, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
