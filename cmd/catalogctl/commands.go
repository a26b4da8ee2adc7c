package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AsyncXeNo/zenrenne-backend/app/database"
	"github.com/AsyncXeNo/zenrenne-backend/app/importer"
	"github.com/AsyncXeNo/zenrenne-backend/app/middleware"
)

var (
	confirmDelete bool
	tokenSubject  string
	tokenTTL      time.Duration
)

func init() {
	deleteProductsCmd.Flags().BoolVar(&confirmDelete, "yes", false, "Confirm removal of every product")
	deleteVariantsCmd.Flags().BoolVar(&confirmDelete, "yes", false, "Confirm removal of every variant")
	deleteImagesCmd.Flags().BoolVar(&confirmDelete, "yes", false, "Confirm removal of every variant image")
	deleteAudioCmd.Flags().BoolVar(&confirmDelete, "yes", false, "Confirm removal of every audio track")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "catalogctl", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(
		migrateCmd,
		importModelsCmd,
		createProductsCmd,
		createVariantsCmd,
		addImagesCmd,
		addAudioCmd,
		undoSubmodelsCmd,
		listModelsCmd,
		listProductsCmd,
		listConnectionsCmd,
		listVariantsCmd,
		infoCmd,
		deleteProductsCmd,
		deleteVariantsCmd,
		deleteImagesCmd,
		deleteAudioCmd,
		tokenCmd,
	)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(cmd.Context(), db, dbOpts); err != nil {
			return err
		}
		log.Info().Str("driver", dbOpts.Driver).Msg("schema up to date")
		return nil
	},
}

var importModelsCmd = &cobra.Command{
	Use:   "import-models [sheet.csv]",
	Short: "Create makes, models and sub-models from a make,model,submodel sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := parseFile(args[0], importer.ParseModelRows)
		if err != nil {
			return err
		}
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		s, err := im.ImportModels(cmd.Context(), rows)
		logSummary("import-models", s)
		return err
	},
}

var createProductsCmd = &cobra.Command{
	Use:   "create-products",
	Short: "Create one product per leaf model and connect it to the model's chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		s, err := im.CreateProducts(cmd.Context())
		logSummary("create-products", s)
		return err
	},
}

var createVariantsCmd = &cobra.Command{
	Use:   "create-variants",
	Short: "Give every product the standard variants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		s, err := im.CreateVariants(cmd.Context())
		logSummary("create-variants", s)
		return err
	},
}

var addImagesCmd = &cobra.Command{
	Use:   "add-images [folders.csv] [images-dir]",
	Short: "Import variant images from per-variant folders",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := parseFile(args[0], importer.ParseFolderRows)
		if err != nil {
			return err
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		s, err := im.AddImages(cmd.Context(), rows, osfs.New(args[1]))
		logSummary("add-images", s)
		return err
	},
}

var addAudioCmd = &cobra.Command{
	Use:   "add-audio [folders.csv] [audio-dir]",
	Short: "Import variant audio tracks from per-variant folders",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := parseFile(args[0], importer.ParseFolderRows)
		if err != nil {
			return err
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		s, err := im.AddAudio(cmd.Context(), rows, osfs.New(args[1]))
		logSummary("add-audio", s)
		return err
	},
}

var undoSubmodelsCmd = &cobra.Command{
	Use:   "undo-submodels [sheet.csv]",
	Short: "Remove the sub-models a make,model,submodel sheet created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := parseFile(args[0], importer.ParseModelRows)
		if err != nil {
			return err
		}
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		s, err := im.UndoSubmodels(cmd.Context(), rows)
		logSummary("undo-submodels", s)
		return err
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List every car model with its parent and display name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		entries, err := im.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No car models found")
			return nil
		}
		for _, e := range entries {
			if e.Err != nil {
				fmt.Fprintf(out, "%d\t%s\t(unresolved: %v)\n", e.Model.ID, e.Model.Name, e.Err)
				continue
			}
			fmt.Fprintf(out, "%d\t%s\tparent: %s\t%s\n", e.Model.ID, e.Model.Name, e.Parent, e.DisplayName)
		}
		return nil
	},
}

var listProductsCmd = &cobra.Command{
	Use:   "list-products",
	Short: "List every product name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		products, err := im.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(products) == 0 {
			fmt.Fprintln(out, "No products found")
			return nil
		}
		for _, p := range products {
			fmt.Fprintf(out, "%d\t%s\n", p.ID, p.Name)
		}
		return nil
	},
}

var listConnectionsCmd = &cobra.Command{
	Use:   "list-connections",
	Short: "List every product connection with the connected make or model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		entries, err := im.ListConnections(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No product connections found")
			return nil
		}
		for _, e := range entries {
			if e.Err != nil {
				fmt.Fprintf(out, "%s\t%s\t(unresolved: %v)\n", e.Product, e.Link.Parent(), e.Err)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", e.Product, e.Link.Parent(), e.Parent)
		}
		return nil
	},
}

var listVariantsCmd = &cobra.Command{
	Use:   "list-variants",
	Short: "List every variant with its product",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		entries, err := im.ListVariants(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No variants found")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%d\t%s\t%s\n", e.Variant.ID, e.Variant.Name, e.Product)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Count variants with images and with audio tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, err := newImporter()
		if err != nil {
			return err
		}
		withImages, withAudio, err := im.MediaCounts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Variants with images: %d\nVariants with audio tracks: %d\n", withImages, withAudio)
		return nil
	},
}

var deleteProductsCmd = &cobra.Command{
	Use:   "delete-products",
	Short: "Remove every product with its connections, variants and media",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDelete {
			return errors.New("refusing to delete every product without --yes")
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		links, products, err := im.DeleteProducts(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int64("connections", links).Int64("products", products).Msg("products deleted")
		return nil
	},
}

var deleteVariantsCmd = &cobra.Command{
	Use:   "delete-variants",
	Short: "Remove every variant with its media, keeping the products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDelete {
			return errors.New("refusing to delete every variant without --yes")
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		n, err := im.DeleteVariants(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int64("variants", n).Msg("variants deleted")
		return nil
	},
}

var deleteImagesCmd = &cobra.Command{
	Use:   "delete-images",
	Short: "Remove every variant image and its file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDelete {
			return errors.New("refusing to delete every image without --yes")
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		n, err := im.DeleteImages(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("images", n).Msg("images deleted")
		return nil
	},
}

var deleteAudioCmd = &cobra.Command{
	Use:   "delete-audio",
	Short: "Remove every audio track and its file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDelete {
			return errors.New("refusing to delete every audio track without --yes")
		}
		im, files, err := newImporter()
		if err != nil {
			return err
		}
		defer files.Wait()
		n, err := im.DeleteAudio(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("tracks", n).Msg("audio tracks deleted")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an admin token signed with JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		token, err := middleware.NewAuth(cfg.JWTSecret).Issue(tokenSubject, middleware.RoleAdmin, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func parseFile[T any](name string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rows, nil
}

func logSummary(job string, s importer.Summary) {
	log.Info().
		Int("created", s.Created).
		Int("existing", s.Existing).
		Int("removed", s.Removed).
		Int("skipped", s.Skipped).
		Msg(job + " finished")
}
