package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vampbrain/SafeSteps/internal/district"
	"github.com/vampbrain/SafeSteps/internal/store"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "Manage district boundary polygons",
}

var districtsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import district boundaries from a shapefile into the local store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shapefile, _ := cmd.Flags().GetString("shapefile")
		nameField, _ := cmd.Flags().GetString("name-field")
		dbPath := flagOrConfigDB(cmd)

		districts, err := district.ImportShapefile(shapefile, nameField)
		if err != nil {
			return err
		}

		db, err := store.NewSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		n, err := db.ReplaceDistricts(ctx, districts)
		if err != nil {
			return err
		}

		zap.L().Info("districts imported",
			zap.String("shapefile", shapefile),
			zap.String("db", dbPath),
			zap.Int64("count", n))
		return nil
	},
}

func init() {
	f := districtsImportCmd.Flags()
	f.String("shapefile", "", "path to the boundary shapefile (required)")
	f.String("name-field", "DISTRICT", "attribute field carrying the district name")
	f.String("db", "", "SQLite database path (default from config)")
	_ = districtsImportCmd.MarkFlagRequired("shapefile")

	districtsCmd.AddCommand(districtsImportCmd)
	rootCmd.AddCommand(districtsCmd)
}
