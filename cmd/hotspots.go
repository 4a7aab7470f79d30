package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vampbrain/SafeSteps/internal/hotspot"
	"github.com/vampbrain/SafeSteps/internal/store"
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Manage the local hotspot dataset",
}

var hotspotsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hotspots from CSV, XLSX or GeoJSON into the local store",
	RunE:  runHotspotsImport,
}

var hotspotsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored hotspot dataset by category",
	RunE:  runHotspotsStatus,
}

func init() {
	f := hotspotsImportCmd.Flags()
	f.String("from", "csv", "input format: csv, xlsx or geojson")
	f.String("file", "", "input file path (required)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.String("db", "", "SQLite database path (default from config)")
	_ = hotspotsImportCmd.MarkFlagRequired("file")

	hotspotsStatusCmd.Flags().String("db", "", "SQLite database path (default from config)")

	hotspotsCmd.AddCommand(hotspotsImportCmd)
	hotspotsCmd.AddCommand(hotspotsStatusCmd)
	rootCmd.AddCommand(hotspotsCmd)
}

func runHotspotsImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("import"); err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from")
	file, _ := cmd.Flags().GetString("file")
	sheet, _ := cmd.Flags().GetString("sheet")
	dbPath := flagOrConfigDB(cmd)

	profile := hotspot.DefaultProfile()
	if cfg.Hotspots.ProfilePath != "" {
		var err error
		profile, err = hotspot.LoadProfile(cfg.Hotspots.ProfilePath)
		if err != nil {
			return err
		}
	}

	var source hotspot.Source
	switch from {
	case "csv":
		source = hotspot.CSVSource{Path: file, Profile: profile}
	case "xlsx":
		source = hotspot.XLSXSource{Path: file, SheetName: sheet, Profile: profile}
	case "geojson":
		source = hotspot.GeoJSONSource{Path: file, Profile: profile}
	default:
		return eris.Errorf("hotspots: --from must be csv, xlsx or geojson (got %q)", from)
	}

	records, err := source.Load(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return eris.Errorf("hotspots: %s has no records", file)
	}

	db, err := store.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	n, err := db.ReplaceHotspots(ctx, records)
	if err != nil {
		return err
	}

	zap.L().Info("hotspots imported",
		zap.String("source", source.Describe()),
		zap.String("db", dbPath),
		zap.Int64("count", n))
	return nil
}

func runHotspotsStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dbPath := flagOrConfigDB(cmd)

	db, err := store.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	counts, err := db.CountByCategory(ctx)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	if len(counts) == 0 {
		p.Printf("No hotspots stored in %s. Run 'safesteps hotspots import' first.\n", dbPath)
		return nil
	}

	var total int
	p.Printf("%-25s %10s\n", "Category", "Hotspots")
	for _, c := range counts {
		p.Printf("%-25s %10d\n", c.Category, c.Count)
		total += c.Count
	}
	p.Printf("%-25s %10d\n", "TOTAL", total)
	return nil
}

func flagOrConfigDB(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		return v
	}
	return cfg.Hotspots.Path
}
