package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vampbrain/SafeSteps/internal/model"
	"github.com/vampbrain/SafeSteps/internal/risk"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a set of candidate routes from a JSON file",
	Long: `Evaluates candidate routes against the loaded hotspot model and prints
the ranking, safest first.

The input file carries the same JSON shape as POST /analyze_routes:

  {
    "travel_hour": 22,
    "routes": [
      {"route_index": 0, "summary": "MG Road", "distance": "3.3 km",
       "duration": "13 mins", "distance_value": 3300, "duration_value": 780,
       "coordinates": [{"latitude": 12.9716, "longitude": 77.5946}, ...]}
    ]
  }

Examples:
  # Score routes for the hour in the file (or the current hour)
  safesteps score --input routes.json

  # Score the same routes as a late-night trip
  safesteps score --input routes.json --hour 23

  # Machine-readable output
  safesteps score --input routes.json --format json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "path to routes JSON file (required)")
	f.Int("hour", -1, "travel hour 0-23 (default: hour from file, else current)")
	f.String("format", "table", "output format: table or json")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("score"); err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	hourFlag, _ := cmd.Flags().GetInt("hour")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return eris.Errorf("score: --format must be table or json (got %q)", format)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return eris.Wrapf(err, "score: read %s", inputPath)
	}
	var req model.AnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return eris.Wrapf(err, "score: parse %s", inputPath)
	}
	if len(req.Routes) == 0 {
		return eris.Errorf("score: %s has no routes", inputPath)
	}

	hour := time.Now().Hour()
	if req.TravelHour != nil {
		hour = *req.TravelHour
	}
	if hourFlag >= 0 {
		hour = hourFlag
	}
	if hour < 0 || hour > 23 {
		return eris.Errorf("score: hour must be between 0 and 23 (got %d)", hour)
	}

	env, err := newEngineEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	engine, err := env.Build(ctx)
	if err != nil {
		return err
	}

	routes := make([]model.CandidateRoute, len(req.Routes))
	for i, w := range req.Routes {
		routes[i] = model.RouteFromWire(w)
	}

	zap.L().Info("scoring routes",
		zap.Int("routes", len(routes)),
		zap.Int("hour", hour),
		zap.Bool("model_ready", engine.Ready()))

	assessments, err := engine.EvaluateAll(ctx, routes, hour)
	if err != nil {
		return eris.Wrap(err, "score: evaluate")
	}

	weights := risk.FallbackWeights{
		Distance: cfg.Risk.Fallback.DistanceWeight,
		Duration: cfg.Risk.Fallback.DurationWeight,
	}
	ranking, err := risk.Select(assessments, weights, engine.Ready())
	if err != nil {
		return eris.Wrap(err, "score: rank")
	}

	if format == "json" {
		for i := range ranking.Ordered {
			ranking.Ordered[i].NormalizedScore = risk.Round2(ranking.Ordered[i].NormalizedScore)
			ranking.Ordered[i].SafetyScore = risk.Round2(ranking.Ordered[i].SafetyScore)
		}
		return json.NewEncoder(os.Stdout).Encode(ranking.Ordered)
	}

	printRanking(ranking, hour, engine.TimeNote(hour))
	return nil
}

func printRanking(r risk.Ranking, hour int, timeNote string) {
	p := message.NewPrinter(language.English)

	p.Printf("Travel hour: %d:00", hour)
	if r.Status == risk.StatusFallback {
		p.Printf("  (no risk signal; ranked by distance and duration)")
	}
	p.Println()
	if timeNote != "" {
		p.Printf("Note: %s\n", timeNote)
	}
	p.Println()

	p.Printf("%-4s %-30s %-10s %-10s %6s %7s %-12s\n",
		"#", "Route", "Distance", "Duration", "Risk", "Safety", "Level")
	p.Println(strings.Repeat("-", 84))

	for i, a := range r.Ordered {
		summary := a.Summary
		if len(summary) > 30 {
			summary = summary[:27] + "..."
		}
		marker := " "
		if i == 0 {
			marker = "*"
		}
		p.Printf("%-2d%2s %-30s %-10s %-10s %6.2f %7.2f %-12s\n",
			a.RouteIndex, marker, summary, a.Distance, a.Duration,
			a.NormalizedScore, a.SafetyScore, a.Category)
	}

	p.Println()
	best := r.Recommended
	p.Printf("Recommended: route %d (%s), safety %.2f/10, %s risk\n",
		best.RouteIndex, best.Summary, best.SafetyScore, best.Category)
	for _, f := range best.ContributingFactors {
		fmt.Printf("  - %s\n", f)
	}
}
