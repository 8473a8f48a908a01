package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ashita-ai/kaizen"
	"github.com/ashita-ai/kaizen/internal/domain"
	"github.com/ashita-ai/kaizen/internal/recorder"
)

// version is set at build time via -ldflags.
var version = "dev"

const usage = `kaizen — pairwise feedback-descent optimizer

Usage:
  kaizen run        run an optimization loop
  kaizen domains    list registered domains
  kaizen subjects   list built-in subjects for a domain
  kaizen rubrics    list built-in rubrics for a domain
  kaizen runs       list recorded runs
  kaizen trajectory rebuild the trajectory page for a run directory

Run 'kaizen <command> -h' for command flags.
`

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("KAIZEN_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(ctx, logger, os.Args[2:])
	case "domains":
		err = cmdDomains()
	case "subjects":
		err = cmdDocuments("subjects", os.Args[2:])
	case "rubrics":
		err = cmdDocuments("rubrics", os.Args[2:])
	case "runs":
		err = cmdRuns(ctx, os.Args[2:])
	case "trajectory":
		err = cmdTrajectory(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		return 2
	}
	if err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func cmdRun(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		domainName = fs.String("domain", "svg", "domain to optimize in")
		subject    = fs.String("subject", "", "subject name or YAML path (required)")
		rubric     = fs.String("rubric", "", "rubric name or YAML path (required)")
		iterations = fs.Int("iterations", 0, "iteration budget (default from KAIZEN_ITERATIONS)")
		seedMode   = fs.String("seed-mode", "", `seed mode: "informed" or "scratch"`)
		noMitigate = fs.Bool("no-mitigation", false, "judge each pair once instead of twice with swapped order")
		renderer   = fs.String("renderer", "", `renderer override, e.g. "resvg" or "none"`)
		outputDir  = fs.String("output", "", "run artifact directory (default from KAIZEN_OUTPUT_DIR)")
		runID      = fs.String("run-id", "", "fixed run identifier (default: random UUID)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" || *rubric == "" {
		return fmt.Errorf("run: -subject and -rubric are required")
	}

	opts := []kaizen.Option{
		kaizen.WithDomain(*domainName),
		kaizen.WithSubject(*subject),
		kaizen.WithRubric(*rubric),
		kaizen.WithLogger(logger),
		kaizen.WithVersion(version),
	}
	if *iterations > 0 {
		opts = append(opts, kaizen.WithIterations(*iterations))
	}
	if *seedMode != "" {
		opts = append(opts, kaizen.WithSeedMode(kaizen.SeedMode(*seedMode)))
	}
	if *noMitigate {
		opts = append(opts, kaizen.WithOrderBiasMitigation(false))
	}
	if *renderer != "" {
		opts = append(opts, kaizen.WithRendererName(*renderer))
	}
	if *outputDir != "" {
		opts = append(opts, kaizen.WithOutputDir(*outputDir))
	}
	if *runID != "" {
		opts = append(opts, kaizen.WithRunID(*runID))
	}

	app, err := kaizen.New(opts...)
	if err != nil {
		return err
	}
	res, err := app.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished: %d iterations, %d champion updates\n",
		app.RunID(), res.Iterations, res.ChampionUpdates)
	if res.Err != nil {
		fmt.Printf("stopped early: %v\n", res.Err)
	}
	if dir := app.OutputDir(); dir != "" {
		fmt.Printf("artifacts: %s\n", dir)
	}
	return nil
}

func cmdDomains() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, p := range domain.List() {
		fmt.Fprintf(w, "%s\t%s\n", p.Name(), p.Description())
	}
	return w.Flush()
}

func cmdDocuments(kind string, args []string) error {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	domainName := fs.String("domain", "svg", "domain to list for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := domain.Get(*domainName); err != nil {
		return err
	}
	for _, name := range domain.ListDocuments(*domainName, kind) {
		fmt.Println(name)
	}
	return nil
}

func cmdRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	var (
		indexPath = fs.String("index", envOr("KAIZEN_RUN_INDEX", "./runs/index.db"), "run index database")
		limit     = fs.Int("limit", 20, "maximum rows to show")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	idx, err := recorder.OpenIndex(*indexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	rows, err := idx.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDOMAIN\tSUBJECT\tRUBRIC\tITER\tUPDATES\tSTARTED\tSTATUS")
	for _, r := range rows {
		status := "running"
		switch {
		case r.Error != "":
			status = "error: " + r.Error
		case r.FinishedAt.Valid:
			status = "done"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.Domain, r.Subject, r.Rubric, r.Iterations, r.ChampionUpdates,
			r.StartedAt.Format("2006-01-02 15:04"), status)
	}
	return w.Flush()
}

func cmdTrajectory(args []string) error {
	fs := flag.NewFlagSet("trajectory", flag.ExitOnError)
	runDir := fs.String("run", "", "run directory (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runDir == "" {
		return fmt.Errorf("trajectory: -run is required")
	}
	page, err := recorder.WriteTrajectory(*runDir)
	if err != nil {
		return err
	}
	fmt.Println(page)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
