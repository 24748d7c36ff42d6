package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/osprey-sec/malscan/internal/attributes"
	ds "github.com/osprey-sec/malscan/internal/dataset"
	"github.com/osprey-sec/malscan/internal/domain"
	logpkg "github.com/osprey-sec/malscan/internal/logger"
	"github.com/osprey-sec/malscan/internal/model"
	"github.com/osprey-sec/malscan/internal/pefile"
	classifyuc "github.com/osprey-sec/malscan/internal/usecase/classify"
	datasetuc "github.com/osprey-sec/malscan/internal/usecase/dataset"
	"github.com/osprey-sec/malscan/internal/version"
)

var debug bool

var debugFlag = &cli.BoolFlag{
	Name:        "debug",
	Usage:       "Prints verbose logs (optional, default: false)",
	Destination: &debug,
}

func main() {
	app := &cli.App{
		Name:     "malscan",
		Version:  fmt.Sprintf("%s - (commit: %s)", version.Version, version.Commit),
		Compiled: time.Now(),
		Usage:    "Static malware classification toolkit",
		Flags: []cli.Flag{
			debugFlag,
		},
		Commands: []*cli.Command{
			extractCmd,
			scoreCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	l, err := logpkg.NewCLI(debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l, nil
}

var extractCmd = &cli.Command{
	Name:  "extract",
	Usage: "Extract attribute rows from a directory of binaries",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Directory of binaries to extract",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    "Output file (CSV or SQLite database)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: csv or sqlite",
			Value: "csv",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of parallel extraction workers",
			Value:   runtime.NumCPU(),
		},
	},
	Action: runExtract,
}

func runExtract(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sink, err := newSink(c.String("format"), c.String("output"))
	if err != nil {
		return err
	}

	svc := datasetuc.New(pefile.Load, attributes.Extract, c.Int("workers"), logger)

	start := time.Now()
	report, runErr := svc.Run(c.Context, c.String("input"), sink)
	if closeErr := sink.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return fmt.Errorf("extract: %w", runErr)
	}

	logger.Info("Extraction finished",
		zap.Int("processed", report.Processed),
		zap.Int("written", report.Written),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("duration", time.Since(start)),
	)
	for _, f := range report.Failures {
		logger.Warn("Sample skipped", zap.String("path", f.Path), zap.Error(f.Err))
	}
	return nil
}

func newSink(format, output string) (ds.Sink, error) {
	switch format {
	case "csv":
		return ds.NewCSVSink(output, attributes.SchemaKeys)
	case "sqlite":
		return ds.NewSQLiteSink(output, attributes.SchemaKeys)
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or sqlite)", format)
	}
}

var scoreCmd = &cli.Command{
	Name:      "score",
	Usage:     "Score a single binary and print the result as JSON",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "classifier",
			Usage: "Path to the classifier artifact",
			Value: "models/classifier.json",
		},
		&cli.StringFlag{
			Name:  "vectorizer",
			Usage: "Path to the vectorizer artifact",
			Value: "models/vectorizer.json",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Decision threshold in (0, 1]",
			Value: 0.5,
		},
	},
	Action: runScore,
}

func runScore(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}
	path := c.Args().First()

	handle := model.NewHandle(c.String("classifier"), c.String("vectorizer"))
	svc := classifyuc.New(handle, attributes.Extract, c.Float64("threshold"))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	data, err := pefile.Load(path)
	if err == nil {
		var result domain.ScoreResult
		if result, err = svc.Score(c.Context, data); err == nil {
			return enc.Encode(result)
		}
	}

	// Fail open: an unscorable sample reports the benign verdict, the
	// diagnostic goes to stderr.
	fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
	return enc.Encode(domain.Verdict{Result: domain.LabelBenign})
}
