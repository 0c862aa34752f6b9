package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rangeland-monitoring/fieldcover/internal/app"
	"github.com/rangeland-monitoring/fieldcover/internal/constants"
	"github.com/rangeland-monitoring/fieldcover/internal/log"
	"github.com/rangeland-monitoring/fieldcover/pkg/config"
)

func main() {
	var indir, csvFile string
	flag.StringVar(&indir, "indir", "", "Path to the directory containing the observational spreadsheets")
	flag.StringVar(&indir, "d", "", "Shorthand for -indir")
	flag.StringVar(&csvFile, "csv", "", "Path and name of the output CSV file containing the results")
	flag.StringVar(&csvFile, "o", "", "Shorthand for -csv")
	cfgFile := flag.String("config", "", "YAML configuration file. Built-in defaults are used when empty")
	pattern := flag.String("pattern", "", "Workbook file pattern, overriding the configuration")
	points := flag.Int("points", 0, "Intercepts per complete site survey, overriding the configuration")
	strict := flag.Bool("strict", false, "Fail on intercepts with unknown categories")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Also write JSON logs to this file, rotated by size")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cover-fractions %s\n", constants.Version)
		os.Exit(0)
	}

	if indir == "" || csvFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -indir <directory> -csv <output> [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Set up logging
	if err := log.InitWithFile(*debug, *logFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var provider config.ConfigProvider = config.NewDefaultProvider()
	if *cfgFile != "" {
		provider = config.NewYAMLProvider(*cfgFile)
	}
	defer provider.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{InputDir: ".", Pattern: *pattern, Points: *points, Strict: *strict}
	if err := run(ctx, provider, indir, csvFile, opts); err != nil {
		log.Errorf("cover-fractions: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, provider config.ConfigProvider, indir, csvFile string, opts app.Options) error {
	dir, err := filepath.Abs(indir)
	if err != nil {
		return err
	}

	// The table is held until every workbook has been read. A storage error
	// still returns the records, so the CSV is written before reporting it.
	var out bytes.Buffer
	a := app.New(osfs.New(dir), provider, log.GetSugaredLogger())
	res, err := a.Run(ctx, opts, &out)
	if res == nil {
		return err
	}
	if werr := os.WriteFile(csvFile, out.Bytes(), 0o644); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	log.Infof("wrote %d site records to %s", len(res.Records), csvFile)
	if res.BatchID != "" {
		log.Infof("stored results as batch %s", res.BatchID)
	}
	return nil
}
