package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rangeland-monitoring/fieldcover/internal/constants"
	"github.com/rangeland-monitoring/fieldcover/internal/finder"
	"github.com/rangeland-monitoring/fieldcover/internal/log"
)

func main() {
	var direc, endfilen, txtfile string
	flag.StringVar(&direc, "direc", "", "Path to directory to look in")
	flag.StringVar(&direc, "d", "", "Shorthand for -direc")
	flag.StringVar(&endfilen, "endfilen", "", "End of the file name to match, e.g. '*h99m2.img'. Empty matches every file")
	flag.StringVar(&endfilen, "e", "", "Shorthand for -endfilen")
	flag.StringVar(&txtfile, "txtfile", "", "Output file listing the matching paths, one per line. Defaults to stdout")
	flag.StringVar(&txtfile, "o", "", "Shorthand for -txtfile")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Also write JSON logs to this file, rotated by size")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("find-files %s\n", constants.Version)
		os.Exit(0)
	}

	if direc == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Set up logging
	if err := log.InitWithFile(*debug, *logFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(direc, endfilen, txtfile); err != nil {
		log.Errorf("find-files: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(direc, pattern, txtfile string) error {
	// Walk relative to the search root so matches can be joined back onto it
	fs := osfs.New(direc)
	matches, err := finder.Find(fs, ".", pattern, finder.Options{Recursive: true})
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(direc, filepath.FromSlash(m))
		log.Info(p)
		paths = append(paths, p)
	}
	log.Infof("found %d files matching %q under %s", len(paths), pattern, direc)

	if txtfile == "" {
		return finder.WriteList(os.Stdout, paths)
	}
	f, err := os.Create(txtfile)
	if err != nil {
		return err
	}
	if err := finder.WriteList(f, paths); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
