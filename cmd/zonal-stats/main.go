package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rangeland-monitoring/fieldcover/internal/constants"
	"github.com/rangeland-monitoring/fieldcover/internal/log"
	"github.com/rangeland-monitoring/fieldcover/internal/zonal"
	"github.com/rangeland-monitoring/fieldcover/internal/zonal/gdal"
)

func main() {
	var image, shape, csvFile, nodata, uid string
	var allTouched bool
	flag.StringVar(&image, "image", "", "Input image to derive zonal stats from")
	flag.StringVar(&image, "i", "", "Shorthand for -image")
	flag.StringVar(&shape, "shape", "", "Vector file containing the zones")
	flag.StringVar(&shape, "s", "", "Shorthand for -shape")
	flag.StringVar(&csvFile, "csv", "", "Output CSV file containing the results")
	flag.StringVar(&csvFile, "o", "", "Shorthand for -csv")
	flag.BoolVar(&allTouched, "alltouch", false, "Use every pixel a zone touches instead of those whose centre is inside")
	flag.BoolVar(&allTouched, "a", false, "Shorthand for -alltouch")
	flag.StringVar(&nodata, "nodata", "", "No data value of the input image. Defaults to the value stored in the image")
	flag.StringVar(&nodata, "n", "", "Shorthand for -nodata")
	flag.StringVar(&uid, "uid", zonal.DefaultUIDField, "Zone attribute holding the unique site id")
	flag.StringVar(&uid, "u", zonal.DefaultUIDField, "Shorthand for -uid")
	bandDir := flag.String("banddir", "", "Keep the per-band tables in this directory")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zonal-stats %s\n", constants.Version)
		os.Exit(0)
	}

	if image == "" || shape == "" || csvFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -image <raster> -shape <zones> -csv <output> [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := zonal.Options{AllTouched: allTouched, UIDField: uid}
	if nodata != "" {
		v, err := strconv.ParseFloat(nodata, 64)
		if err != nil {
			log.Errorf("invalid -nodata %q: %v", nodata, err)
			log.Sync()
			os.Exit(1)
		}
		opts.NoData = &v
	}
	if *bandDir != "" {
		dir, err := filepath.Abs(*bandDir)
		if err != nil {
			log.Errorf("resolving -banddir: %v", err)
			log.Sync()
			os.Exit(1)
		}
		opts.BandDir = dir
	}

	if err := run(image, shape, csvFile, opts); err != nil {
		log.Errorf("zonal-stats: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(image, shape, csvFile string, opts zonal.Options) error {
	r, err := gdal.OpenRaster(image)
	if err != nil {
		return err
	}
	defer r.Close()

	zones, err := gdal.ReadZones(shape)
	if err != nil {
		return err
	}
	log.Infof("computing statistics for %d zones over %d bands of %s", len(zones), r.BandCount(), r.Name())

	// Held in memory until every band has succeeded
	var out bytes.Buffer
	if err := zonal.Run(osfs.New("/"), r, zones, &out, opts); err != nil {
		return err
	}
	if err := os.WriteFile(csvFile, out.Bytes(), 0o644); err != nil {
		return err
	}
	log.Infof("zonal statistics written to %s", csvFile)
	return nil
}
