package main

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rangeland-monitoring/fieldcover/internal/app"
	"github.com/rangeland-monitoring/fieldcover/internal/fieldsheet/fieldsheettest"
	"github.com/rangeland-monitoring/fieldcover/internal/log"
	"github.com/rangeland-monitoring/fieldcover/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	log.SetLogger(zap.New(core))
	t.Cleanup(func() { log.SetLogger(zap.NewNop()) })
	return logs
}

func TestRunWritesCSV(t *testing.T) {
	logs := observeLogs(t)
	indir := t.TempDir()
	fieldsheettest.Write(t, osfs.New(indir), "MUL01.xlsx", fieldsheettest.Site{
		Station: "Mulga Downs",
		Site:    "MUL01",
		Date:    time.Date(2021, time.March, 12, 0, 0, 0, 0, time.UTC),
		Transects: [3][]fieldsheettest.Row{
			fieldsheettest.Repeat(100, fieldsheettest.Row{Ground: "LITTER", Below: "BLANK", Above: "BLANK"}),
			fieldsheettest.Repeat(100, fieldsheettest.Row{Ground: "LITTER", Below: "BLANK", Above: "BLANK"}),
			fieldsheettest.Repeat(100, fieldsheettest.Row{Ground: "LITTER", Below: "BLANK", Above: "BLANK"}),
		},
	})
	csvFile := filepath.Join(t.TempDir(), "cover.csv")

	if err := run(context.Background(), config.NewDefaultProvider(), indir, csvFile, app.Options{InputDir: "."}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	f, err := os.Open(csvFile)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("output has %d rows, want header and 1 record", len(rows))
	}
	if rows[1][1] != "MUL01" {
		t.Errorf("Site = %q, want MUL01", rows[1][1])
	}
	if logs.FilterMessage("wrote 1 site records to " + csvFile).Len() != 1 {
		t.Errorf("missing completion log, got %v", logs.All())
	}
}

func TestRunFailureLeavesNoCSV(t *testing.T) {
	observeLogs(t)
	indir := t.TempDir()
	csvFile := filepath.Join(t.TempDir(), "cover.csv")

	if err := run(context.Background(), config.NewDefaultProvider(), indir, csvFile, app.Options{InputDir: "."}); err == nil {
		t.Fatal("run() on a directory without workbooks succeeded, want error")
	}
	if _, err := os.Stat(csvFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output file after failed run: stat err = %v, want not exist", err)
	}
}
