// Command k2findcampaigns lists the K2 campaigns that observed a sky
// position, or every position in a catalog with -csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/finder"
	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/fovcache"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func main() {
	var (
		csvPath = flag.String("csv", "", "catalog of 'ra, dec, kepmag' rows to search instead of one position")
		out     = flag.String("out", finder.DefaultOutputFile, "output file for -csv mode")
		padding = flag.Float64("padding", fov.DefaultPadding, "pixels of padding around the science envelope")
		workers = flag.Int("workers", runtime.NumCPU(), "concurrent targets in -csv mode")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s RA DEC\n       %s -csv catalog.csv\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Preliminary-field warnings are noise when every campaign is searched.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	f, err := newFinder(*padding, *workers, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if *csvPath != "" {
		if err := runCSV(f, *csvPath, *out, logger); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	ra, err1 := strconv.ParseFloat(flag.Arg(0), 64)
	dec, err2 := strconv.ParseFloat(flag.Arg(1), 64)
	if err1 != nil || err2 != nil || dec < -90 || dec > 90 {
		fmt.Fprintln(os.Stderr, "error: RA and Dec must be decimal degrees")
		os.Exit(2)
	}

	campaigns, err := f.FindCampaigns(ra, dec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if len(campaigns) > 0 {
		fmt.Printf("Success! The target is on silicon during K2 campaigns [%s].\n", strings.Join(campaigns, ", "))
	} else {
		fmt.Println("Sorry, the target is not on silicon during any K2 campaign.")
	}
}

func newFinder(padding float64, workers int, logger *slog.Logger) (*finder.Finder, error) {
	l, err := layout.Default()
	if err != nil {
		return nil, fmt.Errorf("loading channel layout: %w", err)
	}
	table, err := campaign.Embedded()
	if err != nil {
		return nil, fmt.Errorf("loading campaign table: %w", err)
	}
	store := campaign.NewStore()
	store.Set(&campaign.Dataset{Source: "embedded", LoadedAt: time.Now(), Table: table})
	return finder.New(fovcache.New(store, l, logger), padding, workers), nil
}

func runCSV(f *finder.Finder, input, output string, logger *slog.Logger) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer in.Close()

	targets, _, err := catalog.Parse(in, catalog.ParseOptions{}, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	results := f.Search(context.Background(), targets)
	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("line %d: %s", r.Target.Line, r.Error)
		}
	}

	outFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := finder.WriteResults(outFile, results); err != nil {
		outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	fmt.Printf("Writing %s.\n", output)
	return nil
}
