// Command k2onsilicon reports whether targets fall on working K2 silicon
// during one campaign.
//
// Usage:
//
//	k2onsilicon -campaign 9 -ra 269.5 -dec -28.5
//	k2onsilicon [-out targets_siliconFlag.csv] catalog.csv 9
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func main() {
	var (
		campaignID = flag.String("campaign", "", "K2 campaign number, e.g. 9 or c9")
		ra         = flag.Float64("ra", math.NaN(), "right ascension in decimal degrees (J2000), single-target mode")
		dec        = flag.Float64("dec", math.NaN(), "declination in decimal degrees (J2000), single-target mode")
		out        = flag.String("out", catalog.DefaultOutputFile, "output file for catalog mode")
		padding    = flag.Float64("padding", fov.DefaultPadding, "pixels of padding around the science envelope")
		nearSep    = flag.Float64("near", fov.DefaultNearSiliconSep, "near-silicon radius in degrees")
		lenient    = flag.Bool("lenient", false, "skip malformed catalog rows instead of failing")
		workers    = flag.Int("workers", runtime.NumCPU(), "classification workers")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -campaign N -ra RA -dec DEC\n       %s [flags] catalog.csv campaign\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var input string
	switch flag.NArg() {
	case 0:
	case 2:
		input, *campaignID = flag.Arg(0), flag.Arg(1)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if *campaignID == "" {
		flag.Usage()
		os.Exit(2)
	}

	l, err := layout.Default()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading channel layout:", err)
		os.Exit(1)
	}
	table, err := campaign.Embedded()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading campaign table:", err)
		os.Exit(1)
	}
	f, err := table.FieldOfView(*campaignID, l, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	opts := catalog.Options{Padding: *padding, NearSiliconSep: *nearSep}

	if input == "" {
		if math.IsNaN(*ra) || math.IsNaN(*dec) {
			flag.Usage()
			os.Exit(2)
		}
		switch catalog.Classify(f, catalog.Target{RA: *ra, Dec: *dec}, opts) {
		case catalog.OnSilicon:
			fmt.Printf("Success! The target is on silicon during K2 campaign %s.\n", campaign.NormalizeID(*campaignID))
		case catalog.NearSilicon:
			fmt.Printf("The target is near, but not on, silicon during K2 campaign %s.\n", campaign.NormalizeID(*campaignID))
		default:
			fmt.Printf("Sorry, the target is not on silicon during K2 campaign %s.\n", campaign.NormalizeID(*campaignID))
		}
		return
	}

	if err := run(input, *out, f, opts, *lenient, *workers, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(input, output string, f *fov.FieldOfView, opts catalog.Options, lenient bool, workers int, logger *slog.Logger) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer in.Close()

	targets, skipped, err := catalog.Parse(in, catalog.ParseOptions{Lenient: lenient}, logger)
	if err != nil {
		return fmt.Errorf("%s: %w (rows must be: RA_degrees, Dec_degrees, magnitude with no header)", input, err)
	}

	rows, err := catalog.NewWorkerPool(workers, logger).ClassifyBatch(context.Background(), f, targets, opts)
	if err != nil {
		return err
	}

	outFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := catalog.Write(outFile, rows); err != nil {
		outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	summary := catalog.Summary(rows)
	fmt.Printf("Classified %d targets: %d on silicon, %d near silicon, %d off silicon",
		len(rows), summary[catalog.OnSilicon], summary[catalog.NearSilicon], summary[catalog.NotOnSilicon])
	if len(skipped) > 0 {
		fmt.Printf(", %d rows skipped", len(skipped))
	}
	fmt.Printf(".\nI made one file: %s\n", output)
	return nil
}
