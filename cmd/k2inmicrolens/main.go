// Command k2inmicrolens reports whether a sky position falls inside the
// campaign 9 microlensing superstamp.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/region"
)

func main() {
	padding := flag.Float64("padding", 0, "require this many pixels of margin inside the superstamp")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-padding PX] RA DEC\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
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

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sr, err := load(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger.Warn("the superstamp mask is preliminary", "campaign", sr.Mask().Campaign())

	if sr.ContainsWithPadding(ra, dec, *padding) {
		fmt.Println("Yes! The coordinate is inside the K2C9 superstamp.")
	} else {
		fmt.Println("Sorry, the coordinate is NOT inside the K2C9 superstamp.")
	}
}

func load(logger *slog.Logger) (*region.SkyRegion, error) {
	mask, err := region.C9Superstamp()
	if err != nil {
		return nil, fmt.Errorf("loading superstamp: %w", err)
	}
	l, err := layout.Default()
	if err != nil {
		return nil, fmt.Errorf("loading channel layout: %w", err)
	}
	table, err := campaign.Embedded()
	if err != nil {
		return nil, fmt.Errorf("loading campaign table: %w", err)
	}
	f, err := table.FieldOfView(strconv.Itoa(mask.Campaign()), l, logger)
	if err != nil {
		return nil, err
	}
	return region.NewSkyRegion(f, mask, logger), nil
}
