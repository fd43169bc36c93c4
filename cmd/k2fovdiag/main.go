package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func main() {
	id := flag.String("campaign", "9", "campaign to describe")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	l, err := layout.Default()
	if err != nil {
		fmt.Println("ERROR loading layout:", err)
		os.Exit(1)
	}
	table, err := campaign.Embedded()
	if err != nil {
		fmt.Println("ERROR loading campaign table:", err)
		os.Exit(1)
	}

	p, err := table.Pointing(*id, logger)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
	start, stop, _ := table.Window(p.Campaign)
	fmt.Printf("Campaign %s: ra=%.6f dec=%.6f sc_roll=%.4f fov_roll=%.4f\n",
		p.Campaign, p.RA, p.Dec, p.SpacecraftRoll, p.FovRoll)
	fmt.Printf("Window: %s .. %s (BKJD %.1f .. %.1f)\n",
		p.Start.Format(time.DateOnly), p.Stop.Format(time.DateOnly), start, stop)
	fmt.Printf("Broken channels: %v\n", p.BrokenChannels)

	f, err := table.FieldOfView(p.Campaign, l, logger)
	if err != nil {
		fmt.Println("ERROR building field of view:", err)
		os.Exit(1)
	}

	fmt.Println("\nch  mod out        ra         dec  status")
	for ch := 1; ch <= layout.NumChannels; ch++ {
		mod, out, _ := layout.ModOutFromChannel(ch)
		ra, dec, err := f.ChannelCenter(ch)
		if err != nil {
			fmt.Printf("%2d  %3d %3d  ERROR %v\n", ch, mod, out, err)
			continue
		}
		status := "ok"
		switch {
		case layout.IsFGS(ch):
			status = "fgs"
		case f.BrokenChannels().Contains(ch):
			status = "broken"
		}
		fmt.Printf("%2d  %3d %3d  %10.5f %10.5f  %s\n", ch, mod, out, ra, dec, status)
	}

	// Cross-check the two channel pickers at every channel centre.
	var mismatches int
	for ch := 1; ch <= layout.NumChannels; ch++ {
		ra, dec, _ := f.ChannelCenter(ch)
		a, errA := f.PickChannel(ra, dec)
		b, errB := f.PickChannelByPolygon(ra, dec)
		if errA != nil || errB != nil || a != ch || b != ch {
			mismatches++
			fmt.Printf("  picker mismatch on channel %d: nearest=%d (%v) polygon=%d (%v)\n", ch, a, errA, b, errB)
		}
	}
	fmt.Printf("\nPicker mismatches: %d\n", mismatches)
}
