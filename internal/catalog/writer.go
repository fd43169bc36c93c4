package catalog

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultOutputFile is the name the onsilicon tool writes to.
const DefaultOutputFile = "targets_siliconFlag.csv"

// Write emits one "ra, dec, mag, flag" line per target.
func Write(w io.Writer, rows []Classified) error {
	bw := bufio.NewWriter(w)
	for _, c := range rows {
		if _, err := fmt.Fprintf(bw, "%10.10f, %10.10f, %10.2f, %d\n", c.RA, c.Dec, c.Mag, int(c.Flag)); err != nil {
			return fmt.Errorf("writing catalog: %w", err)
		}
	}
	return bw.Flush()
}

// Summary counts targets per flag.
func Summary(rows []Classified) map[Flag]int {
	out := map[Flag]int{NotOnSilicon: 0, NearSilicon: 0, OnSilicon: 0}
	for _, c := range rows {
		out[c.Flag]++
	}
	return out
}
