package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChannel is returned for channel numbers outside 1-88.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidModOut is returned for module/output pairs that do not exist.
	ErrInvalidModOut = errors.New("invalid module/output")
)

// fgsModules are the corner modules carrying a single fine guidance sensor
// each, in channel order 85-88.
var fgsModules = [4]int{1, 5, 21, 25}

// modOutTable maps channel-1 to its (module, output).
var modOutTable = buildModOutTable()

func buildModOutTable() [NumChannels][2]int {
	var t [NumChannels][2]int
	ch := 1
	for mod := 1; mod <= 25; mod++ {
		if isFGSModule(mod) {
			continue
		}
		for out := 1; out <= 4; out++ {
			t[ch-1] = [2]int{mod, out}
			ch++
		}
	}
	for i, mod := range fgsModules {
		t[MaxScienceChannel+i] = [2]int{mod, 1}
	}
	return t
}

func isFGSModule(mod int) bool {
	for _, m := range fgsModules {
		if m == mod {
			return true
		}
	}
	return false
}

// ValidateChannel returns ErrInvalidChannel unless 1 <= ch <= 88.
func ValidateChannel(ch int) error {
	if ch < 1 || ch > NumChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return nil
}

// IsFGS reports whether ch is one of the fine guidance sensor channels.
func IsFGS(ch int) bool {
	return ch > MaxScienceChannel && ch <= NumChannels
}

// ModOutFromChannel returns the CCD module and output for a channel.
func ModOutFromChannel(ch int) (module, output int, err error) {
	if err := ValidateChannel(ch); err != nil {
		return 0, 0, err
	}
	mo := modOutTable[ch-1]
	return mo[0], mo[1], nil
}

// ChannelFromModOut returns the channel for a CCD module and output. FGS
// modules have a single output, numbered 1.
func ChannelFromModOut(module, output int) (int, error) {
	if module < 1 || module > 25 || output < 1 || output > 4 {
		return 0, fmt.Errorf("%w: module %d output %d", ErrInvalidModOut, module, output)
	}
	for i, mo := range modOutTable {
		if mo[0] == module && mo[1] == output {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: module %d output %d", ErrInvalidModOut, module, output)
}
