package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/mrtommyb/K2fov/internal/sphere"
)

func TestDefaultLayout(t *testing.T) {
	l, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	corners := l.Corners()
	if len(corners) != NumChannels*cornersPerChannel {
		t.Fatalf("got %d corners, want %d", len(corners), NumChannels*cornersPerChannel)
	}
	for i, c := range corners {
		if want := i/cornersPerChannel + 1; c.Channel != want {
			t.Fatalf("corner %d has channel %d, want %d", i, c.Channel, want)
		}
	}

	again, _ := Default()
	if again != l {
		t.Error("Default returned a different layout on second call")
	}
}

func TestCornersIsACopy(t *testing.T) {
	l, _ := Default()
	c := l.Corners()
	c[0].Channel = 999
	if l.Corners()[0].Channel == 999 {
		t.Error("Corners exposed internal state")
	}
}

func TestRotateStaysNearBoresight(t *testing.T) {
	l, _ := Default()
	pointings := [][3]float64{{0, 0, 0}, {98.2964079, 21.5878901, 100.48}, {270.3544823, -21.7798098, 103.47}, {10, 88, 45}}
	for _, p := range pointings {
		for _, c := range l.Rotate(p[0], p[1], p[2]) {
			if sep := sphere.AngularSeparation(p[0], p[1], c.RA, c.Dec); sep > 9 {
				t.Errorf("pointing %v: channel %d corner %.2f deg from boresight", p, c.Channel, sep)
			}
		}
	}
}

func TestRotateUnrolledOrientation(t *testing.T) {
	l, _ := Default()
	byChannel := map[int][]SkyCorner{}
	for _, c := range l.Rotate(0, 0, 0) {
		byChannel[c.Channel] = append(byChannel[c.Channel], c)
	}

	mean := func(ch int) (ra, dec float64) {
		for _, c := range byChannel[ch] {
			r := c.RA
			if r > 180 {
				r -= 360
			}
			ra += r
			dec += c.Dec
		}
		return ra / 4, dec / 4
	}

	// Module 3 (channels 5-8) is at the top of the mosaic with roll zero.
	_, dec5 := mean(5)
	_, dec43 := mean(43)
	if dec5 <= dec43 {
		t.Errorf("channel 5 dec %.3f should be north of channel 43 dec %.3f", dec5, dec43)
	}
	// Module 11 (channels 33-36) is east of the central module.
	ra33, _ := mean(33)
	ra43, _ := mean(43)
	if ra33 <= ra43 {
		t.Errorf("channel 33 ra %.3f should be east of channel 43 ra %.3f", ra33, ra43)
	}
}

func TestModOutRoundTrip(t *testing.T) {
	for ch := 1; ch <= NumChannels; ch++ {
		mod, out, err := ModOutFromChannel(ch)
		if err != nil {
			t.Fatalf("ModOutFromChannel(%d): %v", ch, err)
		}
		got, err := ChannelFromModOut(mod, out)
		if err != nil || got != ch {
			t.Errorf("ChannelFromModOut(%d, %d) = %d, %v; want %d", mod, out, got, err, ch)
		}
	}
}

func TestModOutKnownValues(t *testing.T) {
	tests := []struct {
		ch, mod, out int
	}{
		{1, 2, 1},
		{4, 2, 4},
		{5, 3, 1},
		{12, 4, 4},
		{13, 6, 1},
		{43, 13, 3},
		{72, 20, 4},
		{73, 22, 1},
		{84, 24, 4},
		{85, 1, 1},
		{86, 5, 1},
		{87, 21, 1},
		{88, 25, 1},
	}
	for _, tt := range tests {
		mod, out, _ := ModOutFromChannel(tt.ch)
		if mod != tt.mod || out != tt.out {
			t.Errorf("channel %d = mod %d out %d, want mod %d out %d", tt.ch, mod, out, tt.mod, tt.out)
		}
	}
}

func TestInvalidChannels(t *testing.T) {
	for _, ch := range []int{0, -1, 89, 1000} {
		if _, _, err := ModOutFromChannel(ch); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("ModOutFromChannel(%d) err = %v, want ErrInvalidChannel", ch, err)
		}
	}
	for _, mo := range [][2]int{{0, 1}, {26, 1}, {1, 2}, {13, 5}} {
		if _, err := ChannelFromModOut(mo[0], mo[1]); !errors.Is(err, ErrInvalidModOut) {
			t.Errorf("ChannelFromModOut(%d, %d) err = %v, want ErrInvalidModOut", mo[0], mo[1], err)
		}
	}
}

func TestIsFGS(t *testing.T) {
	if IsFGS(84) || !IsFGS(85) || !IsFGS(88) || IsFGS(89) {
		t.Error("IsFGS boundaries wrong")
	}
}

func TestParseRejectsIncompleteTable(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"one channel only", "2,1,1,1,0,0\n2,1,1,1,0.01,0\n2,1,1,1,0.01,0.01\n2,1,1,1,0,0.01\n"},
		{"bad number", "2,1,one,1,0,0\n"},
		{"wrong mod out", "2,2,1,1,0,0\n"},
		{"zero vector", "2,1,1,0,0,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("err = %v, want ErrInvalidLayout", err)
			}
		})
	}
}
