package producers

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// PipeWire default node names understood by wpctl.
const (
	DefaultSink   = "@DEFAULT_AUDIO_SINK@"
	DefaultSource = "@DEFAULT_AUDIO_SOURCE@"
)

// Volume writes a PipeWire node's volume with an icon for its mute state,
// e.g. "🔉 45". Volume blocks are usually refreshed by signal from the
// volume keys rather than polled.
type Volume struct {
	node   string
	on     string
	muted  string
	getVol func(ctx context.Context, node string) ([]byte, error)
}

// NewVolume returns a speaker Volume for node.
func NewVolume(node string) (blocks.Producer, error) {
	return newVolume(node, DefaultSink, "🔉", "🔇"), nil
}

// NewMic returns a microphone Volume for node.
func NewMic(node string) (blocks.Producer, error) {
	return newVolume(node, DefaultSource, "🎤", "🚫"), nil
}

func newVolume(node, fallback, on, muted string) *Volume {
	if node == "" {
		node = fallback
	}
	return &Volume{node: node, on: on, muted: muted, getVol: wpctlGetVolume}
}

func wpctlGetVolume(ctx context.Context, node string) ([]byte, error) {
	return exec.CommandContext(ctx, "wpctl", "get-volume", node).Output()
}

func (v *Volume) Produce(dst []byte, _ *blocks.Call) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ShellTimeout)
	defer cancel()

	out, err := v.getVol(ctx, v.node)
	if err != nil {
		return 0, fmt.Errorf("wpctl get-volume %s: %w", v.node, err)
	}
	pct, muted, err := ParseWpctl(string(out))
	if err != nil {
		return 0, err
	}
	icon := v.on
	if muted {
		icon = v.muted
	}
	return blocks.Put(dst, icon+" "+strconv.Itoa(pct)), nil
}

// ParseWpctl parses "Volume: 0.45" or "Volume: 0.45 [MUTED]" into a
// percentage and mute flag.
func ParseWpctl(out string) (pct int, muted bool, err error) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Volume:" {
		return 0, false, fmt.Errorf("wpctl: unexpected output %q", strings.TrimSpace(out))
	}
	f, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, false, fmt.Errorf("wpctl: volume %q: %w", fields[1], err)
	}
	for _, tok := range fields[2:] {
		if tok == "[MUTED]" {
			muted = true
		}
	}
	return int(math.Round(f * 100)), muted, nil
}
