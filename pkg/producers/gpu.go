package producers

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// GPUMetric selects what a GPU block shows.
type GPUMetric int

const (
	GPUTemp GPUMetric = iota
	GPUUsage
	GPUVRAM
	GPUAll
)

// GPUReading is one device's line of nvidia-smi output.
type GPUReading struct {
	Temp      int
	Usage     int
	VRAMUsed  int
	VRAMTotal int
}

// VRAMPercent returns memory usage as a percentage of the total.
func (r GPUReading) VRAMPercent() int {
	if r.VRAMTotal <= 0 {
		return 0
	}
	return r.VRAMUsed * 100 / r.VRAMTotal
}

// GPU writes NVIDIA GPU readings averaged over all devices.
type GPU struct {
	metric GPUMetric
	query  func(ctx context.Context) ([]byte, error)
}

// NewGPU returns a GPU producer for metric.
func NewGPU(metric GPUMetric) *GPU {
	return &GPU{metric: metric, query: queryNvidiaSMI}
}

func queryNvidiaSMI(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx,
		"nvidia-smi",
		"--query-gpu=temperature.gpu,utilization.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits",
	).Output()
}

func (g *GPU) Produce(dst []byte, _ *blocks.Call) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ShellTimeout)
	defer cancel()

	out, err := g.query(ctx)
	if err != nil {
		return 0, fmt.Errorf("nvidia-smi: %w", err)
	}
	readings, err := ParseNvidiaSMI(string(out))
	if err != nil {
		return 0, err
	}
	avg := averageGPU(readings)

	var s string
	switch g.metric {
	case GPUTemp:
		s = strconv.Itoa(avg.Temp) + UnitTemp
	case GPUUsage:
		s = strconv.Itoa(avg.Usage) + UnitUsage
	case GPUVRAM:
		s = strconv.Itoa(avg.VRAMPercent()) + UnitUsage
	default:
		s = fmt.Sprintf("%d%s %d%s %d%s", avg.Temp, UnitTemp, avg.Usage, UnitUsage, avg.VRAMPercent(), UnitUsage)
	}
	return blocks.Put(dst, s), nil
}

// ParseNvidiaSMI parses the output of
//
//	nvidia-smi --query-gpu=temperature.gpu,utilization.gpu,memory.used,memory.total --format=csv,noheader,nounits
//
// Each line has the format "temp_c, util_pct, used_mib, total_mib".
func ParseNvidiaSMI(output string) ([]GPUReading, error) {
	var out []GPUReading
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("nvidia-smi: unexpected line %q", line)
		}
		var vals [4]int
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("nvidia-smi: field %d of %q: %w", i, line, err)
			}
			vals[i] = v
		}
		out = append(out, GPUReading{Temp: vals[0], Usage: vals[1], VRAMUsed: vals[2], VRAMTotal: vals[3]})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nvidia-smi: no devices")
	}
	return out, nil
}

func averageGPU(rs []GPUReading) GPUReading {
	var sum GPUReading
	for _, r := range rs {
		sum.Temp += r.Temp
		sum.Usage += r.Usage
		sum.VRAMUsed += r.VRAMUsed
		sum.VRAMTotal += r.VRAMTotal
	}
	n := len(rs)
	return GPUReading{Temp: sum.Temp / n, Usage: sum.Usage / n, VRAMUsed: sum.VRAMUsed, VRAMTotal: sum.VRAMTotal}
}
