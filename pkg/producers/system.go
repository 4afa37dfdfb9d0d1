package producers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// Units appended to numeric readings.
const (
	UnitUsage = "%"
	UnitTemp  = "°"
)

// CPU writes the aggregate CPU usage since its previous call, e.g. "12%".
// The first call reports the average since boot.
type CPU struct {
	times func() ([]cpu.TimesStat, error)
	prev  cpu.TimesStat
}

// NewCPU returns a CPU producer reading kernel CPU times.
func NewCPU() *CPU {
	return &CPU{times: func() ([]cpu.TimesStat, error) { return cpu.Times(false) }}
}

// Usage samples the CPU times and returns the busy percentage since the
// previous sample.
func (c *CPU) Usage() (int, error) {
	all, err := c.times()
	if err != nil {
		return 0, fmt.Errorf("cpu times: %w", err)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("cpu times: no data")
	}
	cur := all[0]
	pct := busyPercent(c.prev, cur)
	c.prev = cur
	return pct, nil
}

func (c *CPU) Produce(dst []byte, _ *blocks.Call) (int, error) {
	pct, err := c.Usage()
	if err != nil {
		return 0, err
	}
	return blocks.Put(dst, strconv.Itoa(pct)+UnitUsage), nil
}

func busyPercent(prev, cur cpu.TimesStat) int {
	busy := func(t cpu.TimesStat) float64 {
		return t.User + t.Nice + t.System + t.Irq + t.Softirq + t.Steal
	}
	total := func(t cpu.TimesStat) float64 {
		return busy(t) + t.Idle + t.Iowait
	}
	dt := total(cur) - total(prev)
	if dt <= 0 {
		return 0
	}
	pct := 100 * (busy(cur) - busy(prev)) / dt
	return int(math.Max(0, math.Min(100, pct)))
}

// CPUAll writes temperature and usage together, e.g. "48° 12%".
type CPUAll struct {
	temp *Temp
	cpu  *CPU
}

// NewCPUAll reads the temperature from path.
func NewCPUAll(path string) *CPUAll {
	return &CPUAll{temp: NewTemp(path), cpu: NewCPU()}
}

func (c *CPUAll) Produce(dst []byte, _ *blocks.Call) (int, error) {
	deg, err := c.temp.Degrees()
	if err != nil {
		return 0, err
	}
	pct, err := c.cpu.Usage()
	if err != nil {
		return 0, err
	}
	return blocks.Put(dst, strconv.Itoa(deg)+UnitTemp+" "+strconv.Itoa(pct)+UnitUsage), nil
}

// Memory writes RAM usage as a percentage, or the available amount.
type Memory struct {
	available bool
	read      func() (*mem.VirtualMemoryStat, error)
}

// NewMemory returns a Memory producer. With available set it writes the
// human-sized available amount ("7G") instead of the used percentage.
func NewMemory(available bool) *Memory {
	return &Memory{available: available, read: mem.VirtualMemory}
}

func (m *Memory) Produce(dst []byte, _ *blocks.Call) (int, error) {
	vm, err := m.read()
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	if m.available {
		return blocks.Put(dst, Humanize(vm.Available)), nil
	}
	if vm.Total == 0 {
		return 0, fmt.Errorf("virtual memory: zero total")
	}
	used := 100 - int(float64(vm.Available)/float64(vm.Total)*100)
	return blocks.Put(dst, strconv.Itoa(used)+UnitUsage), nil
}

// Disk writes the usage of a mount point as a percentage, or its free space.
type Disk struct {
	path  string
	free  bool
	usage func(path string) (*disk.UsageStat, error)
}

// NewDisk returns a Disk producer for the filesystem mounted at path.
func NewDisk(path string, free bool) *Disk {
	return &Disk{path: path, free: free, usage: disk.Usage}
}

func (d *Disk) Produce(dst []byte, _ *blocks.Call) (int, error) {
	u, err := d.usage(d.path)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", d.path, err)
	}
	if d.free {
		return blocks.Put(dst, Humanize(u.Free)), nil
	}
	return blocks.Put(dst, strconv.Itoa(int(math.Round(u.UsedPercent)))+UnitUsage), nil
}

// Load writes the one-minute load average, e.g. "0.42".
type Load struct {
	avg func() (*load.AvgStat, error)
}

// NewLoad returns a Load producer.
func NewLoad() *Load {
	return &Load{avg: load.Avg}
}

func (l *Load) Produce(dst []byte, _ *blocks.Call) (int, error) {
	a, err := l.avg()
	if err != nil {
		return 0, fmt.Errorf("load average: %w", err)
	}
	return blocks.Put(dst, strconv.FormatFloat(a.Load1, 'f', 2, 64)), nil
}

// Uptime writes the time since boot, e.g. "3d 4h" or "12m".
type Uptime struct {
	uptime func() (uint64, error)
}

// NewUptime returns an Uptime producer.
func NewUptime() *Uptime {
	return &Uptime{uptime: host.Uptime}
}

func (u *Uptime) Produce(dst []byte, _ *blocks.Call) (int, error) {
	secs, err := u.uptime()
	if err != nil {
		return 0, fmt.Errorf("uptime: %w", err)
	}
	return blocks.Put(dst, FormatUptime(time.Duration(secs)*time.Second)), nil
}

// FormatUptime renders d with its two most significant units.
func FormatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
