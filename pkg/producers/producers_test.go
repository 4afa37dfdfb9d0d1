package producers

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
)

// produce runs p once with a fresh call and returns the text and call.
func produce(t *testing.T, p blocks.Producer, call *blocks.Call) (string, *blocks.Call) {
	t.Helper()
	if call == nil {
		call = &blocks.Call{}
	}
	if call.Proc == nil {
		call.Proc = &blocks.ProcState{}
	}
	call.Next = blocks.KeepInterval
	dst := make([]byte, blocks.DefaultCapacity)
	n, err := p.Produce(dst, call)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	return string(dst[:n]), call
}

func fixedTime(s string) func() time.Time {
	return func() time.Time {
		t, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			panic(err)
		}
		return t
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		at   string
		want string
		next int
	}{
		{"2026-03-09 21:05:12", "9:05 PM", 48},
		{"2026-03-09 00:30:00", "12:30 AM", 60},
		{"2026-03-09 12:00:59", "12:00 PM", 1},
	}
	for _, tt := range tests {
		got, call := produce(t, &Clock{now: fixedTime(tt.at)}, nil)
		if got != tt.want {
			t.Errorf("Clock at %s = %q, want %q", tt.at, got, tt.want)
		}
		if call.Next != tt.next {
			t.Errorf("Clock at %s Next = %d, want %d", tt.at, call.Next, tt.next)
		}
	}
}

func TestDate(t *testing.T) {
	got, call := produce(t, &Date{now: fixedTime("2026-03-09 23:59:30")}, nil)
	if want := "Mon, 9 Mar 2026"; got != want {
		t.Errorf("Date = %q, want %q", got, want)
	}
	if call.Next != 30 {
		t.Errorf("Next = %d, want 30", call.Next)
	}

	_, call = produce(t, &Date{now: fixedTime("2026-03-09 00:00:00")}, nil)
	if call.Next != 24*3600 {
		t.Errorf("Next at midnight = %d, want %d", call.Next, 24*3600)
	}
}

func TestCPUUsage(t *testing.T) {
	samples := []cpu.TimesStat{
		{User: 100, System: 50, Idle: 850},
		{User: 150, System: 75, Idle: 925},
	}
	i := 0
	c := &CPU{times: func() ([]cpu.TimesStat, error) {
		s := samples[i]
		i++
		return []cpu.TimesStat{s}, nil
	}}

	if got, _ := produce(t, c, nil); got != "15%" {
		t.Errorf("first sample = %q, want %q", got, "15%")
	}
	if got, _ := produce(t, c, nil); got != "50%" {
		t.Errorf("second sample = %q, want %q", got, "50%")
	}
}

func TestBusyPercentNoProgress(t *testing.T) {
	s := cpu.TimesStat{User: 10, Idle: 10}
	if got := busyPercent(s, s); got != 0 {
		t.Errorf("busyPercent = %d, want 0", got)
	}
}

func TestTemp(t *testing.T) {
	tp := &Temp{path: "/sys/x", readFile: func(string) ([]byte, error) { return []byte("48750\n"), nil }}
	if got, _ := produce(t, tp, nil); got != "48°" {
		t.Errorf("Temp = %q, want %q", got, "48°")
	}

	bad := &Temp{path: "/sys/x", readFile: func(string) ([]byte, error) { return []byte("hot"), nil }}
	if _, err := bad.Produce(make([]byte, 16), &blocks.Call{}); err == nil {
		t.Error("Temp with garbage input should fail")
	}
}

func TestCPUAll(t *testing.T) {
	c := &CPUAll{
		temp: &Temp{readFile: func(string) ([]byte, error) { return []byte("61000"), nil }},
		cpu: &CPU{times: func() ([]cpu.TimesStat, error) {
			return []cpu.TimesStat{{User: 25, Idle: 75}}, nil
		}},
	}
	if got, _ := produce(t, c, nil); got != "61° 25%" {
		t.Errorf("CPUAll = %q, want %q", got, "61° 25%")
	}
}

func TestMemory(t *testing.T) {
	vm := &mem.VirtualMemoryStat{Total: 16 << 30, Available: 4 << 30}
	read := func() (*mem.VirtualMemoryStat, error) { return vm, nil }

	if got, _ := produce(t, &Memory{read: read}, nil); got != "75%" {
		t.Errorf("ram = %q, want %q", got, "75%")
	}
	if got, _ := produce(t, &Memory{available: true, read: read}, nil); got != "4G" {
		t.Errorf("ram_avail = %q, want %q", got, "4G")
	}
}

func TestDisk(t *testing.T) {
	usage := func(string) (*disk.UsageStat, error) {
		return &disk.UsageStat{UsedPercent: 41.6, Free: 120 << 30}, nil
	}
	if got, _ := produce(t, &Disk{path: "/", usage: usage}, nil); got != "42%" {
		t.Errorf("disk = %q, want %q", got, "42%")
	}
	if got, _ := produce(t, &Disk{path: "/", free: true, usage: usage}, nil); got != "120G" {
		t.Errorf("disk_free = %q, want %q", got, "120G")
	}
}

func TestLoad(t *testing.T) {
	l := &Load{avg: func() (*load.AvgStat, error) { return &load.AvgStat{Load1: 0.4246}, nil }}
	if got, _ := produce(t, l, nil); got != "0.42" {
		t.Errorf("load = %q, want %q", got, "0.42")
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "0m"},
		{12 * time.Minute, "12m"},
		{4*time.Hour + 12*time.Minute, "4h 12m"},
		{76 * time.Hour, "3d 4h"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{1023, "1023"},
		{1024, "1K"},
		{1536, "1K"},
		{5 << 20, "5M"},
		{(8 << 30) - 1, "7G"},
		{3 << 40, "3T"},
		{1 << 62, "4E"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.n); got != tt.want {
			t.Errorf("Humanize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCat(t *testing.T) {
	c := &Cat{path: "/f", readFile: func(string) ([]byte, error) {
		return []byte("\x1b[1mfirst\x1b[0m\r\nsecond\n"), nil
	}}
	if got, _ := produce(t, c, nil); got != "first" {
		t.Errorf("cat = %q, want %q", got, "first")
	}
	if _, err := NewCat(""); err == nil {
		t.Error("NewCat without a path should fail")
	}
}

func TestShell(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    string
		wantErr bool
	}{
		{"first line", "up\ndown\n", nil, "up", false},
		{"strips escapes", "\x1b[31mred\x1b[0m", nil, "red", false},
		{"failure with output", "partial\n", &exec.ExitError{}, "partial", false},
		{"failure without output", "", errors.New("exit status 1"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Shell{cmd: "x", run: func(context.Context, string) ([]byte, error) {
				return []byte(tt.out), tt.err
			}}
			dst := make([]byte, 32)
			n, err := s.Produce(dst, &blocks.Call{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Produce error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := string(dst[:n]); got != tt.want {
				t.Errorf("shell = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShellRunsCommand(t *testing.T) {
	if _, err := exec.LookPath("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	p, err := NewShell("printf 'hello\\nworld\\n'")
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	if got, _ := produce(t, p, nil); got != "hello" {
		t.Errorf("shell = %q, want %q", got, "hello")
	}
}

func TestProcLifecycle(t *testing.T) {
	running := map[int32]bool{}
	p := &Proc{
		name: "obs",
		find: func(string) (int32, error) {
			for pid, ok := range running {
				if ok {
					return pid, nil
				}
			}
			return 0, nil
		},
		alive: func(pid int32, _ string) bool { return running[pid] },
	}
	state := &blocks.ProcState{}
	call := &blocks.Call{Label: "🎥 OBS", Proc: state}

	got, call := produce(t, p, call)
	if got != "" || call.Next != blocks.Never {
		t.Errorf("absent: text %q next %d, want empty and Never", got, call.Next)
	}

	running[4242] = true
	got, call = produce(t, p, call)
	if got != "🎥 OBS" || call.Next != blocks.KeepInterval {
		t.Errorf("started: text %q next %d, want label and KeepInterval", got, call.Next)
	}
	if state.PID != 4242 {
		t.Errorf("PID = %d, want 4242", state.PID)
	}

	got, _ = produce(t, p, call)
	if got != "🎥 OBS" {
		t.Errorf("still running: text %q, want label", got)
	}

	running[4242] = false
	got, call = produce(t, p, call)
	if got != "" || call.Next != blocks.Never || state.Tracked() {
		t.Errorf("exited: text %q next %d tracked %v", got, call.Next, state.Tracked())
	}
}

func TestProcFindError(t *testing.T) {
	p := &Proc{name: "x", find: func(string) (int32, error) { return 0, errors.New("no /proc") }}
	if _, err := p.Produce(make([]byte, 8), &blocks.Call{Proc: &blocks.ProcState{}}); err == nil {
		t.Error("Produce should fail when the process table cannot be read")
	}
}

func TestWebcam(t *testing.T) {
	modules := "snd_hda_intel 61440 3 - Live 0x0\nuvcvideo 139264 0 - Live 0x0\n"
	w := &Webcam{readFile: func(string) ([]byte, error) { return []byte(modules), nil }}
	if got, _ := produce(t, w, nil); got != "📸" {
		t.Errorf("webcam = %q, want %q", got, "📸")
	}

	modules = "snd_hda_intel 61440 3 - Live 0x0\n"
	if got, _ := produce(t, w, nil); got != "" {
		t.Errorf("webcam without module = %q, want empty", got)
	}
}

func TestParseNvidiaSMI(t *testing.T) {
	out := "45, 12, 1024, 8192\n55, 30, 3072, 8192\n"
	rs, err := ParseNvidiaSMI(out)
	if err != nil {
		t.Fatalf("ParseNvidiaSMI: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("readings = %d, want 2", len(rs))
	}
	if rs[0] != (GPUReading{Temp: 45, Usage: 12, VRAMUsed: 1024, VRAMTotal: 8192}) {
		t.Errorf("reading 0 = %+v", rs[0])
	}
	avg := averageGPU(rs)
	if avg.Temp != 50 || avg.Usage != 21 || avg.VRAMPercent() != 25 {
		t.Errorf("average = %+v (vram %d%%)", avg, avg.VRAMPercent())
	}

	for _, bad := range []string{"", "45, 12\n", "45, hot, 1, 2\n"} {
		if _, err := ParseNvidiaSMI(bad); err == nil {
			t.Errorf("ParseNvidiaSMI(%q) should fail", bad)
		}
	}
}

func TestGPUMetrics(t *testing.T) {
	query := func(context.Context) ([]byte, error) { return []byte("45, 12, 2048, 8192\n"), nil }
	tests := []struct {
		metric GPUMetric
		want   string
	}{
		{GPUTemp, "45°"},
		{GPUUsage, "12%"},
		{GPUVRAM, "25%"},
		{GPUAll, "45° 12% 25%"},
	}
	for _, tt := range tests {
		g := &GPU{metric: tt.metric, query: query}
		if got, _ := produce(t, g, nil); got != tt.want {
			t.Errorf("metric %d = %q, want %q", tt.metric, got, tt.want)
		}
	}
}

func TestParseWpctl(t *testing.T) {
	tests := []struct {
		in      string
		pct     int
		muted   bool
		wantErr bool
	}{
		{"Volume: 0.45\n", 45, false, false},
		{"Volume: 1.00 [MUTED]\n", 100, true, false},
		{"Volume: 0.07", 7, false, false},
		{"Error: no node", 0, false, true},
		{"Volume: loud", 0, false, true},
	}
	for _, tt := range tests {
		pct, muted, err := ParseWpctl(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWpctl(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if pct != tt.pct || muted != tt.muted {
			t.Errorf("ParseWpctl(%q) = %d, %v, want %d, %v", tt.in, pct, muted, tt.pct, tt.muted)
		}
	}
}

func TestVolumeIcons(t *testing.T) {
	v := newVolume(DefaultSink, DefaultSink, "🔉", "🔇")
	v.getVol = func(context.Context, string) ([]byte, error) { return []byte("Volume: 0.30 [MUTED]"), nil }
	if got, _ := produce(t, v, nil); got != "🔇 30" {
		t.Errorf("volume = %q, want %q", got, "🔇 30")
	}
}

func TestVolumeDefaultNode(t *testing.T) {
	tests := []struct {
		name string
		New  func(string) (blocks.Producer, error)
		want string
	}{
		{"speaker", NewVolume, DefaultSink},
		{"mic", NewMic, DefaultSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.New("")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			var got string
			v := p.(*Volume)
			v.getVol = func(_ context.Context, node string) ([]byte, error) {
				got = node
				return []byte("Volume: 0.50"), nil
			}
			produce(t, v, nil)
			if got != tt.want {
				t.Errorf("node = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := Default()
	for _, name := range []string{"time", "date", "cpu_all", "ram", "proc", "shell", "volume"} {
		if _, err := r.Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := r.Lookup("weather"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Lookup(weather) error = %v, want ErrUnknown", err)
	}
	if err := r.Register(Entry{Name: "time", New: noArg(NewClock())}); err == nil {
		t.Error("duplicate Register should fail")
	}
	list := r.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Name >= list[i].Name {
			t.Errorf("List not sorted at %d: %q >= %q", i, list[i-1].Name, list[i].Name)
		}
	}
}

func TestBuild(t *testing.T) {
	entries := []config.BlockConfig{
		{Producer: "date", Interval: 3600, PadRight: " | "},
		{Producer: "temp", Interval: 5, Arg: "/sys/class/hwmon/hwmon1/temp1_input"},
		{Producer: "disk", Interval: 60},
	}
	var resolved []string
	resolve := func(p string) (string, error) {
		resolved = append(resolved, p)
		return strings.Replace(p, "hwmon1", "hwmon3", 1), nil
	}

	specs, err := Build(Default(), entries, resolve)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("specs = %d, want 3", len(specs))
	}
	if len(resolved) != 1 {
		t.Errorf("resolved %v, want only the temp path", resolved)
	}
	if got, want := specs[1].Arg, "/sys/class/hwmon/hwmon3/temp1_input"; got != want {
		t.Errorf("temp arg = %q, want %q", got, want)
	}
	if got := specs[2].Arg; got != "/" {
		t.Errorf("disk arg = %q, want default %q", got, "/")
	}
	if specs[0].PadRight != " | " || specs[0].Interval != 3600 {
		t.Errorf("date spec = %+v", specs[0])
	}
	if specs[2].Name != "disk:/" {
		t.Errorf("disk name = %q, want %q", specs[2].Name, "disk:/")
	}
}

func TestBuildErrors(t *testing.T) {
	fail := func(string) (string, error) { return "", errors.New("gone") }
	tests := []struct {
		name  string
		entry config.BlockConfig
	}{
		{"unknown producer", config.BlockConfig{Producer: "weather"}},
		{"unresolvable path", config.BlockConfig{Producer: "cat", Arg: "/sys/nope"}},
		{"missing argument", config.BlockConfig{Producer: "shell"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(Default(), []config.BlockConfig{tt.entry}, fail); err == nil {
				t.Error("Build should fail")
			}
		})
	}
}

func TestDefaultPresetBuilds(t *testing.T) {
	identity := func(p string) (string, error) { return p, nil }
	for _, name := range config.Presets() {
		if _, err := Build(Default(), config.BlockPreset(name), identity); err != nil {
			t.Errorf("preset %q: %v", name, err)
		}
	}
}
