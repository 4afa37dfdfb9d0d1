// Package producers provides the named block producers a configuration can
// refer to, and builds block specs from configuration entries.
package producers

import (
	"errors"
	"fmt"
	"sort"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// ErrUnknown is returned by Lookup for a name that was never registered.
var ErrUnknown = errors.New("unknown producer")

// Factory creates a producer for one block. arg is the block's argument
// after path resolution.
type Factory func(arg string) (blocks.Producer, error)

// Entry describes a registered producer.
type Entry struct {
	Name string

	// Usage is a one-line description shown by -list.
	Usage string

	New Factory

	// TakesPath marks producers whose argument is a file path. Paths under
	// /sys are resolved once at startup.
	TakesPath bool

	// DefaultArg is used when a block leaves its argument empty.
	DefaultArg string
}

// Registry maps producer names to entries. It is populated at startup and
// read-only afterwards.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e. It returns an error if the name is empty, already
// registered, or has no factory.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.New == nil {
		return fmt.Errorf("producer %q: name and factory are required", e.Name)
	}
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("producer %q already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return e, nil
}

// List returns every entry sorted by name.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default returns a registry holding every built-in producer.
func Default() *Registry {
	r := NewRegistry()
	for _, e := range builtins() {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

func noArg(p blocks.Producer) Factory {
	return func(string) (blocks.Producer, error) { return p, nil }
}

func builtins() []Entry {
	return []Entry{
		{Name: "time", Usage: "12-hour clock, refreshed on the minute", New: noArg(NewClock())},
		{Name: "date", Usage: "weekday, day, month and year, refreshed at midnight", New: noArg(NewDate())},
		{Name: "cpu", Usage: "CPU usage percent", New: func(string) (blocks.Producer, error) { return NewCPU(), nil }},
		{Name: "cpu_temp", Usage: "temperature from a millidegree sysfs file", TakesPath: true,
			DefaultArg: DefaultTempFile, New: func(arg string) (blocks.Producer, error) { return NewTemp(arg), nil }},
		{Name: "cpu_all", Usage: "CPU temperature and usage", TakesPath: true,
			DefaultArg: DefaultTempFile, New: func(arg string) (blocks.Producer, error) { return NewCPUAll(arg), nil }},
		{Name: "temp", Usage: "temperature from a millidegree sysfs file", TakesPath: true,
			New: func(arg string) (blocks.Producer, error) { return NewTemp(arg), nil }},
		{Name: "ram", Usage: "RAM usage percent", New: noArg(NewMemory(false))},
		{Name: "ram_avail", Usage: "available RAM, human-sized", New: noArg(NewMemory(true))},
		{Name: "disk", Usage: "disk usage percent of a mount point", DefaultArg: "/",
			New: func(arg string) (blocks.Producer, error) { return NewDisk(arg, false), nil }},
		{Name: "disk_free", Usage: "free space of a mount point, human-sized", DefaultArg: "/",
			New: func(arg string) (blocks.Producer, error) { return NewDisk(arg, true), nil }},
		{Name: "load", Usage: "1-minute load average", New: noArg(NewLoad())},
		{Name: "uptime", Usage: "time since boot", New: noArg(NewUptime())},
		{Name: "cat", Usage: "first line of a file", TakesPath: true, New: NewCat},
		{Name: "shell", Usage: "first line of a shell command's output", New: NewShell},
		{Name: "proc", Usage: "label while a process is running", New: NewProc},
		{Name: "webcam", Usage: "label while the uvcvideo module is loaded", New: noArg(NewWebcam())},
		{Name: "gpu_temp", Usage: "NVIDIA GPU temperature", New: noArg(NewGPU(GPUTemp))},
		{Name: "gpu_usage", Usage: "NVIDIA GPU usage percent", New: noArg(NewGPU(GPUUsage))},
		{Name: "gpu_vram", Usage: "NVIDIA GPU memory usage percent", New: noArg(NewGPU(GPUVRAM))},
		{Name: "gpu_all", Usage: "NVIDIA GPU temperature, usage and memory", New: noArg(NewGPU(GPUAll))},
		{Name: "volume", Usage: "default PipeWire sink volume", DefaultArg: DefaultSink, New: NewVolume},
		{Name: "mic", Usage: "default PipeWire source volume", DefaultArg: DefaultSource, New: NewMic},
	}
}
