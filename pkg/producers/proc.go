package producers

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// Proc writes its label while a named process runs. The pid found on the
// first scan is cached in the block's ProcState and only that process is
// checked afterwards. When the process is not running the block goes
// blank and leaves the timer; its signal group brings it back.
type Proc struct {
	name  string
	find  func(name string) (int32, error)
	alive func(pid int32, name string) bool
}

// NewProc returns a Proc watching the process named name.
func NewProc(name string) (blocks.Producer, error) {
	if name == "" {
		return nil, errors.New("proc: a process name is required")
	}
	return &Proc{name: name, find: findProcess, alive: processAlive}, nil
}

func (p *Proc) Produce(dst []byte, call *blocks.Call) (int, error) {
	label := call.Label
	if label == "" {
		label = p.name
	}

	if call.Proc.Tracked() {
		if p.alive(call.Proc.PID, p.name) {
			return blocks.Put(dst, label), nil
		}
		call.Proc.Forget()
		call.Next = blocks.Never
		return 0, nil
	}

	pid, err := p.find(p.name)
	if err != nil {
		return 0, fmt.Errorf("proc %s: %w", p.name, err)
	}
	if pid == 0 {
		call.Next = blocks.Never
		return 0, nil
	}
	call.Proc.Track(pid)
	return blocks.Put(dst, label), nil
}

// findProcess returns the pid of the first process named name, or 0.
func findProcess(name string) (int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return 0, err
	}
	self := int32(os.Getpid())
	for _, pr := range procs {
		if pr.Pid == self {
			continue
		}
		n, err := pr.Name()
		if err != nil {
			continue
		}
		if n == name {
			return pr.Pid, nil
		}
	}
	return 0, nil
}

func processAlive(pid int32, name string) bool {
	pr, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	n, err := pr.Name()
	return err == nil && n == name
}

// ModulesFile lists loaded kernel modules.
const ModulesFile = "/proc/modules"

// Webcam writes its label while the uvcvideo driver is loaded.
type Webcam struct {
	readFile func(string) ([]byte, error)
}

// NewWebcam returns a Webcam producer.
func NewWebcam() *Webcam {
	return &Webcam{readFile: os.ReadFile}
}

func (w *Webcam) Produce(dst []byte, call *blocks.Call) (int, error) {
	data, err := w.readFile(ModulesFile)
	if err != nil {
		return 0, fmt.Errorf("webcam: %w", err)
	}
	if !strings.Contains(string(data), "uvcvideo") {
		return 0, nil
	}
	label := call.Label
	if label == "" {
		label = "📸"
	}
	return blocks.Put(dst, label), nil
}
