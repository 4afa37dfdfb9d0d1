//go:build !linux

package signals

import "golang.org/x/sys/unix"

// Without real-time signals only SIGUSR1 and SIGUSR2 are available, as
// groups 1 and 2.
const (
	Base = int(unix.SIGUSR1) - 1
	Max  = int(unix.SIGUSR2)
)

func strays() []unix.Signal {
	return nil
}

func name(id int) string {
	return unix.SignalName(Signal(id))
}
