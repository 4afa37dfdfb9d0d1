//go:build linux

package signals

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Base is glibc's SIGRTMIN. The kernel reserves 32 and 33 for the
// threading library, so user scripts see 34 as RTMIN.
const (
	Base = 34
	Max  = 64
)

// strays returns every real-time signal so unmanaged ones are swallowed
// instead of killing the process.
func strays() []unix.Signal {
	out := make([]unix.Signal, 0, Max-Base+1)
	for n := Base; n <= Max; n++ {
		out = append(out, unix.Signal(n))
	}
	return out
}

func name(id int) string {
	return fmt.Sprintf("SIGRTMIN+%d", id)
}
