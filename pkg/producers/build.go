package producers

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/sysfs"
)

// Resolver rewrites a path argument before its producer is created.
type Resolver func(path string) (string, error)

// Build turns configuration entries into block specs, in order. Path
// arguments are passed through resolve when non-nil; sysfs.Resolve is the
// usual choice. Any unknown producer or unresolvable path fails the build.
func Build(r *Registry, entries []config.BlockConfig, resolve Resolver) ([]blocks.Spec, error) {
	specs := make([]blocks.Spec, 0, len(entries))
	for i, bc := range entries {
		e, err := r.Lookup(bc.Producer)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}

		arg := bc.Arg
		if arg == "" {
			arg = e.DefaultArg
		}
		if e.TakesPath && arg != "" && resolve != nil {
			resolved, err := resolve(arg)
			if err != nil {
				return nil, fmt.Errorf("block %d (%s): %w", i, bc.Producer, err)
			}
			arg = resolved
		}

		p, err := e.New(arg)
		if err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, bc.Producer, err)
		}
		specs = append(specs, blocks.Spec{
			Name:     specName(bc.Producer, arg),
			Interval: bc.Interval,
			Signal:   bc.Signal,
			Producer: p,
			Arg:      arg,
			Label:    bc.Label,
			PadLeft:  bc.PadLeft,
			PadRight: bc.PadRight,
		})
	}
	return specs, nil
}

// SysfsResolver is the Resolver used at startup.
var SysfsResolver Resolver = sysfs.Resolve

func specName(producer, arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n") || len(arg) > 32 {
		return producer
	}
	return producer + ":" + arg
}
