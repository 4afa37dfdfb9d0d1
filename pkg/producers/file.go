package producers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// firstLine returns the text before the first newline of out with escape
// sequences and a trailing carriage return removed.
func firstLine(out []byte) string {
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSuffix(ansi.Strip(string(out)), "\r")
}

// Cat writes the first line of a file.
type Cat struct {
	path     string
	readFile func(string) ([]byte, error)
}

// NewCat returns a Cat reading path.
func NewCat(path string) (blocks.Producer, error) {
	if path == "" {
		return nil, errors.New("cat: a file path is required")
	}
	return &Cat{path: path, readFile: os.ReadFile}, nil
}

func (c *Cat) Produce(dst []byte, _ *blocks.Call) (int, error) {
	data, err := c.readFile(c.path)
	if err != nil {
		return 0, fmt.Errorf("cat: %w", err)
	}
	return blocks.Put(dst, firstLine(data)), nil
}

// ShellTimeout bounds one run of a shell block's command.
const ShellTimeout = 5 * time.Second

// Shell writes the first line of a command's standard output. The command
// runs under /bin/sh -c.
type Shell struct {
	cmd string
	run func(ctx context.Context, cmd string) ([]byte, error)
}

// NewShell returns a Shell running cmd.
func NewShell(cmd string) (blocks.Producer, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, errors.New("shell: a command is required")
	}
	return &Shell{cmd: cmd, run: runShell}, nil
}

func runShell(ctx context.Context, cmd string) ([]byte, error) {
	return exec.CommandContext(ctx, "/bin/sh", "-c", cmd).Output()
}

func (s *Shell) Produce(dst []byte, _ *blocks.Call) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ShellTimeout)
	defer cancel()

	out, err := s.run(ctx, s.cmd)
	// Status scripts often exit non-zero after printing something useful.
	if err != nil && len(out) == 0 {
		return 0, fmt.Errorf("shell %q: %w", s.cmd, err)
	}
	return blocks.Put(dst, firstLine(out)), nil
}
