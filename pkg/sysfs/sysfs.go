// Package sysfs resolves /sys paths whose numbered directories change
// between boots, such as hwmon3 becoming hwmon4 after a driver reload.
package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnresolved is returned when a path neither exists nor matches any
// renumbered sysfs entry.
var ErrUnresolved = errors.New("sysfs path not found")

var numbered = regexp.MustCompile(`^([A-Za-z_]+)[0-9]+$`)

// Resolve returns path unchanged if it exists. Otherwise, for paths under
// /sys, each directory component ending in a number (hwmon1, thermal_zone0)
// is widened to match any number, and the first existing match is returned.
func Resolve(path string) (string, error) {
	return resolve("", path)
}

// resolve performs Resolve with every filesystem lookup made under root.
func resolve(root, path string) (string, error) {
	if _, err := os.Stat(root + path); err == nil {
		return path, nil
	}
	if !strings.HasPrefix(path, "/sys/") {
		return "", fmt.Errorf("%s: %w", path, ErrUnresolved)
	}

	pattern, widened := Pattern(path)
	if !widened {
		return "", fmt.Errorf("%s: %w", path, ErrUnresolved)
	}
	matches, err := filepath.Glob(root + pattern)
	if err != nil {
		return "", fmt.Errorf("%s: glob %q: %w", path, pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s: no match for %q: %w", path, pattern, ErrUnresolved)
	}
	return strings.TrimPrefix(matches[0], root), nil
}

// Pattern returns the glob Resolve falls back to for path and whether any
// component was widened. The final component is never changed.
func Pattern(path string) (string, bool) {
	parts := strings.Split(path, "/")
	widened := false
	for i := 0; i < len(parts)-1; i++ {
		if m := numbered.FindStringSubmatch(parts[i]); m != nil {
			parts[i] = m[1] + "[0-9]*"
			widened = true
		}
	}
	return strings.Join(parts, "/"), widened
}
