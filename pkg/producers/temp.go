package producers

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// DefaultTempFile is the first thermal zone, present on most x86 machines.
const DefaultTempFile = "/sys/class/thermal/thermal_zone0/temp"

// Temp writes a temperature read from a sysfs file holding millidegrees
// Celsius, e.g. "48°".
type Temp struct {
	path     string
	readFile func(string) ([]byte, error)
}

// NewTemp returns a Temp producer reading path.
func NewTemp(path string) *Temp {
	return &Temp{path: path, readFile: os.ReadFile}
}

// Degrees returns the current reading in whole degrees.
func (t *Temp) Degrees() (int, error) {
	data, err := t.readFile(t.path)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse temperature %s: %w", t.path, err)
	}
	return milli / 1000, nil
}

func (t *Temp) Produce(dst []byte, _ *blocks.Call) (int, error) {
	deg, err := t.Degrees()
	if err != nil {
		return 0, err
	}
	return blocks.Put(dst, strconv.Itoa(deg)+UnitTemp), nil
}
