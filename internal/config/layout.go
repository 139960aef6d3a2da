// Package config loads a pin layout file and builds the sensors, outputs
// and shift registers it describes.
package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// File is the on-disk pin layout.
type File struct {
	Sensors        []SensorSpec   `json:"sensors"`
	Outputs        []OutputSpec   `json:"outputs"`
	ShiftRegisters []RegisterSpec `json:"shift_registers"`
}

// SensorSpec describes one input.
type SensorSpec struct {
	Name       string   `json:"name"`
	Channel    int      `json:"channel"`
	Analog     bool     `json:"analog"`
	PullUp     bool     `json:"pull_up"`
	Reversed   bool     `json:"reversed"`
	DebounceMs uint32   `json:"debounce_ms"`
	Actions    []string `json:"actions"`
}

// OutputSpec describes one output. Shift and Mirror name a shift
// register and a sensor declared in the same file.
type OutputSpec struct {
	Name    string `json:"name"`
	Channel int    `json:"channel"`
	Analog  bool   `json:"analog"`
	Initial byte   `json:"initial"`
	Shift   string `json:"shift"`
	Mirror  string `json:"mirror"`
}

// RegisterSpec describes a bit-banged shift register.
type RegisterSpec struct {
	Name  string `json:"name"`
	Data  int    `json:"data"`
	Clock int    `json:"clock"`
	Latch int    `json:"latch"`
	Width int    `json:"width"`
}

// Load reads a layout file from path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open layout")
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "layout %s", path)
	}
	return file, nil
}

// Parse decodes a layout. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode layout")
	}
	return &file, nil
}
