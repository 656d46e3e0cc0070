package bench

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Default sizes.
const (
	DefaultSimpleCalls  = 1_000_000
	DefaultComplexCalls = 1_000
	DefaultListSize     = 100_000
)

// Config sizes a benchmark run.
type Config struct {
	// SimpleCalls is the number of calls in scenario A.
	SimpleCalls int `json:"simple_calls" toml:"simple_calls"`

	// ComplexCalls is the number of calls in scenarios B and C.
	ComplexCalls int `json:"complex_calls" toml:"complex_calls"`

	// ListSize is the length of the float sequence; element i is float64(i).
	ListSize int `json:"list_size" toml:"list_size"`

	// Workers spreads scenario C over this many goroutines.
	// Internal time is still the sum over every call.
	Workers int `json:"workers" toml:"workers"`

	// Label tags the run in stored history.
	Label string `json:"label" toml:"label"`
}

// DefaultConfig returns the standard run sizes with a single worker.
func DefaultConfig() Config {
	return Config{
		SimpleCalls:  DefaultSimpleCalls,
		ComplexCalls: DefaultComplexCalls,
		ListSize:     DefaultListSize,
		Workers:      1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.SimpleCalls <= 0:
		return fmt.Errorf("simple calls must be positive, got %d", c.SimpleCalls)
	case c.ComplexCalls <= 0:
		return fmt.Errorf("complex calls must be positive, got %d", c.ComplexCalls)
	case c.ListSize < 0:
		return fmt.Errorf("list size must not be negative, got %d", c.ListSize)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Workers > c.ComplexCalls:
		return fmt.Errorf("workers (%d) must not exceed complex calls (%d)", c.Workers, c.ComplexCalls)
	}
	return nil
}

// LoadConfigFile reads a TOML run configuration on top of base. Keys the
// file leaves out keep their base value; unknown keys are an error.
//
//	simple_calls  = 100000
//	complex_calls = 500
//	list_size     = 10000
//	workers       = 4
//	label         = "laptop"
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := base
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FloatList builds the benchmark input: n elements, element i is float64(i).
func FloatList(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return data
}
