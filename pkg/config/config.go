// Package config loads Carve settings from TOML files.
package config

import (
	"bytes"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// DefaultFile is the file name looked up by the carve command when no
// --config flag is given.
const DefaultFile = "carve.toml"

// Kernel names accepted in Config.Kernel.
const (
	KernelBSP  = "bsp"
	KernelSDFX = "sdfx"
)

// Config holds every tunable of the carve tool.
type Config struct {
	// Kernel selects the geometry backend: "bsp" (exact polygons) or
	// "sdfx" (signed distance fields, marching cubes).
	Kernel   string `toml:"kernel"`
	LogLevel string `toml:"log_level"`

	Eval EvalConfig `toml:"eval"`
	Mesh MeshConfig `toml:"mesh"`
}

// EvalConfig controls DSL evaluation.
type EvalConfig struct {
	Timeout Duration `toml:"timeout"`
}

// MeshConfig controls primitive resolution.
type MeshConfig struct {
	CylinderSegments int `toml:"cylinder_segments"`
	SphereSegments   int `toml:"sphere_segments"`
	// SDFCells is the marching cubes resolution along the longest axis,
	// used by the sdfx kernel only.
	SDFCells int `toml:"sdf_cells"`
}

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "config: invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Kernel:   KernelBSP,
		LogLevel: "info",
		Eval:     EvalConfig{Timeout: Duration{5 * time.Second}},
		Mesh: MeshConfig{
			CylinderSegments: 32,
			SphereSegments:   16,
			SDFCells:         200,
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the
// result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Kernel {
	case KernelBSP, KernelSDFX:
	default:
		return errors.Errorf("unknown kernel %q (want %q or %q)", c.Kernel, KernelBSP, KernelSDFX)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Eval.Timeout.Duration <= 0 {
		return errors.Errorf("eval.timeout must be positive, got %s", c.Eval.Timeout.Duration)
	}
	if c.Mesh.CylinderSegments < 3 {
		return errors.Errorf("mesh.cylinder_segments must be at least 3, got %d", c.Mesh.CylinderSegments)
	}
	if c.Mesh.SphereSegments < 3 {
		return errors.Errorf("mesh.sphere_segments must be at least 3, got %d", c.Mesh.SphereSegments)
	}
	if c.Mesh.SDFCells <= 0 {
		return errors.Errorf("mesh.sdf_cells must be positive, got %d", c.Mesh.SDFCells)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Errorf("unknown log_level %q", c.LogLevel)
	}
	return l, nil
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "config: encode")
	}
	return data, nil
}
