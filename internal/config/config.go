package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/schollz/trackstudio/internal/types"
)

// Backend names a playback implementation.
const (
	BackendSimulator     = "simulator"
	BackendSuperCollider = "supercollider"
)

// Project contains where sessions are saved.
type Project struct {
	Dir      string `toml:"dir"`
	AutoSave bool   `toml:"autosave"`
}

// Recording contains capture settings.
type Recording struct {
	MaxDurationSeconds int `toml:"max_duration_seconds"`
	SampleRate         int `toml:"sample_rate"`
	MeterIntervalMs    int `toml:"meter_interval_ms"`
}

// Playback selects and tunes the playback backend.
type Playback struct {
	Backend     string `toml:"backend"`
	PaletteSize int    `toml:"palette_size"`
}

// SuperCollider contains the OSC endpoints of the SuperCollider backend.
type SuperCollider struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	ListenPort int    `toml:"listen_port"`
}

type Config struct {
	Project       Project       `toml:"project"`
	Recording     Recording     `toml:"recording"`
	Playback      Playback      `toml:"playback"`
	SuperCollider SuperCollider `toml:"supercollider"`
}

func Default() Config {
	return Config{
		Project: Project{
			Dir:      "save",
			AutoSave: true,
		},
		Recording: Recording{
			MaxDurationSeconds: types.DefaultMaxDurationSeconds,
			SampleRate:         44100,
			MeterIntervalMs:    50,
		},
		Playback: Playback{
			Backend:     BackendSimulator,
			PaletteSize: types.PaletteSize,
		},
		SuperCollider: SuperCollider{
			Host:       "localhost",
			Port:       57120,
			ListenPort: 57121,
		},
	}
}

// Load reads path over the defaults and validates the result. A missing file
// is not an error; exists reports whether one was read.
func Load(path string) (cfg *Config, exists bool, err error) {
	c := Default()
	if strings.TrimSpace(path) != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).Decode(&c); err != nil {
				return nil, false, fmt.Errorf("parse config: %w", err)
			}
			exists = true
		}
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, exists, err
	}
	return &c, exists, nil
}

func (c *Config) normalize() {
	c.Project.Dir = strings.TrimSpace(c.Project.Dir)
	c.Playback.Backend = strings.ToLower(strings.TrimSpace(c.Playback.Backend))
	c.SuperCollider.Host = strings.TrimSpace(c.SuperCollider.Host)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Project.Dir == "" {
		return errors.New("project.dir must be set")
	}
	if c.Recording.MaxDurationSeconds < 1 {
		return errors.New("recording.max_duration_seconds must be at least 1")
	}
	if c.Recording.SampleRate < 8000 || c.Recording.SampleRate > 192000 {
		return fmt.Errorf("recording.sample_rate %d is out of range 8000-192000", c.Recording.SampleRate)
	}
	if c.Recording.MeterIntervalMs < 1 {
		return errors.New("recording.meter_interval_ms must be positive")
	}
	if c.Playback.PaletteSize < 1 {
		return errors.New("playback.palette_size must be positive")
	}
	switch c.Playback.Backend {
	case BackendSimulator:
	case BackendSuperCollider:
		if c.SuperCollider.Host == "" {
			return errors.New("supercollider.host must be set")
		}
		if !validPort(c.SuperCollider.Port) || !validPort(c.SuperCollider.ListenPort) {
			return errors.New("supercollider ports must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("playback.backend %q must be %q or %q", c.Playback.Backend, BackendSimulator, BackendSuperCollider)
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

// MeterInterval is the capture metering period.
func (c *Config) MeterInterval() time.Duration {
	return time.Duration(c.Recording.MeterIntervalMs) * time.Millisecond
}

// TakesDir is where new recordings are written.
func (c *Config) TakesDir() string {
	return filepath.Join(c.Project.Dir, "takes")
}

// CreateSample writes the default configuration to path.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
