package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DB      DB      `yaml:"db"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
	Sim     Sim     `yaml:"sim"`
}

type DB struct {
	Path          string `yaml:"path"`
	AuthPath      string `yaml:"auth_path"`
	Disabled      bool   `yaml:"disabled"`
	QueueCapacity int    `yaml:"queue_capacity"`
	// JournalDir, when set, receives commands-*.jsonl.zst files of every
	// applied command.
	JournalDir string `yaml:"journal_dir"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

// Sim drives the built-in load generator of cmd/server.
type Sim struct {
	Producers        int   `yaml:"producers"`
	TickRateHz       int   `yaml:"tick_rate_hz"`
	WritesPerTick    int   `yaml:"writes_per_tick"`
	ChunkRadius      int   `yaml:"chunk_radius"`
	ChunkSize        int   `yaml:"chunk_size"`
	CommitEveryTicks int   `yaml:"commit_every_ticks"`
	Seed             int64 `yaml:"seed"`
}

func Defaults() Config {
	return Config{
		DB: DB{
			Path:          "./data/craft.db",
			QueueCapacity: 1024,
		},
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Addr: ":9464"},
		Sim: Sim{
			Producers:        4,
			TickRateHz:       20,
			WritesPerTick:    16,
			ChunkRadius:      2,
			ChunkSize:        32,
			CommitEveryTicks: 1,
			Seed:             1337,
		},
	}
}

// Load reads a YAML config over Defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "%s", filepath.Base(path))
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithMessage(err, filepath.Base(path))
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	c.DB.AuthPath = strings.TrimSpace(c.DB.AuthPath)
	c.DB.JournalDir = strings.TrimSpace(c.DB.JournalDir)
	if c.DB.QueueCapacity <= 0 {
		c.DB.QueueCapacity = 1024
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Sim.Producers <= 0 {
		c.Sim.Producers = 1
	}
	if c.Sim.TickRateHz <= 0 {
		c.Sim.TickRateHz = 20
	}
	if c.Sim.ChunkSize <= 0 {
		c.Sim.ChunkSize = 32
	}
	if c.Sim.CommitEveryTicks <= 0 {
		c.Sim.CommitEveryTicks = 1
	}
}

func (c Config) Validate() error {
	if !c.DB.Disabled && c.DB.Path == "" {
		return errors.New("db.path is required unless db.disabled")
	}
	switch c.Log.Format {
	case "text", "json", "color":
	default:
		return errors.Errorf("log.format %q: want text, json or color", c.Log.Format)
	}
	if c.Sim.ChunkRadius < 0 {
		return errors.Errorf("sim.chunk_radius %d: must be >= 0", c.Sim.ChunkRadius)
	}
	if c.Sim.WritesPerTick < 0 {
		return errors.Errorf("sim.writes_per_tick %d: must be >= 0", c.Sim.WritesPerTick)
	}
	return nil
}
