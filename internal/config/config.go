package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the config file location.
const EnvPath = "SNACKARENA_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config/server.toml"

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Game      GameConfig      `toml:"game"`
	Scripts   ScriptsConfig   `toml:"scripts"`
	Broadcast BroadcastConfig `toml:"broadcast"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name            string        `toml:"name"`
	BindAddress     string        `toml:"bind_address"`
	TickRate        time.Duration `toml:"tick_rate"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	StartTime       int64         // set at boot, not from config
}

// DatabaseConfig points at the leaderboard database. An empty DSN runs the
// server without one.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type GameConfig struct {
	RoundDuration       time.Duration `toml:"round_duration"`
	PlayersPerRound     int           `toml:"players_per_round"`
	MinMembers          int           `toml:"min_members"`
	ItemRate            float64       `toml:"item_rate"` // chance of an item per floor tile at round start
	ItemRespawnInterval time.Duration `toml:"item_respawn_interval"`
	ItemRespawnChance   float64       `toml:"item_respawn_chance"`
	AgentDelay          time.Duration `toml:"agent_delay"`
	MapFile             string        `toml:"map_file"`
	DefaultMap          string        `toml:"default_map"`
}

type ScriptsConfig struct {
	Dir               string        `toml:"dir"`
	EasyPredator      string        `toml:"easy_predator"`
	DifficultPredator string        `toml:"difficult_predator"`
	CallLimit         time.Duration `toml:"call_limit"` // per decision call, 0 = unbounded
}

type BroadcastConfig struct {
	Path         string        `toml:"path"`
	Encoding     string        `toml:"encoding"` // "json" or "msgpack"
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Path returns the config file to load.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Server.TickRate <= 0:
		return fmt.Errorf("server.tick_rate must be positive")
	case c.Game.RoundDuration <= 0:
		return fmt.Errorf("game.round_duration must be positive")
	case c.Game.MinMembers < 1:
		return fmt.Errorf("game.min_members must be at least 1")
	case c.Game.ItemRate < 0 || c.Game.ItemRate > 1:
		return fmt.Errorf("game.item_rate must be within [0, 1]")
	case c.Scripts.CallLimit < 0:
		return fmt.Errorf("scripts.call_limit must not be negative")
	case c.Game.ItemRespawnChance < 0 || c.Game.ItemRespawnChance > 1:
		return fmt.Errorf("game.item_respawn_chance must be within [0, 1]")
	}
	switch c.Broadcast.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("broadcast.encoding %q is not json or msgpack", c.Broadcast.Encoding)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "snackarena",
			BindAddress:     "0.0.0.0:8080",
			TickRate:        50 * time.Millisecond,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Game: GameConfig{
			RoundDuration:       5 * time.Minute,
			PlayersPerRound:     5,
			MinMembers:          2,
			ItemRate:            0.1,
			ItemRespawnInterval: 10 * time.Second,
			ItemRespawnChance:   0.1,
			AgentDelay:          2 * time.Second,
			MapFile:             "data/yaml/maps.yaml",
			DefaultMap:          "classic",
		},
		Scripts: ScriptsConfig{
			Dir:               "scripts",
			EasyPredator:      "easy",
			DifficultPredator: "difficult",
			CallLimit:         250 * time.Millisecond,
		},
		Broadcast: BroadcastConfig{
			Path:         "/ws",
			Encoding:     "json",
			WriteTimeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
