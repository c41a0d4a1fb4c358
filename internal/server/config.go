package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	DataDir  string `hcl:"data_dir,optional"`
}

// GameSettings contains game-level configuration
type GameSettings struct {
	Mode                string `hcl:"mode,optional"`
	DrawIntervalSeconds int    `hcl:"draw_interval_seconds,optional"`
	MinAutoPlayers      int    `hcl:"min_auto_players,optional"`
	RetentionHours      int    `hcl:"retention_hours,optional"`
	CleanupEveryMinutes int    `hcl:"cleanup_every_minutes,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			DataDir:  "game_history",
		},
		Game: GameSettings{
			Mode:                "rooms",
			DrawIntervalSeconds: 5,
			MinAutoPlayers:      2,
			RetentionHours:      24,
			CleanupEveryMinutes: 60,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A
// missing file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.DataDir == "" {
		config.Server.DataDir = defaults.Server.DataDir
	}
	if config.Game.Mode == "" {
		config.Game.Mode = defaults.Game.Mode
	}
	if config.Game.DrawIntervalSeconds == 0 {
		config.Game.DrawIntervalSeconds = defaults.Game.DrawIntervalSeconds
	}
	if config.Game.MinAutoPlayers == 0 {
		config.Game.MinAutoPlayers = defaults.Game.MinAutoPlayers
	}
	if config.Game.RetentionHours == 0 {
		config.Game.RetentionHours = defaults.Game.RetentionHours
	}
	if config.Game.CleanupEveryMinutes == 0 {
		config.Game.CleanupEveryMinutes = defaults.Game.CleanupEveryMinutes
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.Mode != "rooms" && c.Game.Mode != "global" {
		return fmt.Errorf("invalid game mode: %s", c.Game.Mode)
	}
	if c.Game.DrawIntervalSeconds < 1 {
		return fmt.Errorf("draw interval must be at least 1 second")
	}
	if c.Game.MinAutoPlayers < 1 {
		return fmt.Errorf("min auto players must be at least 1")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
