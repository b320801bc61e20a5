package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/elestrals-showdown/game-server/internal/game"
)

// ServerConfig represents the complete server configuration.
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`

	// Directory for round records. Empty disables match logging.
	MatchLogDir string `hcl:"match_log_dir,optional"`
}

// GameSettings contains the rule parameters applied to every session.
type GameSettings struct {
	DiceSides         int `hcl:"dice_sides,optional"`
	OpeningHandSize   int `hcl:"opening_hand_size,optional"`
	ElestralSlots     int `hcl:"elestral_slots,optional"`
	RuneSlots         int `hcl:"rune_slots,optional"`
	StadiumSlots      int `hcl:"stadium_slots,optional"`
	MulliganSpiritFee int `hcl:"mulligan_spirit_fee,optional"`

	// Seconds a waiting room may sit without filling before it is swept.
	RoomTimeout int `hcl:"room_timeout,optional"`
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() *ServerConfig {
	rules := game.DefaultConfig()
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			DiceSides:         20,
			OpeningHandSize:   rules.OpeningHandSize,
			ElestralSlots:     rules.ElestralSlots,
			RuneSlots:         rules.RuneSlots,
			StadiumSlots:      rules.StadiumSlots,
			MulliganSpiritFee: rules.MulliganSpiritFee,
			RoomTimeout:       300,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
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
	if config.Game.DiceSides == 0 {
		config.Game.DiceSides = defaults.Game.DiceSides
	}
	if config.Game.OpeningHandSize == 0 {
		config.Game.OpeningHandSize = defaults.Game.OpeningHandSize
	}
	if config.Game.ElestralSlots == 0 {
		config.Game.ElestralSlots = defaults.Game.ElestralSlots
	}
	if config.Game.RuneSlots == 0 {
		config.Game.RuneSlots = defaults.Game.RuneSlots
	}
	if config.Game.StadiumSlots == 0 {
		config.Game.StadiumSlots = defaults.Game.StadiumSlots
	}
	if config.Game.MulliganSpiritFee == 0 {
		config.Game.MulliganSpiritFee = defaults.Game.MulliganSpiritFee
	}
	if config.Game.RoomTimeout == 0 {
		config.Game.RoomTimeout = defaults.Game.RoomTimeout
	}

	return &config, nil
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.DiceSides < 2 {
		return fmt.Errorf("dice_sides must be at least 2, got %d", c.Game.DiceSides)
	}
	if c.Game.OpeningHandSize < 1 {
		return fmt.Errorf("opening_hand_size must be positive, got %d", c.Game.OpeningHandSize)
	}
	if c.Game.ElestralSlots < 1 || c.Game.RuneSlots < 1 {
		return fmt.Errorf("elestral_slots and rune_slots must be positive")
	}
	if c.Game.MulliganSpiritFee < 1 {
		return fmt.Errorf("mulligan_spirit_fee must be positive, got %d", c.Game.MulliganSpiritFee)
	}
	if c.Game.RoomTimeout < 1 {
		return fmt.Errorf("room_timeout must be positive, got %d", c.Game.RoomTimeout)
	}
	return nil
}

// GetServerAddress returns the full server address.
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameConfig converts the settings into the engine's rule parameters.
func (c *ServerConfig) GameConfig() game.Config {
	return game.Config{
		OpeningHandSize:   c.Game.OpeningHandSize,
		ElestralSlots:     c.Game.ElestralSlots,
		RuneSlots:         c.Game.RuneSlots,
		StadiumSlots:      c.Game.StadiumSlots,
		MulliganSpiritFee: c.Game.MulliganSpiritFee,
	}
}

// RoomTimeoutDuration returns the waiting room timeout as a duration.
func (c *ServerConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.Game.RoomTimeout) * time.Second
}
