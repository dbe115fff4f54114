package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

// GameConfig carries the table timing constants and reward policy.
// The pacing values only shape when events reach clients, never the
// state machine itself.
type GameConfig struct {
	TurnSeconds         int   `mapstructure:"turnSeconds"`
	OvertimeSeconds     int   `mapstructure:"overtimeSeconds"`
	RoundPauseMs        int   `mapstructure:"roundPauseMs"`
	CardRevealMs        int   `mapstructure:"cardRevealMs"`
	SitOutAfterTimeouts int   `mapstructure:"sitOutAfterTimeouts"`
	LoginRewardChips    int64 `mapstructure:"loginRewardChips"`
	LoginRewardCooldown int   `mapstructure:"loginRewardCooldown"` // hours
	DefaultRating       int   `mapstructure:"defaultRating"`
	RatingStep          int   `mapstructure:"ratingStep"`
}

func (g GameConfig) TurnDuration() time.Duration {
	return time.Duration(g.TurnSeconds) * time.Second
}

func (g GameConfig) Overtime() time.Duration {
	return time.Duration(g.OvertimeSeconds) * time.Second
}

func (g GameConfig) RoundPause() time.Duration {
	return time.Duration(g.RoundPauseMs) * time.Millisecond
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	setGameDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}

func setGameDefaults() {
	viper.SetDefault("game.turnSeconds", 10)
	viper.SetDefault("game.overtimeSeconds", 1)
	viper.SetDefault("game.roundPauseMs", 5000)
	viper.SetDefault("game.cardRevealMs", 500)
	viper.SetDefault("game.sitOutAfterTimeouts", 2)
	viper.SetDefault("game.loginRewardChips", 1000)
	viper.SetDefault("game.loginRewardCooldown", 24)
	viper.SetDefault("game.defaultRating", 1500)
	viper.SetDefault("game.ratingStep", 30)
}
