package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the rules knobs shared by the server and the console.
type Game struct {
	BoardSize        int           `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"6"`
	TurnTimeLimit    time.Duration `yaml:"turn-time-limit" env:"GAME_TURN_TIME_LIMIT" env-default:"30s"`
	BotDelay         time.Duration `yaml:"bot-delay" env:"GAME_BOT_DELAY" env-default:"1s"`
	ReconnectTimeout time.Duration `yaml:"reconnect-timeout" env:"GAME_RECONNECT_TIMEOUT" env-default:"1m"`
	SavePath         string        `yaml:"save-path" env:"GAME_SAVE_PATH" env-default:"saved_game.txt"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// LoadEnv builds the configuration from environment variables and defaults only.
func LoadEnv() (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
