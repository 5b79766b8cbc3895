package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Username string `yaml:"username" env:"TTT_USERNAME"`
	Nakama   Nakama `yaml:"nakama"`
	Redis    Redis  `yaml:"redis"`
	Match    Match  `yaml:"match"`
	Status   Status `yaml:"status"`
}

type Nakama struct {
	Host      string        `yaml:"host" env:"NAKAMA_HOST" env-default:"localhost"`
	Port      string        `yaml:"port" env:"NAKAMA_PORT" env-default:"7350"`
	ServerKey string        `yaml:"server-key" env:"NAKAMA_SERVER_KEY" env-default:"defaultkey"`
	Secure    bool          `yaml:"secure" env:"NAKAMA_SECURE" env-default:"false"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Match struct {
	Mode         string        `yaml:"mode" env:"TTT_MODE" env-default:"classic"`
	TurnSeconds  int           `yaml:"turn-seconds" env-default:"30"`
	GraceDelay   time.Duration `yaml:"grace-delay" env-default:"2s"`
	LeaveTimeout time.Duration `yaml:"leave-timeout" env-default:"5s"`
	HistoryLimit int64         `yaml:"history-limit" env-default:"50"`
}

type Status struct {
	Port string `yaml:"port" env:"TTT_STATUS_PORT" env-default:"9090"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

// HTTPURL - base address of the server REST API.
func (that *Nakama) HTTPURL() string {
	scheme := "http"
	if that.Secure {
		scheme = "https"
	}

	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(that.Host, that.Port)}

	return u.String()
}

// SocketURL - realtime endpoint, the session token goes in the query string.
func (that *Nakama) SocketURL(token string) string {
	scheme := "ws"
	if that.Secure {
		scheme = "wss"
	}

	query := url.Values{}
	query.Set("lang", "en")
	query.Set("status", "true")
	query.Set("token", token)

	u := url.URL{
		Scheme:   scheme,
		Host:     net.JoinHostPort(that.Host, that.Port),
		Path:     "/ws",
		RawQuery: query.Encode(),
	}

	return u.String()
}
