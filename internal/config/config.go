package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/workdesk/internal/gateway"
)

// Config defines client and host configuration.
type Config struct {
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Auth      AuthConfig      `yaml:"auth"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
}

// EndpointsConfig holds the base URL of each resource. Base, when set, fills
// any resource left empty with Base + "/" + resource.
type EndpointsConfig struct {
	Base        string   `yaml:"base"`
	Companies   string   `yaml:"companies"`
	Departments string   `yaml:"departments"`
	Users       string   `yaml:"users"`
	Projects    string   `yaml:"projects"`
	Tasks       string   `yaml:"tasks"`
	Roles       []string `yaml:"roles"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	Token  string `yaml:"token"`
}

type GatewayConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UnavailableWindow time.Duration `yaml:"unavailable_window"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Tokens maps bearer tokens accepted in HTTP mode to workspace ids.
	Tokens map[string]string `yaml:"tokens"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	// Path of the SQLite file. Empty keeps the cache in memory only.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads an optional .env file, an optional YAML file and environment
// variables, in that order of increasing precedence over the defaults.
func Load() (Config, error) {
	cfg := Config{
		Gateway: GatewayConfig{
			Timeout:           gateway.DefaultTimeout,
			UnavailableWindow: gateway.DefaultUnavailableWindow,
			MaxBodyBytes:      gateway.DefaultMaxBodyBytes,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "workdesk.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	envFile := os.Getenv("WORKDESK_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if path := os.Getenv("WORKDESK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"WORKDESK_ENDPOINT_BASE":        &cfg.Endpoints.Base,
		"WORKDESK_ENDPOINT_COMPANIES":   &cfg.Endpoints.Companies,
		"WORKDESK_ENDPOINT_DEPARTMENTS": &cfg.Endpoints.Departments,
		"WORKDESK_ENDPOINT_USERS":       &cfg.Endpoints.Users,
		"WORKDESK_ENDPOINT_PROJECTS":    &cfg.Endpoints.Projects,
		"WORKDESK_ENDPOINT_TASKS":       &cfg.Endpoints.Tasks,
		"WORKDESK_API_KEY":              &cfg.Auth.APIKey,
		"WORKDESK_TOKEN":                &cfg.Auth.Token,
		"WORKDESK_SERVER_HOST":          &cfg.Server.Host,
		"WORKDESK_TRANSPORT":            &cfg.Transport.Mode,
		"WORKDESK_DB_PATH":              &cfg.DB.Path,
		"WORKDESK_LOG_LEVEL":            &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if roles := os.Getenv("WORKDESK_ENDPOINT_ROLES"); roles != "" {
		cfg.Endpoints.Roles = splitList(roles)
	}
	if portStr := os.Getenv("WORKDESK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid WORKDESK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if tokens := os.Getenv("WORKDESK_SERVER_TOKENS"); tokens != "" {
		parsed, err := parseTokens(tokens)
		if err != nil {
			return err
		}
		cfg.Server.Tokens = parsed
	}

	durations := map[string]*time.Duration{
		"WORKDESK_GATEWAY_TIMEOUT":    &cfg.Gateway.Timeout,
		"WORKDESK_UNAVAILABLE_WINDOW": &cfg.Gateway.UnavailableWindow,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q: want stdio or http", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("invalid gateway timeout %s", c.Gateway.Timeout)
	}
	return nil
}

// GatewayConfig builds the gateway client configuration.
func (c Config) GatewayConfig() gateway.Config {
	e := c.Endpoints
	derive := func(explicit string, res gateway.Resource) []string {
		switch {
		case explicit != "":
			return []string{explicit}
		case e.Base != "":
			return []string{strings.TrimRight(e.Base, "/") + "/" + string(res)}
		}
		return nil
	}

	endpoints := map[gateway.Resource][]string{
		gateway.Companies:   derive(e.Companies, gateway.Companies),
		gateway.Departments: derive(e.Departments, gateway.Departments),
		gateway.Users:       derive(e.Users, gateway.Users),
		gateway.Projects:    derive(e.Projects, gateway.Projects),
		gateway.Tasks:       derive(e.Tasks, gateway.Tasks),
		gateway.Roles:       e.Roles,
	}
	if len(e.Roles) == 0 {
		endpoints[gateway.Roles] = derive("", gateway.Roles)
	}

	return gateway.Config{
		Endpoints:         endpoints,
		Timeout:           c.Gateway.Timeout,
		UnavailableWindow: c.Gateway.UnavailableWindow,
		MaxBodyBytes:      c.Gateway.MaxBodyBytes,
	}
}

// GatewayAuth returns the initial gateway credentials.
func (c Config) GatewayAuth() gateway.Auth {
	return gateway.Auth{APIKey: c.Auth.APIKey, Token: c.Auth.Token}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTokens reads "token=workspace,token2=workspace2".
func parseTokens(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(s) {
		token, workspace, ok := strings.Cut(pair, "=")
		if !ok || token == "" || workspace == "" {
			return nil, fmt.Errorf("invalid WORKDESK_SERVER_TOKENS entry %q", pair)
		}
		out[strings.TrimSpace(token)] = strings.TrimSpace(workspace)
	}
	return out, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
