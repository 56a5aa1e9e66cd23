package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Matching MatchingConfig `yaml:"matching"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port" validate:"min=1,max=65535"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=postgres memory"`
	Host     string `yaml:"host" validate:"required_if=Driver postgres"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required_if=Driver postgres"`
	SSLMode  string `yaml:"sslmode"`
	Migrate  bool   `yaml:"migrate"`
	SeedFile string `yaml:"seed_file"`
}

// AWSConfig holds AWS configuration. Report archiving is off when S3Bucket is empty.
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" validate:"required"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MatchingConfig holds the product constants of the matchmaking flow
type MatchingConfig struct {
	PoolCapacity     int           `yaml:"pool_capacity" validate:"min=2"`
	RequestQuota     int           `yaml:"request_quota" validate:"min=1"`
	Cooldown         time.Duration `yaml:"cooldown" validate:"min=0"`
	ActiveWindow     time.Duration `yaml:"active_window" validate:"gt=0"`
	MeetingMinHours  int           `yaml:"meeting_min_hours" validate:"min=0"`
	MeetingMaxHours  int           `yaml:"meeting_max_hours" validate:"gtefield=MeetingMinHours"`
	MeetingSpots     []string      `yaml:"meeting_spots" validate:"min=1,dive,required"`
	DailyMeters      int           `yaml:"daily_meters" validate:"min=1,max=12"`
	MaxMessageLength int           `yaml:"max_message_length" validate:"min=1"`
}

// DefaultMeetingSpots are the venues suggested for a first meetup
var DefaultMeetingSpots = []string{
	"Campus Café - Central Plaza",
	"Main Library - 2nd Floor Lounge",
	"Student Center - Game Zone",
	"Coffee Day - Near Gate 3",
	"Green Bench - Sports Ground",
	"Food Court - Back Entrance",
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Port:    5432,
			SSLMode: "disable",
			Migrate: true,
		},
		Log:      LogConfig{Level: "info"},
		CORS:     CORSConfig{AllowedOrigins: []string{"*"}},
		Matching: DefaultMatching(),
	}
}

// DefaultMatching returns the stock matchmaking constants
func DefaultMatching() MatchingConfig {
	return MatchingConfig{
		PoolCapacity:     9,
		RequestQuota:     5,
		Cooldown:         14 * time.Hour,
		ActiveWindow:     24 * time.Hour,
		MeetingMinHours:  2,
		MeetingMaxHours:  6,
		MeetingSpots:     append([]string(nil), DefaultMeetingSpots...),
		DailyMeters:      1,
		MaxMessageLength: 2000,
	}
}

// Load reads configuration from a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
