// Package config loads and validates configuration at startup.
// Fail-fast: an invalid value stops the process before any network or
// database work happens.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/ini.v1"
)

// DefaultEmployerIDs are the hh.ru employers loaded when HH_EMPLOYER_IDS is unset.
var DefaultEmployerIDs = []string{
	"78638", "1740", "87021", "80", "4181", "4219", "1373", "39305", "3388", "15478",
}

// Config holds all runtime configuration for the vacancy loader.
//
// Fetcher and database fields are untagged so they are read only under the
// HH_ prefix (HH_PAGE_SIZE, HH_USER_AGENT...). Only the process-wide
// settings below them are tagged, which lets envconfig also accept their
// bare names (REDIS_URL, LOG_LEVEL...).
type Config struct {
	// EmployerIDs is read from HH_EMPLOYER_IDS by Load; split_words would
	// turn the field name into EMPLOYER_I_DS.
	EmployerIDs      []string      `ignored:"true"`
	BaseURL          string        `split_words:"true" default:"https://api.hh.ru"`
	PageSize         int           `split_words:"true" default:"100"`
	MaxPages         int           `split_words:"true" default:"2"`
	RequestTimeout   time.Duration `split_words:"true" default:"15s"`
	FetchConcurrency int           `split_words:"true" default:"1"`
	UserAgent        string        `split_words:"true" default:"vacancy-loader/1.0 (jobmate)"`

	DB           DBConfig
	DBConfigFile string `split_words:"true"`

	RedisURL          string `envconfig:"REDIS_URL"`
	SyncIntervalHours int    `envconfig:"SYNC_INTERVAL_HOURS" default:"24"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// employerEnv maps HH_EMPLOYER_IDS.
type employerEnv struct {
	IDs []string
}

// DBConfig holds PostgreSQL connection parameters. Name is the database that
// is dropped and recreated on every load; AdminDB is the maintenance database
// used to issue DROP/CREATE DATABASE.
//
// Fields are untagged so envconfig never falls back to unprefixed names such
// as USER or PORT; the keys are HH_DB_HOST, HH_DB_ADMIN_DB, HH_DB_SSL_MODE...
type DBConfig struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true" default:"5432"`
	User     string `split_words:"true" default:"postgres"`
	Password string `split_words:"true"`
	Name     string `split_words:"true" default:"hh_info"`
	AdminDB  string `split_words:"true" default:"postgres"`
	SSLMode  string `split_words:"true" default:"disable"`
}

// URL returns a postgres:// connection string for the named database.
func (d DBConfig) URL(database string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + database,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// TargetURL is the connection string of the loader's own database.
func (d DBConfig) TargetURL() string { return d.URL(d.Name) }

// AdminURL is the connection string of the maintenance database.
func (d DBConfig) AdminURL() string { return d.URL(d.AdminDB) }

// Load reads an optional .env file, then environment variables with the HH_
// prefix, then the optional database.ini, and returns a validated Config.
// REDIS_URL, SYNC_INTERVAL_HOURS, LOG_LEVEL and LOG_FORMAT are also accepted
// without the prefix.
func Load(envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("HH", &cfg); err != nil {
		return nil, fmt.Errorf("envconfig: %w", err)
	}
	var emp employerEnv
	if err := envconfig.Process("HH_EMPLOYER", &emp); err != nil {
		return nil, fmt.Errorf("envconfig: %w", err)
	}
	cfg.EmployerIDs = emp.IDs
	if len(cfg.EmployerIDs) == 0 {
		cfg.EmployerIDs = append([]string(nil), DefaultEmployerIDs...)
	}

	if cfg.DBConfigFile != "" {
		if err := cfg.DB.MergeINI(cfg.DBConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if len(c.EmployerIDs) == 0 {
		errs = append(errs, errors.New("at least one employer id is required"))
	}
	for _, id := range c.EmployerIDs {
		if id == "" {
			errs = append(errs, errors.New("employer ids must not be empty"))
			break
		}
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("HH_BASE_URL is required"))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("HH_PAGE_SIZE must be between 1 and 100, got %d", c.PageSize))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("HH_MAX_PAGES must not be negative, got %d", c.MaxPages))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HH_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("HH_FETCH_CONCURRENCY must be at least 1, got %d", c.FetchConcurrency))
	}
	if c.SyncIntervalHours < 1 {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL_HOURS must be a positive integer, got %d", c.SyncIntervalHours))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("HH_DB_NAME is required"))
	}
	if c.DB.Name == c.DB.AdminDB {
		errs = append(errs, fmt.Errorf("HH_DB_NAME must differ from the admin database %q", c.DB.AdminDB))
	}
	return errors.Join(errs...)
}

// MergeINI overrides connection parameters with the [postgresql] section of
// an ini file (host, port, user, password, dbname). Missing keys keep their
// current values.
func (d *DBConfig) MergeINI(path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	sec, err := f.GetSection("postgresql")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if k := sec.Key("host"); k.String() != "" {
		d.Host = k.String()
	}
	if k := sec.Key("port"); k.String() != "" {
		port, err := k.Int()
		if err != nil {
			return fmt.Errorf("%s: port: %w", path, err)
		}
		d.Port = port
	}
	if k := sec.Key("user"); k.String() != "" {
		d.User = k.String()
	}
	if sec.HasKey("password") {
		d.Password = sec.Key("password").String()
	}
	if k := sec.Key("dbname"); k.String() != "" {
		d.Name = k.String()
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
