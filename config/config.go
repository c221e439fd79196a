package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const defaultFilename = "config.yaml"

type Config struct {
	Log       Log       `yaml:"log"`
	Saavn     Saavn     `yaml:"saavn"`
	Downloads Downloads `yaml:"downloads"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("log", c.Log.ToDict()).
		Dict("saavn", c.Saavn.ToDict()).
		Dict("downloads", c.Downloads.ToDict())
}

func (c *Config) setDefaults() {
	c.Log.setDefaults()
	c.Saavn.setDefaults()
	c.Downloads.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.Saavn.validate(); nil != err {
		return fmt.Errorf("saavn config validation failed: %v", err)
	}

	if err := c.Downloads.validate(); nil != err {
		return fmt.Errorf("downloads config validation failed: %v", err)
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "pretty"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: trace, debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty"}, c.Format) {
		return fmt.Errorf("format must be 'json' or 'pretty', got: %s", c.Format)
	}

	return nil
}

type Saavn struct {
	BaseURL     string        `yaml:"base_url"`
	Context     string        `yaml:"context"`
	UserAgent   string        `yaml:"user_agent"`
	Concurrency int           `yaml:"concurrency"`
	Timeouts    SaavnTimeouts `yaml:"timeouts"`
	Retries     SaavnRetries  `yaml:"retries"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
	Cache       Cache         `yaml:"cache"`
}

func (c *Saavn) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("base_url", c.BaseURL).
		Str("context", c.Context).
		Str("user_agent", c.UserAgent).
		Int("concurrency", c.Concurrency).
		Dict("timeouts", c.Timeouts.ToDict()).
		Dict("retries", c.Retries.ToDict()).
		Dict("rate_limit", c.RateLimit.ToDict()).
		Dict("cache", c.Cache.ToDict())
}

func (c *Saavn) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.jiosaavn.com/api.php"
	}

	if c.Context == "" {
		c.Context = "web6dot0"
	}

	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:100.0) Gecko/20100101 Firefox/100.0"
	}

	if c.Concurrency == 0 {
		c.Concurrency = 4
	}

	c.Timeouts.setDefaults()
	c.Retries.setDefaults()
	c.RateLimit.setDefaults()
	c.Cache.setDefaults()
}

func (c *Saavn) validate() error {
	u, err := url.Parse(c.BaseURL)
	if nil != err {
		return fmt.Errorf("base_url is not a valid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("base_url must include a host")
	}

	if c.Concurrency < 1 {
		return errors.New("concurrency must be greater than 0")
	}

	if err := c.Timeouts.validate(); nil != err {
		return fmt.Errorf("timeouts config validation failed: %v", err)
	}

	if err := c.Retries.validate(); nil != err {
		return fmt.Errorf("retries config validation failed: %v", err)
	}

	if err := c.RateLimit.validate(); nil != err {
		return fmt.Errorf("rate_limit config validation failed: %v", err)
	}

	if err := c.Cache.validate(); nil != err {
		return fmt.Errorf("cache config validation failed: %v", err)
	}

	return nil
}

// SaavnTimeouts values are in seconds.
type SaavnTimeouts struct {
	API      int `yaml:"api"`
	Download int `yaml:"download"`
}

func (c *SaavnTimeouts) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("api", c.API).
		Int("download", c.Download)
}

func (c *SaavnTimeouts) setDefaults() {
	if c.API == 0 {
		c.API = 10
	}

	if c.Download == 0 {
		c.Download = 120
	}
}

func (c *SaavnTimeouts) validate() error {
	if c.API < 0 {
		return errors.New("api must be greater than 0")
	}

	if c.Download < 0 {
		return errors.New("download must be greater than 0")
	}

	return nil
}

func (c *SaavnTimeouts) APIDuration() time.Duration {
	return time.Duration(c.API) * time.Second
}

func (c *SaavnTimeouts) DownloadDuration() time.Duration {
	return time.Duration(c.Download) * time.Second
}

type SaavnRetries struct {
	// Max is a pointer so that an explicit 0 disables retries.
	Max       *int     `yaml:"max"`
	BaseDelay Duration `yaml:"base_delay"`
}

func (c *SaavnRetries) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("max", c.MaxRetries()).
		Str("base_delay", c.BaseDelay.String())
}

func (c *SaavnRetries) setDefaults() {
	if nil == c.Max {
		c.Max = lo.ToPtr(2)
	}

	if c.BaseDelay.Duration == 0 {
		c.BaseDelay.Duration = 500 * time.Millisecond
	}
}

func (c *SaavnRetries) validate() error {
	if c.MaxRetries() < 0 {
		return errors.New("max must not be negative")
	}

	if c.BaseDelay.Duration < 0 {
		return errors.New("base_delay must be greater than 0")
	}

	return nil
}

func (c *SaavnRetries) MaxRetries() int {
	if nil == c.Max {
		return 0
	}

	return *c.Max
}

type RateLimit struct {
	// RPS of 0 disables limiting.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func (c *RateLimit) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Float64("rps", c.RPS).
		Int("burst", c.Burst)
}

func (c *RateLimit) setDefaults() {
	if c.Burst == 0 {
		c.Burst = 4
	}
}

func (c *RateLimit) validate() error {
	if c.RPS < 0 {
		return errors.New("rps must not be negative")
	}

	if c.Burst < 1 {
		return errors.New("burst must be greater than 0")
	}

	return nil
}

type Cache struct {
	Enabled *bool    `yaml:"enabled"`
	MaxSize int64    `yaml:"max_size"`
	TTL     Duration `yaml:"ttl"`
}

func (c *Cache) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Bool("enabled", c.IsEnabled()).
		Int64("max_size", c.MaxSize).
		Str("ttl", c.TTL.String())
}

func (c *Cache) setDefaults() {
	if nil == c.Enabled {
		c.Enabled = lo.ToPtr(true)
	}

	if c.MaxSize == 0 {
		c.MaxSize = 1000
	}

	if c.TTL.Duration == 0 {
		c.TTL.Duration = 10 * time.Minute
	}
}

func (c *Cache) validate() error {
	if c.MaxSize < 0 {
		return errors.New("max_size must be greater than 0")
	}

	if c.TTL.Duration < 0 {
		return errors.New("ttl must be greater than 0")
	}

	return nil
}

func (c *Cache) IsEnabled() bool {
	return nil != c.Enabled && *c.Enabled
}

type Downloads struct {
	Dir       string `yaml:"dir"`
	IndexPath string `yaml:"index_path"`
	Bitrate   string `yaml:"bitrate"`
	Retries   int    `yaml:"retries"`
}

func (c *Downloads) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("dir", c.Dir).
		Str("index_path", c.IndexPath).
		Str("bitrate", c.Bitrate).
		Int("retries", c.Retries)
}

func (c *Downloads) setDefaults() {
	if c.Dir == "" {
		c.Dir = "./downloads"
	}

	if c.IndexPath == "" {
		c.IndexPath = "downloads.db"
	}

	if c.Bitrate == "" {
		c.Bitrate = "320kbps"
	}

	if c.Retries == 0 {
		c.Retries = 3
	}
}

func (c *Downloads) validate() error {
	if !slices.Contains([]string{"12kbps", "48kbps", "96kbps", "160kbps", "320kbps"}, c.Bitrate) {
		return fmt.Errorf("bitrate must be one of: 12kbps, 48kbps, 96kbps, 160kbps, 320kbps, got: %s", c.Bitrate)
	}

	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}

	if i, err := os.Stat(c.Dir); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat dir: %v", err)
		}
	} else if !i.IsDir() {
		return errors.New("dir must be a directory")
	}

	return nil
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); nil != err {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	parsed, err := time.ParseDuration(s)
	if nil != err {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	d.Duration = parsed

	return nil
}

// Load reads the YAML configuration file. An empty filename falls back to
// config.yaml in the working directory, which may be absent, in which case
// only defaults and environment overrides apply.
func Load(filename string) (*Config, error) {
	var (
		conf     Config
		explicit = len(filename) > 0
		name     = lo.Ternary(explicit, filename, defaultFilename)
	)

	data, err := os.ReadFile(name)
	if nil != err {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %v", name, err)
		}
	} else if err := yaml.Unmarshal(data, &conf); nil != err {
		return nil, fmt.Errorf("failed to parse config file %s: %v", name, err)
	}

	if v := os.Getenv("SAAVN_LOG_LEVEL"); v != "" {
		conf.Log.Level = v
	}

	if v := os.Getenv("SAAVN_DOWNLOADS_DIR"); v != "" {
		conf.Downloads.Dir = v
	}

	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
