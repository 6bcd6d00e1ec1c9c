package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/rohmanhakim/dogbreeds/internal/build"
	"github.com/rohmanhakim/dogbreeds/internal/dogapi"
)

type Config struct {
	//===============
	//  Lookup
	//===============
	// Breeds looked up by the driver, in order.
	breeds []string

	//===============
	// Source
	//===============
	// Root of the breed API; "/breed/{name}/list" is appended to it.
	baseURL url.URL
	// Answer from the local fixture table instead of the breed API.
	offline bool
	// YAML table used when offline. Empty means the built-in table.
	fixtureFile string

	//===============
	// Fetch
	//===============
	// Maximum time of a single request to the breed API.
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string

	//===============
	// Politeness
	//===============
	// Minimum, fixed waiting time between two requests to the API host.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	jitter time.Duration
	// Controls the jitter random number generator
	randomSeed int64

	//===============
	// Logging
	//===============
	logLevel string
}

type configDTO struct {
	Breeds      []string      `json:"breeds,omitempty"`
	BaseURL     string        `json:"baseUrl,omitempty"`
	Offline     bool          `json:"offline,omitempty"`
	FixtureFile string        `json:"fixtureFile,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
	BaseDelay   time.Duration `json:"baseDelay,omitempty"`
	Jitter      time.Duration `json:"jitter,omitempty"`
	RandomSeed  int64         `json:"randomSeed,omitempty"`
	LogLevel    string        `json:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	// Start with default config
	builder := WithDefault()

	if len(dto.Breeds) > 0 {
		builder = builder.WithBreeds(dto.Breeds)
	}
	if dto.BaseURL != "" {
		u, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: baseUrl: %s", ErrInvalidConfig, err.Error())
		}
		builder = builder.WithBaseURL(*u)
	}
	// Offline is a boolean, the DTO value is used as-is
	builder = builder.WithOffline(dto.Offline)
	if dto.FixtureFile != "" {
		builder = builder.WithFixtureFile(dto.FixtureFile)
	}
	if dto.Timeout != 0 {
		builder = builder.WithTimeout(dto.Timeout)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.BaseDelay != 0 {
		builder = builder.WithBaseDelay(dto.BaseDelay)
	}
	if dto.Jitter != 0 {
		builder = builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder = builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.LogLevel != "" {
		builder = builder.WithLogLevel(dto.LogLevel)
	}

	return builder.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for every field.
func WithDefault() *Config {
	baseURL, _ := url.Parse(dogapi.DefaultBaseURL)
	defaultConfig := Config{
		breeds:      []string{"hound", "cat"},
		baseURL:     *baseURL,
		offline:     false,
		fixtureFile: "",
		timeout:     10 * time.Second,
		userAgent:   build.UserAgent(),
		baseDelay:   0,
		jitter:      0,
		randomSeed:  time.Now().UnixNano(),
		logLevel:    "error",
	}
	return &defaultConfig
}

// WithBreeds keeps its own copy of breeds.
func (c *Config) WithBreeds(breeds []string) *Config {
	c.breeds = slices.Clone(breeds)
	return c
}

func (c *Config) WithBaseURL(u url.URL) *Config {
	c.baseURL = u
	return c
}

func (c *Config) WithOffline(offline bool) *Config {
	c.offline = offline
	return c
}

func (c *Config) WithFixtureFile(path string) *Config {
	c.fixtureFile = path
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.breeds) == 0 {
		return Config{}, fmt.Errorf("%w: breeds cannot be empty", ErrInvalidConfig)
	}
	if !c.offline {
		if c.baseURL.Scheme != "http" && c.baseURL.Scheme != "https" {
			return Config{}, fmt.Errorf("%w: baseUrl must be http or https, got %q", ErrInvalidConfig, c.baseURL.String())
		}
		if c.baseURL.Host == "" {
			return Config{}, fmt.Errorf("%w: baseUrl has no host", ErrInvalidConfig)
		}
	}
	if c.timeout < 0 {
		return Config{}, fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	if c.baseDelay < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: baseDelay and jitter cannot be negative", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) Breeds() []string {
	breeds := make([]string, len(c.breeds))
	copy(breeds, c.breeds)
	return breeds
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) Offline() bool {
	return c.offline
}

func (c Config) FixtureFile() string {
	return c.fixtureFile
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) LogLevel() string {
	return c.logLevel
}
