package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"github.com/rohmanhakim/dogbreeds/internal/build"
	"github.com/rohmanhakim/dogbreeds/internal/config"
	"github.com/rohmanhakim/dogbreeds/internal/dogapi"
	"github.com/rohmanhakim/dogbreeds/internal/fixture"
	applog "github.com/rohmanhakim/dogbreeds/internal/log"
	"github.com/rohmanhakim/dogbreeds/internal/lookup"
	"github.com/rohmanhakim/dogbreeds/internal/metadata"
	"github.com/rohmanhakim/dogbreeds/pkg/limiter"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	breeds      []string
	baseURL     string
	offline     bool
	fixtureFile string
	userAgent   string
	timeout     time.Duration
	baseDelay   time.Duration
	jitter      time.Duration
	randomSeed  int64
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dogbreeds [breed...]",
	Short: "Count the sub-breeds of dog breeds.",
	Long: `dogbreeds looks up the sub-breeds of each given breed through a caching
lookup. Successful answers are remembered for the rest of the run, failed
ones are asked again every time.

Breeds come from the positional arguments, the repeatable --breed flag, or
the config file. Without any, "hound" and "cat" are looked up.`,
	Version:      build.FullVersion(),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError(args)
		if err != nil {
			return err
		}

		if err := applog.InitLogger(cmd.ErrOrStderr(), cfg.LogLevel()); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"breeds":  strings.Join(cfg.Breeds(), ","),
			"offline": cfg.Offline(),
		}).Info("looking up breeds")

		recorder := metadata.NewRecorder("dogbreeds")

		source, err := NewSource(cfg, recorder)
		if err != nil {
			return err
		}

		fetcher, err := lookup.New(source, lookup.WithSink(recorder))
		if err != nil {
			return err
		}

		Run(cmd.Context(), cmd.OutOrStdout(), fetcher, cfg.Breeds())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringArrayVar(&breeds, "breed", []string{}, "breed to look up (can be repeated)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "root of the breed API (default "+dogapi.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "answer from the built-in breed table instead of the API")
	rootCmd.PersistentFlags().StringVar(&fixtureFile, "fixture-file", "", "YAML breed table to answer from (implies --offline)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between HTTP requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or fatal (env "+applog.EnvLogLevel+")")
}

// InitConfigWithError builds the run configuration, either from the config
// file or from flags applied over the defaults. Breeds are taken from the
// positional arguments, else from --breed, else from the file or defaults.
func InitConfigWithError(args []string) (config.Config, error) {
	requested := args
	if len(requested) == 0 {
		requested = breeds
	}

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		if len(requested) > 0 {
			return cfg.WithBreeds(requested).Build()
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	if len(requested) > 0 {
		configBuilder = configBuilder.WithBreeds(requested)
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: error parsing base URL %s: %s", config.ErrInvalidConfig, baseURL, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(*u)
	}

	if offline {
		configBuilder = configBuilder.WithOffline(true)
	}

	if fixtureFile != "" {
		configBuilder = configBuilder.WithOffline(true).WithFixtureFile(fixtureFile)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	return configBuilder.Build()
}

// NewSource returns the breed source cfg asks for: the fixture table when
// offline, the dog.ceo client otherwise.
func NewSource(cfg config.Config, sink metadata.MetadataSink) (breed.Source, error) {
	if cfg.Offline() {
		table := fixture.Default()
		if cfg.FixtureFile() != "" {
			loaded, err := fixture.LoadFile(cfg.FixtureFile())
			if err != nil {
				return nil, err
			}
			table = loaded
		}
		log.WithFields(log.Fields{
			"file":   cfg.FixtureFile(),
			"breeds": strings.Join(table.Breeds(), ","),
		}).Debug("breed table loaded")
		return table, nil
	}

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())

	return dogapi.NewClient(
		sink,
		cfg.BaseURL(),
		cfg.UserAgent(),
		cfg.Timeout(),
		rateLimiter,
	), nil
}

// Run looks up every breed in order and prints one line per breed,
// followed by the number of calls that reached the source.
func Run(ctx context.Context, w io.Writer, fetcher *lookup.CachingLookup, names []string) {
	for _, name := range names {
		count, err := countSubBreeds(ctx, name, fetcher)
		if err != nil {
			fmt.Fprintf(w, "Error: Breed not found: %s\n", name)
			continue
		}
		fmt.Fprintf(w, "%s has %d sub breeds\n", name, count)
	}
	fmt.Fprintf(w, "Calls made: %d\n", fetcher.CallsMade())
}

// countSubBreeds returns how many sub-breeds name has according to source.
// A breed without sub-breeds counts 0; a failed lookup returns the error.
func countSubBreeds(ctx context.Context, name string, source breed.Source) (int, error) {
	subBreeds, err := source.SubBreeds(ctx, name)
	if err != nil {
		return 0, err
	}
	return len(subBreeds), nil
}

func ResetFlags() {
	cfgFile = ""
	breeds = []string{}
	baseURL = ""
	offline = false
	fixtureFile = ""
	userAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	logLevel = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBreedsForTest(names []string) {
	breeds = names
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetOfflineForTest(off bool) {
	offline = off
}

func SetFixtureFileForTest(path string) {
	fixtureFile = path
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

// RootCommandForTest exposes the root command so tests can drive it with
// SetArgs and SetOut.
func RootCommandForTest() *cobra.Command {
	return rootCmd
}

// CountSubBreedsForTest exposes countSubBreeds to the external test package.
func CountSubBreedsForTest(ctx context.Context, name string, source breed.Source) (int, error) {
	return countSubBreeds(ctx, name, source)
}
