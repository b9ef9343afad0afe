package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/core"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/iocache"
	"github.com/huangsam/hypeplot/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profilePrefix enables CPU and memory profiling when non-empty.
var profilePrefix string

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// executor runs the fetch for the root command. Tests swap it out.
var executor core.ExecutorFunc = core.ExecuteFetch

// credentialEnv maps credential keys to their conventional environment variables.
var credentialEnv = map[string]string{
	"news-api-key":         "NEWS_API_KEY",
	"youtube-api-key":      "YOUTUBE_API_KEY",
	"twitter-bearer-token": "TWITTER_BEARER_TOKEN",
	"github-token":         "GITHUB_TOKEN",
}

// startProfiling starts CPU profiling if enabled.
func startProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	cpuFile, err := os.Create(profilePrefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profilePrefix, profilePrefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profilePrefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profilePrefix)
	return err
}

// rootCmd fetches keyword counts when given a term and a year range.
var rootCmd = &cobra.Command{
	Use:   "hypeplot <term> <start> <end> [plot]",
	Short: "Track how often a keyword shows up across web sources over time.",
	Long: `HypePlot counts keyword occurrences across about a dozen web APIs, buckets the
counts over time and writes CSV files and charts for every source.

Start and end accept YYYY or YYYY-MM-DD (only the year is used). A trailing
"plot" argument switches the default formats to csv, html and png.

Examples:
  # Yearly GitHub and arXiv counts
  hypeplot "rust" 2018 2024 --source github,arxiv

  # Monthly counts with charts
  hypeplot "FHIR" 2024 2025 plot --source github --bucket monthly

  # Custom ten day buckets
  hypeplot "AI" 2025 2025 plot --source github --bucket days:10`,
	Version:            version,
	Args:               validateRootArgs,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE:            sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		if _, err := executor(rootCtx, cfg, cacheManager); err != nil {
			return err
		}
		return nil
	},
}

// validateRootArgs accepts no args (to print help) or term, start, end and an optional "plot".
func validateRootArgs(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 3:
		return nil
	case 4:
		if strings.ToLower(args[3]) != contract.PlotArgument {
			return fmt.Errorf("unexpected argument %q. the fourth argument can only be %q", args[3], contract.PlotArgument)
		}
		return nil
	default:
		return fmt.Errorf("expected <term> <start> <end> [plot], got %d arguments", len(args))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigLocation()

	// Set environment variable prefix
	viper.SetEnvPrefix("HYPEPLOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Credentials keep their conventional names instead of the HYPEPLOT_ prefix
	for key, env := range credentialEnv {
		if err := viper.BindEnv(key, env); err != nil {
			contract.LogFatal("Error binding credential env", err)
		}
	}

	// Set defaults in Viper
	viper.SetDefault("source", contract.AllSources)
	viper.SetDefault("bucket", contract.DefaultBucket)
	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("transport-profile", contract.DefaultProfile)
	viper.SetDefault("registry", contract.DefaultRegistry)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("color", "yes")
}

// setConfigLocation points viper at --config or the default .hypeplot.yaml search path.
func setConfigLocation() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".hypeplot") // Name of config file (without extension)
	viper.SetConfigType("yaml")      // We'll use YAML format
	viper.AddConfigPath(".")         // Look in the current directory
	viper.AddConfigPath("$HOME")     // Look in the home directory
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	profilePrefix = viper.GetString("profile")
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	// Without them the root command only prints help.
	if len(args) < 3 {
		return nil
	}
	input.TermStr = args[0]
	input.StartStr = args[1]
	input.EndStr = args[2]
	input.PlotArg = len(args) == 4

	// 4. Run all validation and complex parsing.
	// This function now populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, core.Sources, input); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file if one exists.
func loadConfigFile() error {
	setConfigLocation()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable root context.
func ExecuteContext(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
