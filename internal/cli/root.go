// Package cli implements the claimcheck command line.
package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

var (
	cfgFile  string
	provider string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "claimcheck",
	Short: "claimcheck - evidence-backed fact checking for short claims",
	Long: `claimcheck checks a natural-language claim against the web.

It breaks the claim into assumptions, searches for evidence on each one,
ranks the pages it finds by source credibility and recency, and reports
a verdict with a confidence and the sources it relied on.

Without an LLM backend it still runs, using keyword heuristics.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./claimcheck.yaml or $HOME/.claimcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama, noop)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads .env and wires CLAIMCHECK_* variables into viper.
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	viper.SetEnvPrefix("CLAIMCHECK")
	viper.AutomaticEnv()
}

// loadConfig resolves the config file, applies flag overrides and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	if p := strings.ToLower(strings.TrimSpace(viper.GetString("provider"))); p != "" && p != cfg.LLM.Provider {
		cfg.LLM.Provider = p
		cfg.LLM.APIKey = ""
		// The flag wins over PROVIDER; keys are picked up for the new provider.
		err := cfg.ApplyEnv(func(key string) (string, bool) {
			if key == "PROVIDER" {
				return "", false
			}
			return os.LookupEnv(key)
		})
		if err != nil {
			return nil, err
		}
	}

	setupLogging(cfg.Logging, viper.GetBool("verbose"))
	return cfg, nil
}

func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}

	candidates := []string{"claimcheck.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".claimcheck", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func setupLogging(cfg config.LoggingConfig, verbose bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// Logs go to stderr so --json output stays clean.
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
