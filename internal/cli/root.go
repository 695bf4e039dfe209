package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dialectic/internal/cache"
	"github.com/ppiankov/dialectic/internal/llm"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/pipeline"
	"github.com/ppiankov/dialectic/internal/session"
	"github.com/ppiankov/dialectic/internal/worker"
)

// Version is set at build time with -ldflags
var Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	dataDir      string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dialectic",
	Short: "Dialectic - claim dependency graph diagnostics for reasoning sessions",
	Long: `Dialectic reads reasoning sessions and measures how their claims hold
together: which claim everything rests on, what is load-bearing, what is
disconnected, and which tensions are still open.

It does not determine whether any claim is true. The numbers describe
structure only, and they are computed the same way every time.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dialectic v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dialectic/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory holding sessions/ (default: the desktop app's data directory)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format for data commands (json, yaml)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))

	setDefaults(model.DefaultConfig())

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".dialectic"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// DIALECTIC_LLM_PROVIDER sets llm.provider
	viper.SetEnvPrefix("DIALECTIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of cfg with viper, so environment
// variables can override keys absent from the config file.
func setDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			viper.SetDefault(key, v)
		}
	}
	walk("", tree)
}

// loadConfig returns the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyLLMEnv(cfg)

	if cfg.DataDir == "" {
		dir, err := session.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	return cfg, nil
}

// applyLLMEnv fills provider credentials from the conventional variables
func applyLLMEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

func newStore(cfg *model.Config) *session.Store {
	return session.NewStore(cfg.DataDir, session.WithLogger(slog.Default()))
}

// LLM flags shared by report, batch and watch
var (
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider's default)")
}

// newSummarizer returns nil unless narration was requested with --llm
func newSummarizer(cmd *cobra.Command, cfg *model.Config) (*llm.Summarizer, error) {
	if !llmEnabled {
		return nil, nil
	}
	if cfg.LLM.Provider == "" || cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	applyLLMEnv(cfg)

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}

	opts := []llm.SummarizerOption{
		llm.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
		llm.WithLogger(slog.Default()),
	}
	if cfg.Cache.Enabled {
		diskDir := cfg.Cache.DiskDir
		if diskDir == "" {
			diskDir = filepath.Join(cfg.DataDir, "cache")
		}
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, diskDir, cfg.Cache.DiskTTL)
		opts = append(opts, llm.WithCache(c, cfg.Cache.DiskTTL))
	}

	return llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM), opts...)
}

// newPipeline builds the analysis pipeline for cfg
func newPipeline(cmd *cobra.Command, cfg *model.Config, store *session.Store) (*pipeline.Pipeline, error) {
	summarizer, err := newSummarizer(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(store, cfg,
		pipeline.WithSummarizer(summarizer),
		pipeline.WithLogger(slog.Default()),
		pipeline.WithRenderer(pipeline.NewRenderer(cfg.Output.IncludeFooter, cmd.ErrOrStderr())),
	), nil
}

// printData writes v to stdout in the configured output format
func printData(cmd *cobra.Command, cfg *model.Config, v any) error {
	return pipeline.Encode(cmd.OutOrStdout(), cfg.Output.Format, v)
}
