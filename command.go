package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"imgconv/convert"
	"imgconv/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "IMGCONV"
	DefaultConfigName = "imgconv"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type Config struct {
	InputPath  string
	Format     convert.Format
	OutputDir  string
	Quality    int
	Workers    int
	Verbose    bool
	JSON       bool
	NoColor    bool
	ConfigFile string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgconv <input_path> <target_format>",
		Short: "Batch convert images between JPEG, PNG, GIF, BMP, WEBP and AVIF",
		Long: `imgconv re-encodes a single image, or every image in a directory, to the
target format using a pool of parallel workers.

Supported formats: ` + formatList() + `
Quality (1-100) applies to JPEG, WEBP and AVIF output.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, args)
			if err != nil {
				return err
			}

			console := cfg.NewConsole(cmd)
			console.Debug("Configuration: workers=%d quality=%d output=%q config=%q",
				cfg.Workers, cfg.Quality, cfg.OutputDir, cfg.ConfigFile)

			processor := NewProcessor(cfg, console)
			_, err = processor.ProcessPath(cmd.Context(), cfg.InputPath)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output directory (default: alongside the input)")
	flags.IntP("quality", "q", convert.DefaultQuality, "JPEG/WEBP/AVIF quality (1-100)")
	flags.IntP("workers", "w", runtime.NumCPU(), "Number of concurrent workers")
	flags.String("config", "", "Configuration file (default: ./imgconv.yaml or $HOME/.config/imgconv/imgconv.yaml)")
	flags.Bool("json", false, "Emit log records as JSON")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	cmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")
	return cmd
}

func formatList() string {
	names := make([]string, 0, len(convert.Formats()))
	for _, f := range convert.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// LoadConfig merges defaults, the optional config file, IMGCONV_* environment
// variables and flags, in increasing priority, then validates the result.
// No file is touched before validation passes.
func LoadConfig(cmd *cobra.Command, args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	format, err := convert.ParseFormat(args[1])
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:  args[0],
		Format:     format,
		OutputDir:  v.GetString("output"),
		Quality:    v.GetInt("quality"),
		Workers:    v.GetInt("workers"),
		Verbose:    v.GetBool("verbose"),
		JSON:       v.GetBool("json"),
		NoColor:    v.GetBool("no-color"),
		ConfigFile: v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "")
	v.SetDefault("quality", convert.DefaultQuality)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("json", false)
	v.SetDefault("no-color", false)
	v.SetDefault("verbose", false)
}

func (cfg *Config) validate() error {
	if err := convert.ValidateQuality(cfg.Quality); err != nil {
		return err
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", cfg.Workers)
	}
	if _, err := os.Stat(cfg.InputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", convert.ErrPathNotFound, cfg.InputPath)
		}
		return fmt.Errorf("path validation error: %w", err)
	}
	return nil
}

// NewConsole builds the console on the command's output streams.
func (cfg *Config) NewConsole(cmd *cobra.Command) *logger.Console {
	opts := logger.DefaultOptions()
	opts.Output = cmd.OutOrStdout()
	opts.EnableJSON = cfg.JSON
	opts.EnableColors = !cfg.NoColor
	if cfg.Verbose {
		opts.Level = slog.LevelDebug
	}

	console := logger.NewConsole(opts)
	console.SetStatus(cmd.ErrOrStderr(), cfg.JSON)
	return console
}

// Policy applies the configured quality to tasks that do not set their own.
func (cfg *Config) Policy() convert.Policy {
	return convert.NewPolicy(cfg.Quality)
}
