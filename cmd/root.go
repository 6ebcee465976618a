package cmd

import (
	"fmt"
	"os"

	"TemplePlayer/config"
	"TemplePlayer/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "templeplayer",
	Short:         "TemplePlayer 音乐播放器",
	Long:          `TemplePlayer plays local files and streams from pluggable music sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			Console:    cfg.LogConsole,
			OutputPath: cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// loadConfig reads the environment and applies the YAML overlay given by
// path or, when path is empty, by TEMPLE_CONFIG.
func loadConfig(path string) (*config.Config, error) {
	c := config.Load()
	if path == "" {
		path = os.Getenv("TEMPLE_CONFIG")
	}
	if path != "" {
		if err := c.ApplyYAML(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	return c, nil
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $TEMPLE_CONFIG)")
}
