package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalpilot/internal/config"
	"evalpilot/internal/llm_client"
	"evalpilot/internal/logger"
	"evalpilot/internal/skills"
	"evalpilot/internal/skills/builtin"
)

var (
	configPath string

	cfg      *config.Config
	registry *skills.Registry
)

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "Evaluation-and-analytics copilot backend",
	Long:  `A web backend for LLM application evaluation data, with a streaming copilot assistant driven by pluggable skills.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Init(cfg.LogFile); err != nil {
			return fmt.Errorf("could not initialize logger: %w", err)
		}

		// An unavailable provider is a degraded mode, not a startup failure.
		if err := llm_client.Init(llm_client.Config{
			Backend:     cfg.LLM.Backend,
			Model:       cfg.LLM.Model,
			OllamaHost:  cfg.LLM.OllamaHost,
			Temperature: cfg.LLM.Temperature,
		}); err != nil {
			logger.Log.Warnf("LLM provider unavailable, running degraded: %v", err)
		}

		registry = skills.NewRegistry()
		if err := registry.Initialize(cfg.Copilot.SkillsDir, builtin.All()); err != nil {
			return fmt.Errorf("could not initialize skill registry: %w", err)
		}
		return nil
	},
}

func Execute() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
