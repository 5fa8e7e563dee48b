package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/health-advisor-server/internal/config"
	"github.com/health-advisor-server/internal/document"
	"github.com/health-advisor-server/internal/domain"
	"github.com/health-advisor-server/internal/logging"
	"github.com/health-advisor-server/internal/service"
	"github.com/health-advisor-server/internal/setup"
	"github.com/health-advisor-server/internal/templates"
)

// cliEnv is what every subcommand needs once flags are parsed
type cliEnv struct {
	cfg     *domain.Config
	logger  *logrus.Logger
	advisor *service.AdvisorService
	close   func() error
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "advisor",
		Short:         "Extract vitals, score risks and generate health advice from local files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: search for config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(adviseCmd())
	rootCmd.AddCommand(setupCmd())

	return rootCmd
}

func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	configFile, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	manager, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	logCfg := cfg.Logging
	logCfg.Level = logLevel
	logCfg.Format = "text"
	logger := logging.NewWithOutput(logCfg, cmd.ErrOrStderr())

	loader, closeFn := templates.NewConfiguredLoader(cmd.Context(), logger, cfg.Library)

	return &cliEnv{
		cfg:     cfg,
		logger:  logger,
		advisor: service.NewAdvisorService(logger, cfg.Advice, loader),
		close:   closeFn,
	}, nil
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract vital values from a text or spreadsheet lab report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			text, err := decodeFile(cmd, env.logger, args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{"vitals": env.advisor.Extract(text)})
		},
	}
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <vitals.json>",
		Short: "Compute risk scores for a JSON vitals file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			vitals, err := readVitals(args[0])
			if err != nil {
				return err
			}

			scored, assessment := env.advisor.Score(vitals)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"vitals":        scored,
				"riskScores":    assessment.Scores,
				"contributions": assessment.Contributions,
			})
		},
	}
}

func adviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise <vitals.json>",
		Short: "Score a JSON vitals file and print the advice narrative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, _ := cmd.Flags().GetString("library")
			strategy, _ := cmd.Flags().GetString("strategy")
			seed, _ := cmd.Flags().GetInt64("seed")
			textFile, _ := cmd.Flags().GetString("text")
			asJSON, _ := cmd.Flags().GetBool("json")

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if cmd.Flags().Changed("seed") {
				env.advisor.WithRandSource(service.SeededRand(seed))
			}

			vitals, err := readVitals(args[0])
			if err != nil {
				return err
			}

			req := service.AnalyzeRequest{Vitals: vitals}
			if textFile != "" {
				req.Text, err = decodeFile(cmd, env.logger, textFile)
				if err != nil {
					return err
				}
			}

			result, err := env.advisor.Analyze(cmd.Context(), req, service.AdviceOptions{
				LibrarySource: library,
				Strategy:      strategy,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Summary)
			fmt.Fprintln(out)
			for _, sentence := range result.Advice {
				fmt.Fprintln(out, sentence)
			}
			return nil
		},
	}
	cmd.Flags().String("library", "", "Template library path or URL (default: advice.library_path)")
	cmd.Flags().String("strategy", "", "Assembly strategy: proportional or threshold")
	cmd.Flags().Int64("seed", 0, "Seed the sentence picker for reproducible output")
	cmd.Flags().String("text", "", "Lab report whose extracted values fill gaps in the vitals file")
	cmd.Flags().Bool("json", false, "Print the full analysis as JSON")

	return cmd
}

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop MCP client",
	}

	configPathFlag := func(c *cobra.Command) {
		c.Flags().String("client-config", "", "Client config file (default: the desktop client's standard location)")
		c.Flags().String("name", setup.DefaultServerName, "Name the server is registered under")
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Add or update the MCP server entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			binary, _ := cmd.Flags().GetString("binary")
			library, _ := cmd.Flags().GetString("library")

			entry, err := setup.Register(configPath, setup.Options{Name: name, BinaryPath: binary, LibraryPath: library})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s -> %s in %s\n", name, entry.Command, configPath)
			return nil
		},
	}
	configPathFlag(registerCmd)
	registerCmd.Flags().String("binary", "", "Path to the mcp-server binary (default: search PATH and build dirs)")
	registerCmd.Flags().String("library", "", "Advice library the server should load")
	cmd.AddCommand(registerCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the MCP server is registered and usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")

			status, err := setup.GetStatus(configPath, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", status.ConfigPath)
			if status.Registered {
				fmt.Fprintf(out, "Registered: yes (%s)\n", status.Entry.Command)
			} else {
				fmt.Fprintln(out, "Registered: no")
			}
			for _, issue := range status.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return nil
		},
	}
	configPathFlag(statusCmd)
	cmd.AddCommand(statusCmd)

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the MCP server entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := clientConfigPath(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			return setup.Unregister(configPath, name)
		},
	}
	configPathFlag(removeCmd)
	cmd.AddCommand(removeCmd)

	return cmd
}

func clientConfigPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("client-config"); path != "" {
		return path, nil
	}
	return setup.DesktopConfigPath()
}

func decodeFile(cmd *cobra.Command, logger *logrus.Logger, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	text, err := document.NewDecoder(logger).Decode(cmd.Context(), filepath.Base(path), "", f)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return text, nil
}

func readVitals(path string) (domain.VitalReading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.VitalReading{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var vitals domain.VitalReading
	if err := json.Unmarshal(data, &vitals); err != nil {
		return domain.VitalReading{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return vitals, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
