package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stellarlinkco/briefclaw/internal/agent"
	"github.com/stellarlinkco/briefclaw/internal/checkpoint"
	"github.com/stellarlinkco/briefclaw/internal/config"
	"github.com/stellarlinkco/briefclaw/internal/extraction"
	"github.com/stellarlinkco/briefclaw/internal/gateway"
	"github.com/stellarlinkco/briefclaw/internal/projects"
)

var timeNow = time.Now

var errNoAPIKey = errors.New("API key not set. Run 'briefclaw onboard' or set BRIEFCLAW_API_KEY / ANTHROPIC_API_KEY")

// Options injects collaborators into the commands (for testing).
type Options struct {
	ModelFactory gateway.ModelFactory
	Fetcher      projects.Fetcher
	Logger       *zap.Logger
}

type cli struct {
	opts    Options
	verbose bool
	level   zap.AtomicLevel
	logger  *zap.Logger
}

func main() {
	if err := newRootCmd(Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts Options) *cobra.Command {
	c := &cli{opts: opts}
	root := &cobra.Command{
		Use:               "briefclaw",
		Short:             "briefclaw - music licensing brief extraction agent",
		SilenceUsage:      true,
		PersistentPreRunE: c.setupLogger,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(c.serveCmd(), c.agentCmd(), c.onboardCmd(), c.statusCmd(), c.pruneCmd())
	return root
}

func (c *cli) setupLogger(cmd *cobra.Command, args []string) error {
	if c.opts.Logger != nil {
		c.logger = c.opts.Logger
		c.level = zap.NewAtomicLevel()
		return nil
	}
	zcfg := zap.NewProductionConfig()
	if c.verbose {
		zcfg.Level.SetLevel(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.level = zcfg.Level
	c.logger = logger
	return nil
}

// loadConfig reads the config and applies its log level unless --verbose
// already forced debug.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !c.verbose && cfg.Log.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			c.logger.Warn("unknown log level", zap.String("level", cfg.Log.Level))
		} else {
			c.level.SetLevel(lvl)
		}
	}
	return cfg, nil
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway (HTTP API + channels + checkpoint pruning)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if c.opts.ModelFactory == nil && cfg.Provider.APIKey == "" {
				return errNoAPIKey
			}
			defer func() { _ = c.logger.Sync() }()

			gw, err := gateway.NewWithOptions(cfg, gateway.Options{
				ModelFactory: c.opts.ModelFactory,
				Fetcher:      c.opts.Fetcher,
				Logger:       c.logger,
			})
			if err != nil {
				return fmt.Errorf("create gateway: %w", err)
			}
			return gw.Run(cmd.Context())
		},
	}
}

type agentFlags struct {
	message string
	file    string
	thread  string
	project string
}

func (c *cli) agentCmd() *cobra.Command {
	var f agentFlags
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Extract a brief from a single message or in REPL mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAgent(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "Single message to send")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read a single message from a file ('-' for stdin)")
	cmd.Flags().StringVarP(&f.thread, "thread", "t", "", "Conversation thread id (default: a new thread)")
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project id to bind the thread to")
	return cmd
}

func (c *cli) buildAgent(ctx context.Context, cfg *config.Config) (*agent.Agent, checkpoint.Store, error) {
	factory := c.opts.ModelFactory
	if factory == nil {
		if cfg.Provider.APIKey == "" {
			return nil, nil, errNoAPIKey
		}
		factory = gateway.DefaultModelFactory
	}
	m, err := factory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := checkpoint.Open(cfg.CheckpointPath(), c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	fetcher := c.opts.Fetcher
	if fetcher == nil && strings.TrimSpace(cfg.Store.BaseURL) != "" {
		fetcher = projects.NewClient(cfg.Store, c.logger)
	}

	contract := extraction.New(m, extraction.Options{
		Model:       cfg.Agent.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	}, c.logger)
	return agent.New(contract, fetcher, store, c.logger), store, nil
}

func (c *cli) runAgent(cmd *cobra.Command, f agentFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ag, store, err := c.buildAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stdin := cmd.InOrStdin()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	threadID := strings.TrimSpace(f.thread)
	if threadID == "" {
		threadID = "cli:" + uuid.NewString()
	}
	turn := func(text string) error {
		res, err := ag.HandleTurn(ctx, agent.TurnInput{
			ThreadID:  threadID,
			Messages:  []agent.Message{{Role: agent.RoleUser, Content: text}},
			ProjectID: f.project,
		})
		if err != nil {
			return fmt.Errorf("agent error: %w", err)
		}
		printTurn(stdout, res)
		return nil
	}

	message := f.message
	if f.file != "" {
		data, err := readMessageFile(f.file, stdin)
		if err != nil {
			return err
		}
		message = string(data)
	}

	// Single message mode
	if message != "" {
		return turn(message)
	}

	// REPL mode
	fmt.Fprintf(stdout, "briefclaw agent, thread %s (type 'exit' to quit)\n", threadID)
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if err := turn(input); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func readMessageFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	return data, nil
}

func printTurn(w io.Writer, res agent.TurnOutput) {
	fmt.Fprintln(w, res.Reply)
	if res.Outcome != agent.OutcomeExtraction {
		return
	}
	tier := string(res.ProjectTier)
	if tier == "" {
		tier = "-"
	}
	fmt.Fprintf(w, "\nCompleteness: %d%% | Project type: %s\n", res.Completeness, tier)
	if len(res.Chips) > 0 {
		fmt.Fprintln(w, "Still missing:")
		for _, chip := range res.Chips {
			fmt.Fprintf(w, "  - %s\n", chip.Label)
		}
	}
}

func (c *cli) onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfgPath := config.ConfigPath()

			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := config.SaveConfig(config.DefaultConfig()); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Fprintf(out, "Created config: %s\n", cfgPath)
			} else {
				fmt.Fprintf(out, "Config already exists: %s\n", cfgPath)
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dataDir := filepath.Dir(cfg.CheckpointPath())
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			fmt.Fprintf(out, "Data directory ready: %s\n", dataDir)

			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintf(out, "  1. Edit %s to set your API key and project store URL\n", cfgPath)
			fmt.Fprintln(out, "  2. Or set BRIEFCLAW_API_KEY / ANTHROPIC_API_KEY in the environment or a .env file")
			fmt.Fprintln(out, "  3. Run 'briefclaw agent -m \"Client is Acme, budget 50k EUR\"' to test")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show briefclaw status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := c.loadConfig()
			if err != nil {
				fmt.Fprintf(out, "Config: error (%v)\n", err)
				return nil
			}

			fmt.Fprintf(out, "Config: %s\n", config.ConfigPath())
			fmt.Fprintf(out, "Model: %s\n", cfg.Agent.Model)
			fmt.Fprintf(out, "Provider: %s\n", providerDisplay(cfg.Provider.Type))
			fmt.Fprintf(out, "API Key: %s\n", maskKey(cfg.Provider.APIKey))
			fmt.Fprintf(out, "Project store: %s\n", valueOr(cfg.Store.BaseURL, "not configured"))
			fmt.Fprintf(out, "API: %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
			fmt.Fprintf(out, "Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
			fmt.Fprintf(out, "WebSocket: enabled=%v port=%d\n", cfg.Channels.WebSocket.Enabled, cfg.Channels.WebSocket.Port)

			dbPath := cfg.CheckpointPath()
			if dbPath == checkpoint.MemoryPath {
				fmt.Fprintln(out, "Checkpoints: in memory (not persisted)")
				return nil
			}
			if _, err := os.Stat(dbPath); err != nil {
				fmt.Fprintf(out, "Checkpoints: %s (not created)\n", dbPath)
				return nil
			}
			store, err := checkpoint.NewSQLiteStore(dbPath, c.logger)
			if err != nil {
				fmt.Fprintf(out, "Checkpoints: %s (error: %v)\n", dbPath, err)
				return nil
			}
			defer store.Close()
			n, err := store.Count(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Checkpoints: %s (error: %v)\n", dbPath, err)
				return nil
			}
			fmt.Fprintf(out, "Checkpoints: %s (%d threads)\n", dbPath, n)
			return nil
		},
	}
}

func (c *cli) pruneCmd() *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete conversation threads idle for longer than the retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			raw := cfg.Checkpoint.Retention
			if olderThan != "" {
				raw = olderThan
			}
			retention, err := checkpoint.ParseRetention(raw)
			if err != nil {
				return err
			}
			if retention == 0 {
				fmt.Fprintln(out, "Retention disabled; nothing pruned.")
				return nil
			}

			store, err := checkpoint.Open(cfg.CheckpointPath(), c.logger)
			if err != nil {
				return fmt.Errorf("open checkpoint store: %w", err)
			}
			defer store.Close()

			n, err := checkpoint.PruneOlderThan(cmd.Context(), store, retention, timeNow())
			if err != nil {
				return fmt.Errorf("prune checkpoints: %w", err)
			}
			fmt.Fprintf(out, "Pruned %d threads idle for more than %s\n", n, retention)
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Override the configured retention (e.g. 24h)")
	return cmd
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) > 8:
		return key[:4] + "..." + key[len(key)-4:]
	default:
		return "set"
	}
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
