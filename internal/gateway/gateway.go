// Package gateway wires the agent to its model, checkpoint store, project
// store, chat channels and HTTP API, and runs them until shutdown.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cexll/agentsdk-go/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/briefclaw/internal/agent"
	"github.com/stellarlinkco/briefclaw/internal/bus"
	"github.com/stellarlinkco/briefclaw/internal/channel"
	"github.com/stellarlinkco/briefclaw/internal/checkpoint"
	"github.com/stellarlinkco/briefclaw/internal/config"
	"github.com/stellarlinkco/briefclaw/internal/cron"
	"github.com/stellarlinkco/briefclaw/internal/extraction"
	"github.com/stellarlinkco/briefclaw/internal/projects"
)

const (
	pruneJobName = "checkpoint-prune"

	replyError = "Sorry, I encountered an error processing your message."
	replyHelp  = "Paste a music licensing brief and I'll extract the key details: client, budget, territory, media, term and creative direction.\n\n" +
		"Use /project <id> to link this conversation to an existing project."
)

// ModelFactory builds the completion model from configuration.
type ModelFactory func(ctx context.Context, cfg *config.Config) (extraction.Completer, error)

// Options overrides the gateway's collaborators, mainly for tests.
type Options struct {
	ModelFactory ModelFactory
	Store        checkpoint.Store
	Fetcher      projects.Fetcher
	SignalChan   chan os.Signal
	Logger       *zap.Logger
}

// DefaultModelFactory creates an agentsdk-go provider for cfg.Provider.Type.
func DefaultModelFactory(ctx context.Context, cfg *config.Config) (extraction.Completer, error) {
	temperature := cfg.Agent.Temperature
	var provider model.Provider
	switch cfg.Provider.Type {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			ModelName:   cfg.Agent.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: &temperature,
		}
	default: // "anthropic" or empty
		provider = &model.AnthropicProvider{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			ModelName:   cfg.Agent.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: &temperature,
		}
	}
	m, err := provider.Model(ctx)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	return m, nil
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	agent      *agent.Agent
	store      checkpoint.Store
	retention  time.Duration
	channels   *channel.ChannelManager
	cron       *cron.Service
	server     *http.Server
	logger     *zap.Logger
	signalChan chan os.Signal

	// pending holds project ids bound with /project until the thread's next turn.
	pending sync.Map
}

// New creates a Gateway with default options.
func New(cfg *config.Config, logger *zap.Logger) (*Gateway, error) {
	return NewWithOptions(cfg, Options{Logger: logger})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		cfg:        cfg,
		bus:        bus.NewMessageBus(config.DefaultBufSize),
		logger:     logger.Named("gateway"),
		signalChan: opts.SignalChan,
	}

	retention, err := checkpoint.ParseRetention(cfg.Checkpoint.Retention)
	if err != nil {
		return nil, err
	}
	g.retention = retention

	store := opts.Store
	if store == nil {
		store, err = checkpoint.Open(cfg.CheckpointPath(), logger)
		if err != nil {
			return nil, fmt.Errorf("open checkpoint store: %w", err)
		}
	}
	g.store = store

	// Without a store url the project lookup tool is never offered.
	var fetcher projects.Fetcher
	if opts.Fetcher != nil {
		fetcher = opts.Fetcher
	} else if strings.TrimSpace(cfg.Store.BaseURL) != "" {
		fetcher = projects.NewClient(cfg.Store, logger)
	}

	factory := opts.ModelFactory
	if factory == nil {
		factory = DefaultModelFactory
	}
	completer, err := factory(context.Background(), cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	contract := extraction.New(completer, extraction.Options{
		Model:       cfg.Agent.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	}, logger)
	g.agent = agent.New(contract, fetcher, store, logger)

	g.cron = cron.NewService(logger)
	if _, err := g.cron.AddJob(pruneJobName, cfg.Checkpoint.PruneSchedule, g.prune); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("schedule checkpoint prune: %w", err)
	}

	chMgr, err := channel.NewChannelManager(cfg.Channels, g.bus, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	g.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port)),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Agent returns the turn processor shared by the API and the channels.
func (g *Gateway) Agent() *agent.Agent { return g.agent }

func (g *Gateway) prune(ctx context.Context) (string, error) {
	n, err := checkpoint.PruneOlderThan(ctx, g.store, g.retention, time.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pruned %d threads", n), nil
}

// Run serves the API and channels until a signal arrives or ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	g.logger.Info("channels started", zap.Strings("channels", g.channels.EnabledChannels()))

	if err := g.cron.Start(ctx); err != nil {
		return fmt.Errorf("start cron: %w", err)
	}

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g.bus.DispatchOutbound(egCtx)
		return nil
	})
	eg.Go(func() error {
		g.processLoop(egCtx)
		return nil
	})
	eg.Go(func() error {
		g.logger.Info("api listening", zap.String("addr", g.server.Addr))
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve api: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		select {
		case <-sigCh:
			g.logger.Info("shutting down")
		case <-egCtx.Done():
		}
		cancel()
		return g.Shutdown()
	})
	return eg.Wait()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			reply := g.handleInbound(ctx, msg)
			select {
			case g.bus.Outbound <- reply:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) handleInbound(ctx context.Context, msg bus.InboundMessage) bus.OutboundMessage {
	threadID := msg.ThreadID()
	g.logger.Debug("inbound", zap.String("thread", threadID), zap.String("sender", msg.SenderID), zap.String("content", truncate(msg.Content, 80)))

	out := bus.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID}
	text := strings.TrimSpace(msg.Content)

	switch cmd, arg := splitCommand(text); cmd {
	case "/start", "/help":
		out.Content = replyHelp
		return out
	case "/project":
		if arg == "" {
			out.Content = "Usage: /project <id>"
			return out
		}
		g.pending.Store(threadID, arg)
		out.Content = fmt.Sprintf("This conversation is now linked to project **%s**.", arg)
		return out
	}

	in := agent.TurnInput{
		ThreadID: threadID,
		Messages: []agent.Message{{Role: agent.RoleUser, Content: msg.Content}},
	}
	if v, ok := g.pending.Load(threadID); ok {
		in.ProjectID = v.(string)
	}

	res, err := g.agent.HandleTurn(ctx, in)
	if err != nil {
		g.logger.Error("turn failed", zap.String("thread", threadID), zap.Error(err))
		out.Content = replyError
		return out
	}
	if in.ProjectID != "" {
		g.pending.CompareAndDelete(threadID, in.ProjectID)
	}

	out.Content = withChips(res)
	out.Metadata = map[string]any{
		"completeness":     res.Completeness,
		"project_type":     string(res.ProjectTier),
		"suggestion_chips": chipLabels(res),
	}
	return out
}

// splitCommand returns the leading slash command of text and its argument.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, arg, _ := strings.Cut(text, " ")
	// Telegram appends the bot name in groups: /project@briefbot 123.
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func chipLabels(res agent.TurnOutput) []string {
	labels := make([]string, 0, len(res.Chips))
	for _, c := range res.Chips {
		labels = append(labels, c.Label)
	}
	return labels
}

// withChips appends the suggested follow-up questions to an extraction reply.
func withChips(res agent.TurnOutput) string {
	if res.Outcome != agent.OutcomeExtraction || len(res.Chips) == 0 {
		return res.Reply
	}
	var sb strings.Builder
	sb.WriteString(res.Reply)
	sb.WriteString("\n\nStill missing:")
	for _, label := range chipLabels(res) {
		sb.WriteString("\n- ")
		sb.WriteString(label)
	}
	return sb.String()
}

// Shutdown stops the API server, cron, channels and the checkpoint store.
func (g *Gateway) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.server.Shutdown(ctx); err != nil {
		g.logger.Warn("api shutdown", zap.Error(err))
	}
	g.cron.Stop()
	_ = g.channels.StopAll()
	if err := g.store.Close(); err != nil {
		g.logger.Warn("close checkpoint store", zap.Error(err))
	}
	g.logger.Info("shutdown complete")
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
