package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/bus"
	"github.com/stellarlinkco/briefclaw/internal/config"
)

const websocketChannelName = "websocket"

// wsMessage is the JSON frame exchanged with browser clients. Clients send
// {"type":"message","content":"..."}; replies carry the turn's score and
// suggestions alongside the text.
type wsMessage struct {
	Type         string   `json:"type"`
	Content      string   `json:"content,omitempty"`
	Completeness *int     `json:"completeness,omitempty"`
	ProjectType  string   `json:"project_type,omitempty"`
	Chips        []string `json:"suggestion_chips,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

type WebSocketChannel struct {
	BaseChannel
	port    int
	server  *http.Server
	clients sync.Map
	nextID  atomic.Int64
}

func NewWebSocketChannel(cfg config.WebSocketConfig, b *bus.MessageBus, logger *zap.Logger) (*WebSocketChannel, error) {
	port := cfg.Port
	if port == 0 {
		port = config.DefaultWebSocketPort
	}
	return &WebSocketChannel{
		BaseChannel: NewBaseChannel(websocketChannelName, b, cfg.AllowFrom, logger),
		port:        port,
	}, nil
}

// Handler serves the websocket endpoint at /ws.
func (w *WebSocketChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", w.handleWS)
	return mux
}

func (w *WebSocketChannel) Start(ctx context.Context) error {
	w.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", w.port),
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		w.logger.Info("listening", zap.Int("port", w.port))
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

func (w *WebSocketChannel) handleWS(wr http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(wr, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		w.logger.Warn("accept failed", zap.Error(err))
		return
	}

	clientID := fmt.Sprintf("ws-%d", w.nextID.Add(1))
	w.clients.Store(clientID, &wsClient{conn: conn, id: clientID})
	w.logger.Debug("client connected", zap.String("client", clientID))

	defer func() {
		w.clients.Delete(clientID)
		conn.CloseNow()
		w.logger.Debug("client disconnected", zap.String("client", clientID))
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if !w.IsAllowed(clientID) {
			w.logger.Info("rejected message", zap.String("client", clientID))
			continue
		}

		w.bus.Inbound <- bus.InboundMessage{
			Channel:   websocketChannelName,
			SenderID:  clientID,
			ChatID:    clientID,
			Content:   msg.Content,
			Timestamp: time.Now(),
		}
	}
}

func (w *WebSocketChannel) Send(msg bus.OutboundMessage) error {
	frame := wsMessage{Type: "message", Content: msg.Content}
	if v, ok := msg.Metadata["completeness"].(int); ok {
		frame.Completeness = &v
	}
	if v, ok := msg.Metadata["project_type"].(string); ok {
		frame.ProjectType = v
	}
	if v, ok := msg.Metadata["suggestion_chips"].([]string); ok {
		frame.Chips = v
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	client, ok := w.clients.Load(msg.ChatID)
	if !ok {
		return fmt.Errorf("websocket client %s not connected", msg.ChatID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.(*wsClient).conn.Write(ctx, websocket.MessageText, data)
}

func (w *WebSocketChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			w.logger.Warn("shutdown error", zap.Error(err))
		}
	}
	w.clients.Range(func(key, value any) bool {
		value.(*wsClient).conn.CloseNow()
		return true
	})
	w.logger.Info("stopped")
	return nil
}
