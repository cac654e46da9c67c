package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"solana-autotrader/internal/domain"
)

// ListenerConfig configures new-token listener behavior.
type ListenerConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the asset channel capacity.
	Buffer int
}

// DefaultListenerConfig returns default listener configuration.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            256,
	}
}

// Listener streams newly created tokens from a websocket feed and emits them
// as assets on a bounded channel. Events arriving while the consumer is
// behind are dropped; the periodic discovery path will pick the asset up
// later anyway.
type Listener struct {
	endpoint string
	config   ListenerConfig
	logger   zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	assets chan *domain.Asset
	done   chan struct{}
	wg     sync.WaitGroup

	reconnecting atomic.Bool
	now          func() time.Time
}

// NewListener connects to the endpoint and subscribes to new-token events.
func NewListener(ctx context.Context, endpoint string, config *ListenerConfig, logger zerolog.Logger) (*Listener, error) {
	cfg := DefaultListenerConfig()
	if config != nil {
		cfg = *config
	}

	l := &Listener{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		assets:   make(chan *domain.Asset, cfg.Buffer),
		done:     make(chan struct{}),
		now:      time.Now,
	}

	if err := l.connect(ctx); err != nil {
		return nil, err
	}
	if err := l.subscribe(); err != nil {
		l.closeConn()
		return nil, err
	}

	l.wg.Add(1)
	go l.readLoop()

	l.wg.Add(1)
	go l.pingLoop()

	return l, nil
}

// Assets returns the channel of newly discovered assets. Closed when the
// listener shuts down.
func (l *Listener) Assets() <-chan *domain.Asset {
	return l.assets
}

// Close shuts down the listener and closes the asset channel.
func (l *Listener) Close() error {
	if l.closed.Swap(true) {
		return nil // Already closed
	}

	close(l.done)

	l.connMu.Lock()
	if l.conn != nil {
		l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.conn.Close()
	}
	l.connMu.Unlock()

	l.wg.Wait()
	close(l.assets)
	return nil
}

// connect establishes the websocket connection.
func (l *Listener) connect(ctx context.Context) error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, l.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	l.conn = conn
	return nil
}

// subscribe sends the new-token subscription request.
func (l *Listener) subscribe() error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.conn == nil {
		return fmt.Errorf("not connected")
	}

	l.conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
	if err := l.conn.WriteJSON(map[string]string{"method": "subscribeNewToken"}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

func (l *Listener) closeConn() {
	l.connMu.Lock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	l.connMu.Unlock()
}

// readLoop reads messages and dispatches new-token events.
func (l *Listener) readLoop() {
	defer l.wg.Done()

	reconnectDelay := l.config.ReconnectDelay

	for !l.closed.Load() {
		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()

		if conn == nil {
			select {
			case <-l.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if l.closed.Load() {
				return
			}

			// Drop the dead connection so the loop idles on the nil check
			// until the reconnect installs a fresh one.
			l.connMu.Lock()
			if l.conn == conn {
				conn.Close()
				l.conn = nil
			}
			l.connMu.Unlock()

			// Connection error - attempt reconnect with exponential backoff
			if !l.reconnecting.Swap(true) {
				go l.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > l.config.MaxReconnectDelay {
				reconnectDelay = l.config.MaxReconnectDelay
			}

			select {
			case <-l.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = l.config.ReconnectDelay

		l.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (l *Listener) reconnect(delay time.Duration) {
	defer l.reconnecting.Store(false)

	if l.closed.Load() {
		return
	}

	select {
	case <-l.done:
		return
	case <-time.After(delay):
	}

	l.closeConn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := l.connect(ctx); err != nil {
		l.logger.Warn().Err(err).Msg("listener reconnect failed, will retry")
		return
	}
	if err := l.subscribe(); err != nil {
		l.logger.Warn().Err(err).Msg("listener resubscribe failed, will retry")
		return
	}
	l.logger.Info().Str("endpoint", l.endpoint).Msg("listener reconnected")
}

// newTokenMessage is the wire shape of a token creation event.
type newTokenMessage struct {
	TxType       string  `json:"txType"`
	Mint         string  `json:"mint"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	MarketCapSOL float64 `json:"marketCapSol"`
	SOLInPool    float64 `json:"vSolInBondingCurve"`
}

// handleMessage parses an incoming message and emits a create event as an
// asset. Non-create and malformed messages are ignored.
func (l *Listener) handleMessage(message []byte) {
	var msg newTokenMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Mint == "" || (msg.TxType != "" && msg.TxType != "create") {
		return
	}
	if !ValidMint(msg.Mint) {
		l.logger.Debug().Str("mint", msg.Mint).Msg("ignoring event with invalid mint")
		return
	}

	asset := &domain.Asset{
		Mint:      msg.Mint,
		Symbol:    msg.Symbol,
		CreatedAt: l.now(),
	}
	if asset.Symbol == "" {
		asset.Symbol = msg.Name
	}

	select {
	case l.assets <- asset:
	default:
		l.logger.Warn().Str("mint", msg.Mint).Msg("asset channel full, dropping new-token event")
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (l *Listener) pingLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.connMu.Lock()
			if l.conn != nil {
				l.conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
				if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			l.connMu.Unlock()
		}
	}
}

// ValidMint reports whether s is a plausible mint address: base58, 32 bytes
// decoded.
func ValidMint(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}
