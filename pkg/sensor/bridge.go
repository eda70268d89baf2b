package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-fishtank/pkg/protocol"
	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// ErrNotConnected is returned by writes while the bridge has no connection.
var ErrNotConnected = errors.New("sensor not connected")

// Bridge connects to an external sensor process over WebSocket.
// It implements skeleton.Source and tilt.Device.
//
// Failures are silent to the tick loop: while disconnected PollSkeletons
// reports no frame, and Run keeps redialing in the background.
type Bridge struct {
	cfg    Config
	logger *slog.Logger
	dialer websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	writeMu sync.Mutex

	frameMu sync.Mutex
	latest  skeleton.Frame
	fresh   bool

	angle     atomic.Int64
	maxAngle  atomic.Int64
	lastError atomic.Value // string

	// Stats
	framesReceived atomic.Uint64
	framesDropped  atomic.Uint64
	reconnectCount atomic.Uint64
	parseErrors    atomic.Uint64
}

// Stats holds bridge counters.
type Stats struct {
	Connected      bool   `json:"connected"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDropped  uint64 `json:"frames_dropped"` // Overwritten before being polled
	Reconnects     uint64 `json:"reconnects"`
	ParseErrors    uint64 `json:"parse_errors"`
}

// NewBridge creates a bridge. Call Run to connect.
func NewBridge(cfg Config, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		cfg:    cfg,
		logger: logger.With("component", "sensor"),
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
	b.maxAngle.Store(DefaultMaxAngle)
	b.lastError.Store("")
	return b
}

// Run connects and reads frames until ctx is cancelled or Close is called,
// redialing after every failure.
func (b *Bridge) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.isClosed() {
			return io.ErrClosedPipe
		}

		conn, err := b.connect(ctx)
		if err != nil {
			attempts++
			b.reconnectCount.Add(1)
			if b.cfg.MaxReconnectAttempts > 0 && attempts >= b.cfg.MaxReconnectAttempts {
				return fmt.Errorf("max reconnect attempts (%d) reached: %w", b.cfg.MaxReconnectAttempts, err)
			}
			b.logger.Debug("sensor dial failed, retrying",
				"error", err,
				"attempt", attempts,
				"retry_in", b.cfg.ReconnectInterval,
			)
		} else {
			attempts = 0
			b.readLoop(ctx, conn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.cfg.ReconnectInterval):
		}
	}
}

func (b *Bridge) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", b.cfg.URL, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return nil, io.ErrClosedPipe
	}
	b.conn = conn
	b.mu.Unlock()

	b.logger.Info("sensor connected", "url", b.cfg.URL)
	return conn, nil
}

// readLoop consumes messages until the connection fails.
func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		conn.Close()
		b.logger.Info("sensor disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				b.logger.Warn("sensor read error", "error", err)
			}
			return
		}
		b.handleMessage(data)
	}
}

func (b *Bridge) handleMessage(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		b.parseErrors.Add(1)
		b.logger.Debug("sensor parse error", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeSkeletons:
		sk, err := msg.GetSkeletonsData()
		if err != nil {
			b.parseErrors.Add(1)
			return
		}
		b.storeFrame(sk.ToFrame(time.Now()))

	case protocol.TypeTiltStatus:
		st, err := msg.GetTiltStatusData()
		if err != nil {
			b.parseErrors.Add(1)
			return
		}
		b.angle.Store(int64(st.Angle))
		if st.MaxAngle > 0 {
			b.maxAngle.Store(int64(st.MaxAngle))
		}
		b.lastError.Store(st.LastError)
		if st.LastError != "" {
			b.logger.Warn("sensor refused tilt", "error", st.LastError, "angle", st.Angle)
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		pong, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
		if err == nil {
			_ = b.send(pong)
		}

	default:
		b.logger.Debug("unhandled sensor message", "type", msg.Type)
	}
}

// storeFrame keeps only the newest frame.
func (b *Bridge) storeFrame(f skeleton.Frame) {
	b.frameMu.Lock()
	if b.fresh {
		b.framesDropped.Add(1)
	}
	b.latest = f
	b.fresh = true
	b.frameMu.Unlock()
	b.framesReceived.Add(1)
}

// PollSkeletons returns the newest unread frame, if any. Never blocks.
func (b *Bridge) PollSkeletons() (skeleton.Frame, bool) {
	b.frameMu.Lock()
	defer b.frameMu.Unlock()
	if !b.fresh {
		return skeleton.Frame{}, false
	}
	b.fresh = false
	return b.latest, true
}

// RestrictTrackingTo forwards a tracking hint. Failures are logged and dropped.
func (b *Bridge) RestrictTrackingTo(id int) {
	msg, err := protocol.NewRestrictTrackingMessage(id)
	if err != nil {
		return
	}
	if err := b.send(msg); err != nil {
		b.logger.Debug("restrict tracking not sent", "id", id, "error", err)
	}
}

// CurrentAngle returns the last angle the sensor reported.
func (b *Bridge) CurrentAngle() int {
	return int(b.angle.Load())
}

// MaxAngle returns the sensor's tilt limit.
func (b *Bridge) MaxAngle() int {
	return int(b.maxAngle.Load())
}

// LastError returns the sensor's most recent tilt refusal, if any.
func (b *Bridge) LastError() string {
	s, _ := b.lastError.Load().(string)
	return s
}

// SetAngle sends a tilt request. It returns ErrNotConnected while offline.
// A sent angle becomes CurrentAngle until the next tilt_status, which also
// carries any refusal and the angle the motor actually holds.
func (b *Bridge) SetAngle(degrees int) error {
	msg, err := protocol.NewSetTiltMessage(degrees)
	if err != nil {
		return err
	}
	if err := b.send(msg); err != nil {
		return err
	}
	b.angle.Store(int64(degrees))
	return nil
}

func (b *Bridge) send(msg *protocol.Message) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// Connected reports whether a sensor connection is open.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Stats returns bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Connected:      b.Connected(),
		FramesReceived: b.framesReceived.Load(),
		FramesDropped:  b.framesDropped.Load(),
		Reconnects:     b.reconnectCount.Load(),
		ParseErrors:    b.parseErrors.Load(),
	}
}

// Close stops the bridge and closes any open connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
