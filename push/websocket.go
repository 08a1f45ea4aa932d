package push

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeGracePeriod = time.Second

// WebSocket reads Frames from a single server connection and dispatches them
// to local subscribers.
type WebSocket struct {
	conn   *websocket.Conn
	hub    *Hub
	logger *zap.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to url, authenticating with token when it is set.
func DialWebSocket(ctx context.Context, url, token string, logger *zap.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial push server %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial push server %s: %w", url, err)
	}

	ws := &WebSocket{
		conn:    conn,
		hub:     NewHub(),
		logger:  logger.With(zap.String("push_url", url)),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go ws.readLoop()
	ws.logger.Info("push channel connected")
	return ws, nil
}

func (w *WebSocket) Subscribe(ctx context.Context, event string, h Handler) (Subscription, error) {
	select {
	case <-w.done:
		return nil, ErrClosed
	default:
	}
	return w.hub.Subscribe(ctx, event, h)
}

// Done is closed once the read loop has stopped.
func (w *WebSocket) Done() <-chan struct{} {
	return w.done
}

func (w *WebSocket) readLoop() {
	defer close(w.done)
	for {
		var f Frame
		if err := w.conn.ReadJSON(&f); err != nil {
			select {
			case <-w.closing:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					w.logger.Info("push server closed the connection")
				} else {
					w.logger.Warn("push channel read failed", zap.Error(err))
				}
			}
			return
		}
		if f.Event == "" {
			w.logger.Debug("dropping frame without event name")
			continue
		}
		w.hub.Dispatch(f)
	}
}

// Close ends the connection and waits for the read loop to exit.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closing)

		w.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		werr := w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		w.writeMu.Unlock()
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			w.logger.Debug("close frame not sent", zap.Error(werr))
		}

		select {
		case <-w.done:
		case <-time.After(closeGracePeriod):
		}
		if cerr := w.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		<-w.done
		_ = w.hub.Close()
		w.logger.Info("push channel closed")
	})
	return err
}
