package feed

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

// DefaultHandshakeTimeout bounds the WebSocket opening handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// WebSocketSource reads item messages from a WebSocket endpoint. Each text
// message holds one item object or an array of items.
type WebSocketSource struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	Logger *log.Logger
}

// NewWebSocketSource creates a source for a ws:// or wss:// URL.
func NewWebSocketSource(url string, header http.Header) (*WebSocketSource, error) {
	if err := errors.ValidateStreamURL(url); err != nil {
		return nil, err
	}
	return &WebSocketSource{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	}, nil
}

// Name implements Source.
func (s *WebSocketSource) Name() string { return "ws:" + s.url }

// Stream implements Source.
func (s *WebSocketSource) Stream(ctx context.Context, emit func([]chain.Item)) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "dial %s", s.url)
	}

	// Closing the connection unblocks ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer func() {
		if stop() {
			conn.Close()
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return errors.Wrap(errors.ErrCodeNetwork, err, "read %s", s.url)
		}

		items, err := chain.DecodeBatch(payload)
		if err != nil {
			observability.Feed().OnDecodeError(ctx, s.Name())
			s.Logger.Warn("skipping message", "source", s.Name(), "err", err)
			continue
		}
		if len(items) > 0 {
			emit(items)
		}
	}
}
