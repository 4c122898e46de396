package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/mount"
	"github.com/wippyai/component-runtime/protocol"
)

// Events exchanged with the remote surface.
const (
	EventMount       = "component.mount"
	EventUnmount     = "component.unmount"
	EventFail        = "component.error"
	EventDOMCallback = string(protocol.TypeDOMCallback)
)

const defaultConnectTimeout = 15 * time.Second

// Config locates the socket.io server.
type Config struct {
	URL       string
	Namespace string
	// ConnectTimeout defaults to 15s.
	ConnectTimeout time.Duration
}

// MountEvent is the payload of EventMount.
type MountEvent struct {
	Node        *protocol.Node `json:"node"`
	ComponentID string         `json:"componentId"`
}

// FailEvent is the payload of EventFail.
type FailEvent struct {
	ComponentID string `json:"componentId"`
	Message     string `json:"message"`
}

// emitter is the part of *socket.Socket the surface uses.
type emitter interface {
	Emit(ev string, args ...any) error
}

// Surface mirrors mounted output to a remote page over socket.io and turns
// the page's DOM events into DOM callbacks.
type Surface struct {
	io      emitter
	sock    *socket.Socket
	logger  *zap.Logger
	handler mount.DOMHandler
	mu      sync.RWMutex
}

// Dial connects to cfg.URL and waits for the namespace to accept the
// connection.
func Dial(ctx context.Context, cfg Config, logger *zap.Logger) (*Surface, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseMount, errors.KindInvalidInput, err, "parse surface url")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	opts.SetPath(u.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", u.Scheme, u.Host), opts)
	io := manager.Socket(cfg.Namespace, opts)

	s := &Surface{io: io, sock: io, logger: logger.With(zap.String("surface", cfg.URL))}
	_ = io.On(types.EventName(EventDOMCallback), s.onDOMCallback)

	connected := make(chan error, 1)
	_ = io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	_ = io.Once(types.EventName("connect_error"), func(args ...any) {
		err, _ := firstArg(args).(error)
		if err == nil {
			err = fmt.Errorf("connect error: %v", firstArg(args))
		}
		connected <- err
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, errors.Wrap(errors.PhaseMount, errors.KindRemote, err, "connect surface")
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(timeout):
		io.Disconnect()
		return nil, errors.New(errors.PhaseMount, errors.KindRemote).
			Detail("timed out after %s waiting for %s", timeout, cfg.URL).
			Build()
	}
	s.logger.Info("surface connected", zap.String("sid", io.Id()))
	return s, nil
}

// OnDOMCallback sets the receiver of DOM events.
func (s *Surface) OnDOMCallback(h mount.DOMHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func (s *Surface) Mount(componentID string, node *protocol.Node) error {
	return s.emit(EventMount, MountEvent{ComponentID: componentID, Node: node})
}

func (s *Surface) Unmount(componentID string) error {
	return s.emit(EventUnmount, map[string]string{"componentId": componentID})
}

func (s *Surface) Fail(componentID string, err error) error {
	return s.emit(EventFail, FailEvent{ComponentID: componentID, Message: err.Error()})
}

// emit sends payload in its JSON shape so the page sees the wire form.
func (s *Surface) emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.PhaseMount, errors.KindInvalidData, err, "encode "+event)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.Wrap(errors.PhaseMount, errors.KindInvalidData, err, "encode "+event)
	}
	if err := s.io.Emit(event, wire); err != nil {
		return errors.Wrap(errors.PhaseMount, errors.KindRemote, err, "emit "+event)
	}
	return nil
}

// onDOMCallback accepts {method, args} either as an object or as JSON text.
func (s *Surface) onDOMCallback(args ...any) {
	var cb protocol.DOMCallback
	switch v := firstArg(args).(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &cb); err != nil {
			s.logger.Warn("malformed dom callback", zap.Error(err))
			return
		}
	case map[string]any:
		cb.Method, _ = v["method"].(string)
		cb.Args, _ = v["args"].([]any)
	default:
		s.logger.Warn("malformed dom callback", zap.String("payload", fmt.Sprintf("%T", v)))
		return
	}
	if cb.Method == "" {
		s.logger.Warn("dom callback without method")
		return
	}

	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h == nil {
		s.logger.Debug("dom callback without handler", zap.String("method", cb.Method))
		return
	}
	if err := h(cb.Method, cb.Args); err != nil {
		s.logger.Warn("dom callback rejected", zap.String("method", cb.Method), zap.Error(err))
	}
}

// Close disconnects from the server.
func (s *Surface) Close() error {
	if s.sock != nil {
		s.sock.Disconnect()
	}
	return nil
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
