package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/craftbridge/relay-server/internal/core"
)

// errSlowConsumer signals that the relay closed this client because its
// outbound queue overflowed.
var errSlowConsumer = errors.New("slow consumer")

// WSHandler upgrades HTTP connections and bridges them to the relay.
type WSHandler struct {
	relay  *core.Relay
	origin string
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(relay *core.Relay, origin string, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{relay: relay, origin: origin, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client, err := h.relay.Connect()
	if err != nil {
		// Capacity rejection: notify, then close. The candidate was never
		// registered.
		_ = wsjson.Write(ctx, conn, h.relay.CapacityNotice())
		conn.Close(websocket.StatusTryAgainLater, "server full")
		return
	}
	defer h.relay.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errSlowConsumer):
		status = websocket.StatusPolicyViolation
		reason = "outbound queue overflow"
		h.log.Warn().Str("client_id", client.ID).Msg("closing slow consumer")
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if h.origin == "" || h.origin == "*" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: []string{h.origin}}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		h.relay.Dispatch(client, data)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case payload := <-client.Out():
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws frame")
				return err
			}
		case <-client.Done():
			return errSlowConsumer
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
