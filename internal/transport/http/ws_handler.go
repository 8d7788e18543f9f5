package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const closeReasonAuthFailed = "authentication failed"

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub             *core.Hub
	log             *zerolog.Logger
	maxMessageBytes int64
	originPatterns  []string
	skipOriginCheck bool
}

// NewWSHandler builds a new WebSocket handler.
// allowedOrigins are origin URLs or host patterns; "*" disables the origin check.
func NewWSHandler(hub *core.Hub, maxMessageBytes int64, allowedOrigins []string, logger *zerolog.Logger) stdhttp.Handler {
	patterns, skip := originPatterns(allowedOrigins)
	return &WSHandler{
		hub:             hub,
		log:             logger,
		maxMessageBytes: maxMessageBytes,
		originPatterns:  patterns,
		skipOriginCheck: skip,
	}
}

// originPatterns reduces configured origins to the host patterns websocket.Accept matches against.
func originPatterns(origins []string) ([]string, bool) {
	if lo.Contains(origins, "*") {
		return nil, true
	}
	return lo.FilterMap(origins, func(origin string, _ int) (string, bool) {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return "", false
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			return u.Host, true
		}
		return origin, true
	}), false
}

// handshakeToken reads the bearer token from the Authorization header or the token query parameter.
func handshakeToken(r *stdhttp.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: h.skipOriginCheck,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client, err := h.hub.Connect(ctx, handshakeToken(r))
	if err != nil {
		h.log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws authentication failed")
		conn.Close(websocket.StatusPolicyViolation, closeReasonAuthFailed)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(client.Commands)
		return h.readLoop(gctx, conn, client)
	})
	g.Go(func() error {
		return h.writeLoop(gctx, conn, client)
	})
	g.Go(func() error {
		h.hub.Serve(gctx, client)
		return nil
	})

	err = g.Wait()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes frames into commands. Malformed frames are answered with
// a bad_request error and the connection stays open.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if s := websocket.CloseStatus(err); s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
				return nil
			}
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("malformed ws frame")
			client.Deliver(&core.Event{Kind: core.EventError, Error: badRequest("invalid JSON frame")})
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			client.Deliver(&core.Event{Kind: core.EventError, Error: protoErr})
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		case <-client.Done():
			return nil
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
