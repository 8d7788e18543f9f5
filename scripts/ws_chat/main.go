package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	token := flag.String("token", "", "JWT issued by /api/auth/login")
	room := flag.Int64("room", 1, "room id to join")
	flag.Parse()

	if *token == "" {
		return errors.New("-token is required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	q.Set("token", *token)
	target.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s in room %d\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

// decode re-marshals the generic event payload into a concrete type.
func decode(data any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("! %s: %s\n", out.Error.Code, out.Error.Message)
			continue
		}

		switch out.Event {
		case proto.EventReceiveMessage:
			var evt proto.EventMessage
			if err := decode(out.Data, &evt); err != nil {
				log.Printf("decode message: %v", err)
				continue
			}
			fmt.Printf("[%d] %s: %s\n", evt.RoomID, evt.Sender.Username, evt.Content)
		case proto.EventRoomMessages:
			var evt proto.EventRoomMessagesData
			if err := decode(out.Data, &evt); err != nil {
				log.Printf("decode history: %v", err)
				continue
			}
			for _, m := range evt.Messages {
				fmt.Printf("[%d] %s: %s\n", m.RoomID, m.Sender.Username, m.Content)
			}
		case proto.EventUserJoined:
			var evt proto.EventUserJoinedData
			if err := decode(out.Data, &evt); err != nil {
				log.Printf("decode user_joined: %v", err)
				continue
			}
			fmt.Printf("[%d] %s joined\n", evt.RoomID, evt.Username)
		case proto.EventUserStatus:
			var evt proto.EventUserStatusData
			if err := decode(out.Data, &evt); err != nil {
				log.Printf("decode user_status: %v", err)
				continue
			}
			fmt.Printf("%s is %s\n", evt.Username, evt.Status)
		case proto.EventRateLimitWarning:
			var evt proto.EventRateLimitWarningData
			if err := decode(out.Data, &evt); err != nil {
				log.Printf("decode warning: %v", err)
				continue
			}
			fmt.Printf("! %d messages left in this window\n", evt.Remaining)
		case proto.EventUserTyping:
		default:
			fmt.Printf("event=%s data=%v\n", out.Event, out.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room int64) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := send(ctx, conn, proto.InboundTypeMessage, proto.MessageData{RoomID: room, Content: text}); err != nil {
				log.Printf("%v", err)
				return
			}
		}
	}
}
