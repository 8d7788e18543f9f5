package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	token := flag.String("token", "", "JWT issued by /api/auth/login")
	room := flag.Int64("room", 1, "room id to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		log.Fatal("-token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		log.Fatalf("parse addr: %v", err)
	}
	q := target.Query()
	q.Set("token", *token)
	target.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "smoke done")

	send := func(kind string, payload any) {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("marshal %s: %v", kind, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: raw}); err != nil {
			log.Fatalf("send %s: %v", kind, err)
		}
	}

	send(proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: *room})
	send(proto.InboundTypeMessage, proto.MessageData{RoomID: *room, Content: *text})

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			log.Fatalf("read: %v", err)
		}
		if out.Type == proto.OutboundTypeError && out.Error != nil {
			log.Fatalf("server error %s: %s", out.Error.Code, out.Error.Message)
		}
		fmt.Printf("event=%s data=%v\n", out.Event, out.Data)
		if out.Event == proto.EventReceiveMessage {
			fmt.Println("smoke ok")
			return
		}
	}
}
