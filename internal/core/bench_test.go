package core

import (
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	bc := NewBroadcaster(nil)

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), Identity{UserID: int64(i + 1)}, 64)
		bc.Subscribe(1, c)
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid queue backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for {
				select {
				case <-cl.Events:
				case <-cl.Done():
					return
				}
			}
		}(c)
	}
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	ev := &Event{Kind: EventReceiveMessage, RoomID: 1, Message: &Message{Content: "payload"}}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bc.BroadcastAll(1, ev)
		<-target.Events
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
