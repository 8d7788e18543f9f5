package http

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// timeLayout is RFC3339 with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var frameValidator = validator.New()

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func badRequest(msg string) *core.CoreError {
	return &core.CoreError{Code: core.ErrCodeBadRequest, Message: msg}
}

// decodeData unmarshals and validates a frame payload.
func decodeData(raw json.RawMessage, v any) *core.CoreError {
	if len(raw) == 0 {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("invalid data payload")
	}
	if err := frameValidator.Struct(v); err != nil {
		return badRequest("roomId is required")
	}
	return nil
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *core.CoreError) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if ce := decodeData(inbound.Data, &join); ce != nil {
			return nil, ce
		}
		return &core.Command{
			Kind:   core.CommandJoinRoom,
			RoomID: join.RoomID,
		}, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if ce := decodeData(inbound.Data, &msg); ce != nil {
			return nil, ce
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			RoomID:  msg.RoomID,
			Content: msg.Content,
		}, nil
	case proto.InboundTypeTyping:
		var typing proto.TypingData
		if ce := decodeData(inbound.Data, &typing); ce != nil {
			return nil, ce
		}
		return &core.Command{
			Kind:     core.CommandTyping,
			RoomID:   typing.RoomID,
			IsTyping: typing.IsTyping,
		}, nil
	default:
		return nil, badRequest("unknown message type")
	}
}

func eventMessage(m core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:      m.ID,
		Content: m.Content,
		Sender: proto.Sender{
			ID:       m.SenderID,
			Username: m.SenderUsername,
		},
		RoomID:    m.RoomID,
		CreatedAt: formatTime(m.CreatedAt),
		Timestamp: formatTime(m.CreatedAt),
	}
}

func outboundEvent(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	ts := formatTime(event.Timestamp)

	switch event.Kind {
	case core.EventRoomJoined:
		return outboundEvent(proto.EventRoomJoined, proto.EventRoomJoinedData{
			RoomID:  event.RoomID,
			Message: event.Text,
		})
	case core.EventRoomMessages:
		return outboundEvent(proto.EventRoomMessages, proto.EventRoomMessagesData{
			RoomID:   event.RoomID,
			Messages: lo.Map(event.Messages, func(m core.Message, _ int) proto.EventMessage { return eventMessage(m) }),
		})
	case core.EventReceiveMessage:
		if event.Message == nil {
			break
		}
		msg := eventMessage(*event.Message)
		msg.Timestamp = ts
		return outboundEvent(proto.EventReceiveMessage, msg)
	case core.EventUserTyping:
		return outboundEvent(proto.EventUserTyping, proto.EventUserTypingData{
			UserID:    event.User.UserID,
			Username:  event.User.Username,
			RoomID:    event.RoomID,
			IsTyping:  event.IsTyping,
			Timestamp: ts,
		})
	case core.EventUserJoined:
		return outboundEvent(proto.EventUserJoined, proto.EventUserJoinedData{
			UserID:    event.User.UserID,
			Username:  event.User.Username,
			RoomID:    event.RoomID,
			Timestamp: ts,
		})
	case core.EventUserStatus:
		return outboundEvent(proto.EventUserStatus, proto.EventUserStatusData{
			UserID:    event.User.UserID,
			Username:  event.User.Username,
			Status:    event.Status,
			RoomID:    event.RoomID,
			Timestamp: ts,
		})
	case core.EventRateLimitWarning:
		return outboundEvent(proto.EventRateLimitWarning, proto.EventRateLimitWarningData{
			Remaining: event.Remaining,
			ResetTime: event.ResetAt.UnixMilli(),
		})
	case core.EventError:
		return outboundFromError(event.Error)
	}
	return outboundFromError(&core.CoreError{Code: core.ErrCodeInternal, Message: "unknown event"})
}

func outboundFromError(ce *core.CoreError) proto.Outbound {
	if ce == nil {
		ce = &core.CoreError{Code: core.ErrCodeInternal, Message: "unknown error"}
	}
	perr := &proto.Error{
		Code:    ce.Code,
		Message: ce.Message,
		Type:    ce.Type,
		Limit:   ce.Limit,
	}
	if !ce.ResetAt.IsZero() {
		perr.ResetTime = ce.ResetAt.UnixMilli()
		perr.WaitTime = ce.Wait.Milliseconds()
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Event: proto.EventError,
		Error: perr,
	}
}
