package http

import (
	"encoding/json"

	"github.com/vovakirdan/pairchat-server/internal/core"
	"github.com/vovakirdan/pairchat-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandJoin,
			UserID: join.UserID,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.LeaveData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLeave,
			UserID: leave.UserID,
		}, nil, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &core.Command{
			Kind:      core.CommandMessage,
			UserID:    msg.UserID,
			SessionID: msg.SessionID,
			Text:      msg.Message,
		}, nil, nil
	case proto.InboundTypeOffer, proto.InboundTypeAnswer, proto.InboundTypeCandidate:
		var signal proto.SignalData
		if err := json.Unmarshal(inbound.Data, &signal); err != nil {
			return nil, nil, err
		}
		if signal.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &core.Command{
			Kind:      signalKind(inbound.Type),
			UserID:    signal.UserID,
			SessionID: signal.SessionID,
			Blob:      signal.Payload,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func signalKind(inboundType string) core.CommandKind {
	switch inboundType {
	case proto.InboundTypeOffer:
		return core.CommandOffer
	case proto.InboundTypeAnswer:
		return core.CommandAnswer
	default:
		return core.CommandCandidate
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventConnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "connected",
			Data:  proto.EventConnected{ConnID: event.ConnID},
		}
	case core.EventWaiting:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "waiting",
		}
	case core.EventChatStart:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "chat_start",
			Data: proto.EventChatStart{
				SessionID: event.SessionID,
				Initiator: event.Initiator,
			},
		}
	case core.EventPartnerDisconnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "partner_disconnected",
			Data:  proto.EventPartnerDisconnected{SessionID: event.SessionID},
		}
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message",
			Data: proto.EventMessage{
				SessionID: event.SessionID,
				From:      event.From,
				Message:   event.Text,
			},
		}
	case core.EventOffer, core.EventAnswer, core.EventCandidate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: signalEventName(event.Kind),
			Data: proto.EventSignal{
				SessionID: event.SessionID,
				From:      event.From,
				Payload:   event.Blob,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func signalEventName(kind core.EventKind) string {
	switch kind {
	case core.EventOffer:
		return "offer"
	case core.EventAnswer:
		return "answer"
	default:
		return "candidate"
	}
}
