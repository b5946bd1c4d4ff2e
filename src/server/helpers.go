package server

import (
	"encoding/json"
	"fmt"

	"trend-pulse/src/helpers"
	"trend-pulse/src/models"
)

// -----------------------------------------------------------------------------

// decodeClientMessage parses and validates one inbound frame.
func decodeClientMessage(raw []byte) (models.MClientMessage, error) {
	var msg models.MClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, helpers.NewMalformedMessageError("invalid JSON frame", err)
	}

	switch msg.Type {
	case models.MsgSubscribe:
		if _, err := models.ParseEventKind(msg.StreamType); err != nil {
			return msg, helpers.NewMalformedMessageError("invalid SUBSCRIBE", err)
		}
	case models.MsgUnsubscribe:
		if msg.SubscriberID == "" {
			return msg, helpers.NewMalformedMessageError("UNSUBSCRIBE without subscriberId", nil)
		}
	case models.MsgAcknowledgeAlert:
		if msg.AlertID == "" {
			return msg, helpers.NewMalformedMessageError("ACKNOWLEDGE_ALERT without alertId", nil)
		}
	case models.MsgGetDashboard:
	case "":
		return msg, helpers.NewMalformedMessageError("missing message type", nil)
	default:
		return msg, helpers.NewMalformedMessageError(fmt.Sprintf("unknown message type %q", msg.Type), nil)
	}
	return msg, nil
}
