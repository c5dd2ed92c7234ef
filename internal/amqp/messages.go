package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message types carried in the AMQP Type property.
const (
	TypeReportDelivery = "report.delivery"
	TypeNotification   = "notification.event"
)

// MessageVersion is bumped when a payload changes incompatibly.
const MessageVersion = 1

// ReportDeliveryMessage asks the notify worker to send one formatted report.
// Kind and Period identify the report so the archive can regenerate totals.
type ReportDeliveryMessage struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Period      string    `json:"period"`
	Message     string    `json:"message"`
	Phones      []string  `json:"phones"`
	RequestedAt time.Time `json:"requested_at"`
	Version     int       `json:"version"`
}

func NewReportDeliveryMessage(kind, period, message string, phones []string) *ReportDeliveryMessage {
	return &ReportDeliveryMessage{
		ID:          uuid.NewString(),
		Kind:        kind,
		Period:      period,
		Message:     message,
		Phones:      phones,
		RequestedAt: time.Now().UTC(),
		Version:     MessageVersion,
	}
}

func (m *ReportDeliveryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportDeliveryMessageFromJSON(data []byte) (*ReportDeliveryMessage, error) {
	var msg ReportDeliveryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// NotificationMessage carries a templated event for asynchronous dispatch.
type NotificationMessage struct {
	ID          string          `json:"id"`
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data"`
	RequestedAt time.Time       `json:"requested_at"`
	Version     int             `json:"version"`
}

func NewNotificationMessage(event string, data json.RawMessage) *NotificationMessage {
	return &NotificationMessage{
		ID:          uuid.NewString(),
		Event:       event,
		Data:        data,
		RequestedAt: time.Now().UTC(),
		Version:     MessageVersion,
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
