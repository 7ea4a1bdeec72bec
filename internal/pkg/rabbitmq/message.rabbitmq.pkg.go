package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"dashboard-cargo/internal/pkg/helper"

	gonanoid "github.com/matoous/go-nanoid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Message struct {
	ID          string      `json:"id"`
	Body        []byte      `json:"content"`
	Payload     interface{} `json:"payload"`
	Headers     amqp.Table  `json:"headers,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	ContentType string      `json:"content_type"`
}

// EventBody is the envelope for order events.
type EventBody struct {
	Pattern string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id"`
}

func NewMessage(payload interface{}, headers *amqp.Table) (*Message, error) {
	gid, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("msg_%s_%d", gid, time.Now().Unix())

	var body []byte
	var contentType string
	switch v := payload.(type) {
	case string:
		body = []byte(v)
		contentType = "text/plain"
	case []byte:
		body = v
		contentType = "application/octet-stream"
	default:
		body, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
		contentType = "application/json"
	}

	table := amqp.Table{}
	if headers != nil {
		for k, v := range *headers {
			table[k] = v
		}
	}

	return &Message{
		ID:          id,
		Body:        body,
		Payload:     payload,
		Headers:     table,
		Timestamp:   time.Now(),
		ContentType: contentType,
	}, nil
}

func (m *Message) GeneratePayload() *amqp.Publishing {
	m.Headers["id"] = m.ID

	return &amqp.Publishing{
		ContentType:  m.ContentType,
		Body:         m.Body,
		MessageId:    m.ID,
		Timestamp:    m.Timestamp,
		DeliveryMode: amqp.Persistent,
		Headers:      m.Headers,
	}
}

func (m *Message) GenerateEventPayload(pattern string) *amqp.Publishing {
	m.Headers["id"] = m.ID

	v := EventBody{
		Pattern: pattern,
		Data:    m.Body,
		ID:      m.ID,
	}
	if m.ContentType != "application/json" {
		v.Data, _ = json.Marshal(string(m.Body))
	}
	body, _ := helper.JSONToByte(v)

	return &amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		MessageId:    m.ID,
		Timestamp:    m.Timestamp,
		DeliveryMode: amqp.Persistent,
		Type:         pattern,
		Headers:      m.Headers,
	}
}

// DecodeEvent reads an EventBody and unmarshals its data into T. Plain JSON
// bodies without the envelope are accepted as the data itself.
func DecodeEvent[T any](body []byte) (*T, error) {
	var envelope EventBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Pattern != "" && len(envelope.Data) > 0 {
		body = envelope.Data
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode event body: %w", err)
	}
	return &out, nil
}
