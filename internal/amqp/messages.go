package amqp

import (
	"encoding/json"
	"time"
)

// InvoiceCreatedMessage announces a freshly stored invoice. It carries
// only the identifying number plus display fields; consumers fetch the
// full invoice from storage.
type InvoiceCreatedMessage struct {
	Nummer    int       `json:"nummer"`
	Client    string    `json:"client"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceCreatedMessage(nummer int, client string, total float64) *InvoiceCreatedMessage {
	return &InvoiceCreatedMessage{
		Nummer:    nummer,
		Client:    client,
		Total:     total,
		Timestamp: time.Now(),
	}
}

func (m *InvoiceCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoiceCreatedMessageFromJSON(data []byte) (*InvoiceCreatedMessage, error) {
	var msg InvoiceCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
