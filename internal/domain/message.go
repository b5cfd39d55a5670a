package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MessageKind string

const (
	MessageKindGift MessageKind = "gift"
	MessageKindVIP  MessageKind = "vip"
)

// Message is an inbox record rendered by the client.
type Message struct {
	ID        uuid.UUID
	AccountID int64
	Kind      MessageKind
	Title     string
	Body      string
	Amount    decimal.Decimal
	Read      bool
	CreatedAt time.Time
}
