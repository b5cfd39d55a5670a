package config

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Referral fan-out depth
	MaxCommissionLevel = 3

	// VIP ladder
	MinVIPLevel = 1
	MaxVIPLevel = 20

	// Referral code
	ReferralCodeLength   = 6
	ReferralCodeAttempts = 10

	// Idempotency-Key lifetime for admin requests
	RequestKeyTTL = 24 * time.Hour

	// Outbound HTTP
	PreviewTimeout  = 10 * time.Second
	PreviewMaxBytes = 2 << 20

	// Event bus buffer per subscriber
	EventBufferSize = 64

	// Websocket keepalive
	WSPingInterval = 30 * time.Second
	WSWriteTimeout = 10 * time.Second

	// Referral QR size in pixels
	QRCodeSize = 256

	// Ledger page size
	LedgerPageSize = 50
)

// CommissionRates maps referral level to its share of the original reward.
var CommissionRates = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.20"),
	2: decimal.RequireFromString("0.10"),
	3: decimal.RequireFromString("0.05"),
}
