package service

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ReferralQR renders link as a PNG QR code of size pixels.
func ReferralQR(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
