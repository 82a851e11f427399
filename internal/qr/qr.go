// Package qr builds the shareable QR code for an event.
package qr

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Payload is the JSON document embedded in the QR image.
type Payload struct {
	EventID   string `json:"eventId"`
	EventCode string `json:"eventCode"`
	Title     string `json:"title"`
}

// PNG encodes payload as JSON inside a QR image of the given size.
func PNG(payload Payload, size int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}

// DataURL returns the QR image as a PNG data URL.
func DataURL(payload Payload, size int) (string, error) {
	png, err := PNG(payload, size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURL extracts the PNG bytes from a data URL built by DataURL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, errors.New("not a png data url")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
}
