package server

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const eventCodeLength = 6

func newEventCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, eventCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func newID() string {
	return uuid.NewString()
}
