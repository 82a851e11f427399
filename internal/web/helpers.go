package web

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func esc(value string) string {
	return templ.EscapeString(value)
}

// JoinURL builds the participant join link. An empty base yields a relative link.
func JoinURL(base, eventCode string) string {
	return strings.TrimRight(base, "/") + "/join-event?code=" + eventCode
}

func phaseLabel(phase string) string {
	switch phase {
	case "lobby":
		return "Waiting for the host to start"
	case "countdown":
		return "Countdown running"
	case "voting":
		return "Voting open"
	case "revealed":
		return "Matches revealed"
	default:
		return phase
	}
}
