package stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrBadSignature means the webhook signature is missing, malformed, stale
// or simply wrong. The request must be dropped without processing.
var ErrBadSignature = errors.New("invalid webhook signature")

// Webhook deliveries older than this are rejected to limit replays.
const webhookMaxAge = 5 * time.Minute

// WebhookPayload is the provider's push notification for terminal
// transcoding events.
type WebhookPayload struct {
	UID           string            `json:"uid"`
	ReadyToStream bool              `json:"readyToStream"`
	Status        WebhookStatus     `json:"status"`
	Meta          map[string]string `json:"meta"`
}

type WebhookStatus struct {
	State           string  `json:"state"`
	PctComplete     float64 `json:"pctComplete"`
	ErrorReasonCode string  `json:"errorReasonCode"`
}

// VerifySignature checks a "time=<unix>,sig1=<hex>" header against
// HMAC-SHA256(secret, "<unix>.<body>").
func VerifySignature(secret, header string, body []byte, now time.Time) error {
	if secret == "" {
		// Verification not configured; accept.
		return nil
	}

	var timePart, sigPart string
	for _, field := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch key {
		case "time":
			timePart = value
		case "sig1":
			sigPart = value
		}
	}
	if timePart == "" || sigPart == "" {
		return ErrBadSignature
	}

	sentAt, err := strconv.ParseInt(timePart, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	age := now.Sub(time.Unix(sentAt, 0))
	if age > webhookMaxAge || age < -webhookMaxAge {
		return ErrBadSignature
	}

	want, err := hex.DecodeString(sigPart)
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timePart))
	mac.Write([]byte("."))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrBadSignature
	}
	return nil
}
