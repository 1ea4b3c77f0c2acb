package calendly

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ftfc/crm/internal/domain/entities"
)

// SignatureHeader carries the webhook signature
const SignatureHeader = "Calendly-Webhook-Signature"

// VerifySignature checks a "t=<unix>,v1=<hex>" header against body. The
// signed payload is "<t>.<body>" and t must be within tolerance of now.
func VerifySignature(signingKey, header string, body []byte, tolerance time.Duration, now time.Time) error {
	if signingKey == "" || header == "" {
		return entities.ErrInvalidSignature
	}

	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signature = v
		}
	}
	if timestamp == "" || signature == "" {
		return entities.ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return entities.ErrInvalidSignature
	}
	skew := now.Sub(time.Unix(unix, 0))
	if skew < 0 {
		skew = -skew
	}
	if tolerance > 0 && skew > tolerance {
		return entities.ErrInvalidSignature
	}

	if !verifyHMAC(signingKey, []byte(timestamp+"."+string(body)), signature) {
		return entities.ErrInvalidSignature
	}
	return nil
}

// Sign builds a signature header for body; used by tests and local tooling
func Sign(signingKey string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	return "t=" + timestamp + ",v1=" + hmacHex(signingKey, []byte(timestamp+"."+string(body)))
}

func verifyHMAC(secret string, payload []byte, signatureHex string) bool {
	expected := hmacHex(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signatureHex)))
}

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
