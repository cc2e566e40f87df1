// Package webhook delivers hive alerts to an HTTP endpoint. It detects chat
// platforms (Slack, Discord) from the URL, formats the payload accordingly,
// signs it with HMAC-SHA256 and posts it through external.BaseClient.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix>,v1=<hmac>[,v1_old=<hmac>]".
const SignatureHeader = "X-HiveWatch-Signature"

// ErrSignatureMismatch is returned by Verify when no signature matches.
var ErrSignatureMismatch = errors.New("webhook signature: mismatch")

// Signer computes HMAC-SHA256 signatures over "{unix}.{payload}". While a
// previous secret is set and unexpired, it also signs with it as v1_old so
// receivers can rotate without downtime.
type Signer struct {
	secret         string
	previous       string
	previousExpiry time.Time
}

// NewSigner creates a Signer. previous may be empty; a zero previousExpiry
// means the previous secret never expires.
func NewSigner(secret, previous string, previousExpiry time.Time) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook signature: empty signing secret")
	}
	return &Signer{secret: secret, previous: previous, previousExpiry: previousExpiry}, nil
}

// Sign returns the header value for payload at now.
func (s *Signer) Sign(payload []byte, now time.Time) string {
	ts := now.Unix()
	content := signedContent(strconv.FormatInt(ts, 10), payload)

	header := fmt.Sprintf("t=%d,v1=%s", ts, computeHMAC(content, s.secret))
	if s.previous != "" && (s.previousExpiry.IsZero() || !now.After(s.previousExpiry)) {
		header += ",v1_old=" + computeHMAC(content, s.previous)
	}
	return header
}

// Verify checks header against payload using secret, rejecting timestamps
// more than tolerance away from now. Receivers use it; so do the tests.
func Verify(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	parts := parseSignatureHeader(header)
	if parts.timestamp == "" || parts.v1 == "" {
		return fmt.Errorf("webhook signature: malformed header")
	}

	ts, err := strconv.ParseInt(parts.timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("webhook signature: invalid timestamp: %w", err)
	}
	if skew := now.Sub(time.Unix(ts, 0)).Abs(); tolerance > 0 && skew > tolerance {
		return fmt.Errorf("webhook signature: timestamp outside tolerance (%s)", skew)
	}

	expected := []byte(computeHMAC(signedContent(parts.timestamp, payload), secret))
	if hmac.Equal([]byte(parts.v1), expected) {
		return nil
	}
	if parts.v1Old != "" && hmac.Equal([]byte(parts.v1Old), expected) {
		return nil
	}
	return ErrSignatureMismatch
}

type signatureParts struct {
	timestamp string
	v1        string
	v1Old     string
}

func parseSignatureHeader(header string) signatureParts {
	var parts signatureParts
	for _, segment := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			parts.timestamp = strings.TrimSpace(value)
		case "v1":
			parts.v1 = strings.TrimSpace(value)
		case "v1_old":
			parts.v1Old = strings.TrimSpace(value)
		}
	}
	return parts
}

func signedContent(timestamp string, payload []byte) string {
	return timestamp + "." + string(payload)
}

// computeHMAC returns the lowercase hex HMAC-SHA256 of content under key.
func computeHMAC(content, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}
