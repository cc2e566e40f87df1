package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceHMAC computes HMAC-SHA256 independently for test verification.
func referenceHMAC(content, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

var sigNow = time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)

func TestSigner_Sign_Basic(t *testing.T) {
	signer, err := NewSigner("whsec_current", "", time.Time{})
	require.NoError(t, err)
	payload := []byte(`{"hive_id":"hive_1"}`)

	header := signer.Sign(payload, sigNow)

	want := fmt.Sprintf("t=%d,v1=%s", sigNow.Unix(),
		referenceHMAC(fmt.Sprintf("%d.%s", sigNow.Unix(), payload), "whsec_current"))
	assert.Equal(t, want, header)
	assert.NotContains(t, header, "v1_old")
}

func TestSigner_Sign_PreviousSecretDuringRotation(t *testing.T) {
	expiry := sigNow.Add(time.Hour)
	signer, err := NewSigner("whsec_new", "whsec_old", expiry)
	require.NoError(t, err)
	payload := []byte(`{}`)

	header := signer.Sign(payload, sigNow)
	content := fmt.Sprintf("%d.%s", sigNow.Unix(), payload)
	assert.True(t, strings.HasSuffix(header, ",v1_old="+referenceHMAC(content, "whsec_old")))

	after := signer.Sign(payload, expiry.Add(time.Second))
	assert.NotContains(t, after, "v1_old", "expired previous secret must not sign")
}

func TestSigner_Sign_PreviousSecretWithoutExpiry(t *testing.T) {
	signer, err := NewSigner("whsec_new", "whsec_old", time.Time{})
	require.NoError(t, err)
	assert.Contains(t, signer.Sign([]byte(`{}`), sigNow), "v1_old=")
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("", "whsec_old", time.Time{})
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	signer, err := NewSigner("whsec_new", "whsec_old", time.Time{})
	require.NoError(t, err)
	payload := []byte(`{"alerts":[]}`)
	header := signer.Sign(payload, sigNow)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		now     time.Time
		wantErr bool
	}{
		{"current secret", payload, header, "whsec_new", sigNow, false},
		{"receiver still on old secret", payload, header, "whsec_old", sigNow, false},
		{"wrong secret", payload, header, "whsec_other", sigNow, true},
		{"tampered payload", []byte(`{"alerts":[1]}`), header, "whsec_new", sigNow, true},
		{"stale timestamp", payload, header, "whsec_new", sigNow.Add(10 * time.Minute), true},
		{"malformed header", payload, "garbage", "whsec_new", sigNow, true},
		{"bad timestamp", payload, "t=abc,v1=00", "whsec_new", sigNow, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.payload, tt.header, tt.secret, tt.now, 5*time.Minute)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerify_MismatchSentinel(t *testing.T) {
	signer, _ := NewSigner("a", "", time.Time{})
	header := signer.Sign([]byte("x"), sigNow)
	assert.ErrorIs(t, Verify([]byte("x"), header, "b", sigNow, 0), ErrSignatureMismatch)
}

func TestParseSignatureHeader_IgnoresUnknownSegments(t *testing.T) {
	parts := parseSignatureHeader(" t=1 , v2=zz, v1=abc ,junk")
	assert.Equal(t, "1", parts.timestamp)
	assert.Equal(t, "abc", parts.v1)
	assert.Empty(t, parts.v1Old)
}
