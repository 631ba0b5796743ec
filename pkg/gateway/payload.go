package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNameLen    = 200
	maxPortionLen = 64
)

// MaxMealSodiumMG is the largest amount a single meal may carry.
const MaxMealSodiumMG int64 = 100_000

// ParseSodium coerces a JSON value to whole milligrams. Numbers and numeric
// strings are accepted and truncated toward zero; negative amounts are
// clamped to zero and amounts above MaxMealSodiumMG are rejected.
func ParseSodium(raw json.RawMessage) (int64, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return 0, &PayloadError{Field: "sodium_mg", Reason: "is required"}
	}

	var text string
	switch c := v[0]; {
	case c == '"':
		if err := json.Unmarshal(v, &text); err != nil {
			return 0, &PayloadError{Field: "sodium_mg", Reason: "is not a valid string"}
		}
		text = strings.TrimSpace(text)
	case c == '-' || (c >= '0' && c <= '9'):
		text = string(v)
	default:
		return 0, &PayloadError{Field: "sodium_mg", Reason: "must be a number"}
	}

	return parseWhole(text)
}

var maxMealMG = decimal.NewFromInt(MaxMealSodiumMG)

func parseWhole(s string) (int64, error) {
	if s == "" {
		return 0, &PayloadError{Field: "sodium_mg", Reason: "is empty"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &PayloadError{Field: "sodium_mg", Reason: "must be a number"}
	}
	if d.Sign() <= 0 {
		return 0, nil
	}
	// integer digits, checked before any rescale so "1e999999" stays cheap
	digits := d.NumDigits() + int(d.Exponent())
	if digits <= 0 {
		return 0, nil
	}
	if digits > len(maxMealMG.String()) {
		return 0, tooMuchSodium()
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxMealMG) {
		return 0, tooMuchSodium()
	}
	return d.IntPart(), nil
}

func tooMuchSodium() error {
	return &PayloadError{Field: "sodium_mg", Reason: fmt.Sprintf("must not exceed %d mg", MaxMealSodiumMG)}
}

var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00"}
	naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}
)

// ParseRecordedAt parses an ISO-8601 timestamp. Values without an offset are
// read in loc. The second result is false when s is empty or unparsable and
// now was returned instead.
func ParseRecordedAt(s string, loc *time.Location, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return now, false
}

// ParseDeviceToken extracts a device token from the Authorization header
// ("Token <uuid>" or a bare value) or, failing that, from X-Device-Token.
func ParseDeviceToken(authorization, deviceHeader string) (uuid.UUID, bool) {
	auth := strings.TrimSpace(authorization)
	if len(auth) > 6 && strings.EqualFold(auth[:6], "token ") {
		auth = strings.TrimSpace(auth[6:])
	}
	for _, candidate := range []string{auth, strings.TrimSpace(deviceHeader)} {
		if candidate == "" {
			continue
		}
		if token, err := uuid.Parse(candidate); err == nil {
			return token, true
		}
	}
	return uuid.Nil, false
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
