package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"madrassa/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// parseDayParam reads a YYYY-MM-DD query value, defaulting to the calendar day of now.
func parseDayParam(query url.Values, key string, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.DateOf(now), nil
	}
	return core.ParseDay(v)
}

// parseMonthParam reads a YYYY-MM query value, defaulting to the month of now.
func parseMonthParam(query url.Values, key string, now time.Time) (core.Month, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.DateOf(now).Month(), nil
	}
	return core.ParseMonth(v)
}

// parseBoolParam treats anything strconv cannot parse as false.
func parseBoolParam(query url.Values, key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(query.Get(key)))
	return err == nil && b
}

// decodeJSON reads one JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// phoneList accepts either a single phone string or an array of phones.
type phoneList []string

func (p *phoneList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*p = phoneList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("phones must be a string or an array of strings")
	}
	*p = many
	return nil
}
