// Package notify defines the message dispatch contract and the templated
// notifications sent to parents and administrators.
package notify

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrNoRecipients = errors.New("no valid phone numbers")
	ErrUnknownEvent = errors.New("unknown event type")
	ErrInvalidEvent = errors.New("invalid event payload")
)

// Result accounts for one batch. Sent+Failed always equals Total.
type Result struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher delivers one message to many recipients. Each recipient is
// attempted independently; a failure never aborts the rest of the batch.
type Dispatcher interface {
	SendToMultiple(ctx context.Context, phones []string, message string) Result
}

// SanitizePhones trims entries and drops those without a single digit,
// keeping order.
func SanitizePhones(phones []string) []string {
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		if p = strings.TrimSpace(p); strings.ContainsAny(p, "0123456789") {
			out = append(out, p)
		}
	}
	return out
}

// Broadcast validates the message, sanitizes phones and dispatches.
func Broadcast(ctx context.Context, d Dispatcher, phones []string, message string) (Result, error) {
	if strings.TrimSpace(message) == "" {
		return Result{}, ErrEmptyMessage
	}
	valid := SanitizePhones(phones)
	if len(valid) == 0 {
		return Result{}, ErrNoRecipients
	}
	return d.SendToMultiple(ctx, valid, message), nil
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, phones []string, message string) Result

func (f DispatcherFunc) SendToMultiple(ctx context.Context, phones []string, message string) Result {
	return f(ctx, phones, message)
}
