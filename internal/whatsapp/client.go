// Package whatsapp talks to a WAPI gateway: typing indicator, short pause,
// then the text message.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	applog "madrassa/internal/log"
	"madrassa/internal/notify"
)

const (
	DefaultAPIURL      = "http://130.107.48.143:3000"
	DefaultSession     = "default"
	DefaultCountryCode = "92"

	userAgent = "Mozilla/5.0"
)

var ErrSendFailed = errors.New("failed to send message")

// Config configures a Client. Zero values fall back to the gateway defaults
// except the delay ranges, where zero means no delay.
type Config struct {
	APIURL        string
	APIKey        string
	Session       string
	CountryCode   string
	TypingMin     time.Duration
	TypingMax     time.Duration
	PauseMin      time.Duration
	PauseMax      time.Duration
	RatePerMinute int
	HTTPClient    *http.Client
}

// Client implements notify.Dispatcher.
type Client struct {
	baseURL     string
	apiKey      string
	session     string
	countryCode string
	typingMin   time.Duration
	typingMax   time.Duration
	pauseMin    time.Duration
	pauseMax    time.Duration
	http        *http.Client
	limiter     *rate.Limiter
	logger      *applog.Logger
}

var _ notify.Dispatcher = (*Client)(nil)

func New(cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = DefaultAPIURL
	}
	session := cfg.Session
	if session == "" {
		session = DefaultSession
	}
	cc := cfg.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	return &Client{
		baseURL:     base,
		apiKey:      cfg.APIKey,
		session:     session,
		countryCode: cc,
		typingMin:   cfg.TypingMin,
		typingMax:   cfg.TypingMax,
		pauseMin:    cfg.PauseMin,
		pauseMax:    cfg.PauseMax,
		http:        hc,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.WithComponent(applog.ComponentWhatsApp),
	}
}

// FormatChatID converts a local or international number into a chat id:
// 03148564326 -> 923148564326@c.us.
func (c *Client) FormatChatID(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = c.countryCode + digits[1:]
	}
	if !strings.HasPrefix(digits, c.countryCode) {
		digits = c.countryCode + digits
	}
	return digits + "@c.us"
}

// Send delivers one message. Typing indicator failures are logged and ignored;
// only the text request decides the outcome.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	chatID := c.FormatChatID(phone)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := c.post(ctx, "api/startTyping", chatPayload{ChatID: chatID, Session: c.session}); err != nil {
		c.logger.Debug("startTyping failed", applog.FieldError, err)
	}
	if err := sleep(ctx, jitter(c.typingMin, c.typingMax)); err != nil {
		return err
	}
	if err := c.post(ctx, "api/stopTyping", chatPayload{ChatID: chatID, Session: c.session}); err != nil {
		c.logger.Debug("stopTyping failed", applog.FieldError, err)
	}

	if err := c.post(ctx, "api/sendText", chatPayload{ChatID: chatID, Text: text, Session: c.session}); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// SendToMultiple sends sequentially, pausing between recipients but not after
// the last. Once ctx is done the remaining recipients count as failed.
func (c *Client) SendToMultiple(ctx context.Context, phones []string, message string) notify.Result {
	res := notify.Result{Total: len(phones)}
	for i, phone := range phones {
		if ctx.Err() != nil {
			res.Failed += len(phones) - i
			break
		}
		if err := c.Send(ctx, phone, message); err != nil {
			c.logger.Warn("WhatsApp send failed",
				applog.FieldError, err,
				"chat_id", c.FormatChatID(phone))
			res.Failed++
		} else {
			res.Sent++
		}
		if i < len(phones)-1 {
			_ = sleep(ctx, jitter(c.pauseMin, c.pauseMax))
		}
	}
	return res
}

type chatPayload struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text,omitempty"`
	Session string `json:"session"`
}

func (c *Client) post(ctx context.Context, endpoint string, body chatPayload) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
