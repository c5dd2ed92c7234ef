package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	phones [][]string
	texts  []string
	fail   map[string]bool
}

func (r *recordingDispatcher) SendToMultiple(_ context.Context, phones []string, message string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phones = append(r.phones, phones)
	r.texts = append(r.texts, message)
	res := Result{Total: len(phones)}
	for _, p := range phones {
		if r.fail[p] {
			res.Failed++
		} else {
			res.Sent++
		}
	}
	return res
}

type stubConfig struct {
	cfg   core.Config
	err   error
	calls int
}

func (s *stubConfig) GetConfig(context.Context) (core.Config, error) {
	s.calls++
	return s.cfg, s.err
}

func student() StudentInfo {
	return StudentInfo{
		Name:       "Ahmed",
		GRNumber:   "GR-7",
		ParentName: "Bilal",
		Phone:      "03001234567",
		MonthlyFee: core.Money{Cents: 150000},
	}
}

func TestSanitizePhones(t *testing.T) {
	assert.Equal(t, []string{"0300", "0301"}, SanitizePhones([]string{" 0300 ", "", "   ", "0301"}))
	assert.Empty(t, SanitizePhones(nil))
	assert.Equal(t, []string{"+92 300 1234567"}, SanitizePhones([]string{"n/a", "+92 300 1234567", "-", "none"}))
}

func TestBroadcast_Validation(t *testing.T) {
	d := &recordingDispatcher{}

	_, err := Broadcast(context.Background(), d, []string{"0300"}, "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Broadcast(context.Background(), d, []string{" ", ""}, "hi")
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, d.texts)

	res, err := Broadcast(context.Background(), d, []string{"0300", "", "0301"}, "hi")
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 2, Sent: 2}, res)
}

func TestRender_StudentCreated(t *testing.T) {
	f := reports.NewFormatter("")
	got := StudentCreated{Student: student(), ClassName: "Hifz A"}.Render("Darul Uloom", f)
	want := strings.Join([]string{
		"🎓 *Welcome to Darul Uloom!*",
		"",
		"Assalamu Alaikum Bilal,",
		"",
		"Your child *Ahmed* has been enrolled successfully.",
		"",
		"📋 *Details:*",
		"• GR Number: GR-7",
		"• Class: Hifz A",
		"• Monthly Fee: Rs. 1,500",
		"",
		"JazakAllah Khair for choosing us.",
	}, "\n") + "\n---\n_Darul Uloom_"
	assert.Equal(t, want, got)

	noClass := StudentCreated{Student: student()}.Render("X", f)
	assert.NotContains(t, noClass, "• Class:")
}

func TestRender_PaymentReceived(t *testing.T) {
	f := reports.NewFormatter("")
	ev := PaymentReceived{
		Student: student(),
		Payment: PaymentInfo{Amount: core.Money{Cents: 250050}, FeeType: "Monthly", Date: "2024-05-03", Month: "2024-05"},
	}
	got := ev.Render("M", f)
	assert.Contains(t, got, "We have received your payment for *Ahmed*.")
	assert.Contains(t, got, "• Amount: Rs. 2,500.5")
	assert.Contains(t, got, "• For Month: 2024-05")
	assert.True(t, strings.HasSuffix(got, "JazakAllah Khair.\n---\n_M_"))

	ev.Payment.Month = ""
	assert.NotContains(t, ev.Render("M", f), "For Month")
}

func TestRender_FeeReminder(t *testing.T) {
	got := FeeReminder{Student: student(), Month: "2024-05", DueDate: 10}.Render("M", reports.NewFormatter(""))
	assert.Contains(t, got, "This is a gentle reminder that the fee for *Ahmed* (GR-7) for May 2024 is pending.")
	assert.Contains(t, got, "• Amount Due: Rs. 1,500")
	assert.Contains(t, got, "• Due Date: 10th of the month")
}

func TestRender_Announcement(t *testing.T) {
	got := Announcement{Message: "Eid holidays start Monday"}.Render("M", nil)
	assert.Equal(t, "📢 *Announcement*\n\nEid holidays start Monday\n---\n_M_", got)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent("ANNOUNCEMENT", []byte(`{"message":"hi","phones":["0300"]}`))
	require.NoError(t, err)
	assert.Equal(t, EventAnnouncement, ev.Kind())
	assert.Equal(t, []string{"0300"}, ev.Recipients())

	ev, err = DecodeEvent("PAYMENT_RECEIVED", []byte(`{"student":{"name":"A","grNumber":"1","phone":"0300"},"payment":{"amount":"1500","feeType":"Monthly","date":"2024-05-01"}}`))
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 150000}, ev.(PaymentReceived).Payment.Amount)

	_, err = DecodeEvent("BOGUS", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent("FEE_REMINDER", []byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestService_Trigger(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"0302": true}}
	cfg := &stubConfig{cfg: core.Config{Name: "Jamia"}}
	svc := NewService(d, cfg, time.Minute, nil)
	ctx := context.Background()

	out := svc.Trigger(ctx, Announcement{Message: "hello", Phones: []string{"0300", " ", "0302"}})
	assert.Equal(t, Outcome{Success: true, Sent: 1, Failed: 1, Message: "Sent to 1/2 recipients"}, out)
	require.Len(t, d.texts, 1)
	assert.Equal(t, []string{"0300", "0302"}, d.phones[0])
	assert.True(t, strings.HasSuffix(d.texts[0], "\n---\n_Jamia_"))

	// name is cached
	svc.Trigger(ctx, Announcement{Message: "again", Phones: []string{"0300"}})
	assert.Equal(t, 1, cfg.calls)

	svc.InvalidateOrgName()
	cfg.cfg.Name = "Renamed"
	svc.Trigger(ctx, Announcement{Message: "third", Phones: []string{"0300"}})
	assert.Equal(t, 2, cfg.calls)
	assert.True(t, strings.HasSuffix(d.texts[2], "_Renamed_"))
}

func TestService_TriggerWithoutRecipients(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"0302": true}}
	svc := NewService(d, &stubConfig{}, time.Minute, nil)

	out := svc.Trigger(context.Background(), Announcement{Message: "x"})
	assert.Equal(t, Outcome{Message: "No phone numbers provided"}, out)

	out = svc.Trigger(context.Background(), Announcement{Message: "x", Phones: []string{"  "}})
	assert.Equal(t, Outcome{Message: "No valid phone numbers"}, out)
	assert.Empty(t, d.texts)

	out = svc.Trigger(context.Background(), Announcement{Message: "x", Phones: []string{"0302"}})
	assert.False(t, out.Success)
	assert.Equal(t, 1, out.Failed)
}

func TestService_OrgNameFallback(t *testing.T) {
	svc := NewService(&recordingDispatcher{}, &stubConfig{err: errors.New("db down")}, time.Minute, nil)
	assert.Equal(t, core.DefaultOrgName, svc.OrgName(context.Background()))

	blank := NewService(&recordingDispatcher{}, &stubConfig{cfg: core.Config{Name: " "}}, time.Minute, nil)
	assert.Equal(t, core.DefaultOrgName, blank.OrgName(context.Background()))
}
