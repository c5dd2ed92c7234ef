package http

import (
	"context"
	"errors"
	"net/http"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
	"madrassa/internal/reports"
	"madrassa/internal/services"
)

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day, err := parseDayParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rep, msg, err := s.deps.Reports.Daily(r.Context(), day)
	if err != nil {
		s.serverError(w, r, "Daily report failed", err)
		return
	}

	resp := NewJSONResponse().
		Field("date", day.String()).
		Field("report", rep).
		Field("message", msg)
	s.maybeSend(r, resp, services.Generated{
		Kind: reports.KindDaily, Period: day.String(), Totals: rep.Totals, Message: msg,
	})
	resp.Write(w)
}

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	end, err := parseDayParam(r.URL.Query(), "endDate", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rep, msg, err := s.deps.Reports.Weekly(r.Context(), end)
	if err != nil {
		s.serverError(w, r, "Weekly report failed", err)
		return
	}

	resp := NewJSONResponse().
		Field("startDate", rep.StartDate.String()).
		Field("endDate", rep.EndDate.String()).
		Field("report", rep).
		Field("message", msg)
	s.maybeSend(r, resp, services.Generated{
		Kind: reports.KindWeekly, Period: end.String(), Totals: rep.Totals, Message: msg,
	})
	resp.Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthParam(r.URL.Query(), "month", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	summary, msg, err := s.deps.Reports.Monthly(r.Context(), month)
	if err != nil {
		s.serverError(w, r, "Monthly report failed", err)
		return
	}

	resp := NewJSONResponse().
		Field("month", month.String()).
		Field("report", summary).
		Field("message", msg)
	s.maybeSend(r, resp, services.Generated{
		Kind: reports.KindMonthly, Period: month.String(), Totals: summary.Totals, Message: msg,
	})
	resp.Write(w)
}

// maybeSend delivers g to the admin phones when the request asks for it and sets
// "sent" and "sendResult" on resp. Delivery problems never fail the report.
func (s *Server) maybeSend(r *http.Request, resp *JSONResponseBuilder, g services.Generated) {
	resp.Field("sent", false)
	if !parseBoolParam(r.URL.Query(), "send") {
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)
	phones, err := s.adminPhones(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load admin phones", applog.FieldError, err)
		return
	}
	if len(phones) == 0 {
		logger.InfoContext(ctx, "No admin phones configured, report not sent",
			applog.FieldReportKind, string(g.Kind))
		return
	}

	delivery, err := s.deps.Reports.Deliver(ctx, g, phones)
	if err != nil {
		logger.WarnContext(ctx, "Report delivery failed",
			applog.FieldError, err,
			applog.FieldReportKind, string(g.Kind),
			applog.FieldPeriod, g.Period)
		return
	}
	resp.Field("sent", delivery.Queued || delivery.Result.Sent > 0).
		Field("sendResult", delivery.Result)
}

func (s *Server) adminPhones(ctx context.Context) ([]string, error) {
	cfg, err := s.deps.Config.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return notify.SanitizePhones(cfg.AdminPhones), nil
}

// serverError maps input errors to 400 and everything else to a logged 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, core.ErrInvalidPeriod) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	applog.FromContext(r.Context()).ErrorContext(r.Context(), msg, applog.FieldError, err)
	InternalServerError().Write(w)
}
