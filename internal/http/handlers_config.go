package http

import (
	"net/http"
	"strings"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
)

const defaultAdminName = "Admin"

type configResponse struct {
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Phone          string     `json:"phone"`
	AdminName      string     `json:"adminName"`
	AdminPhones    []string   `json:"adminPhones"`
	MonthlyDueDate int        `json:"monthlyDueDate"`
	AnnualFeeMonth string     `json:"annualFeeMonth"`
	AnnualFee      core.Money `json:"annualFee"`
}

func toConfigResponse(c core.Config) configResponse {
	def := core.DefaultConfig()
	resp := configResponse{
		Name:           c.Name,
		Address:        c.Address,
		Phone:          c.Phone,
		AdminName:      c.AdminName,
		AdminPhones:    c.AdminPhones,
		MonthlyDueDate: c.MonthlyDueDate,
		AnnualFeeMonth: c.AnnualFeeMonth,
		AnnualFee:      c.AnnualFee,
	}
	if strings.TrimSpace(resp.Name) == "" {
		resp.Name = def.Name
	}
	if strings.TrimSpace(resp.AdminName) == "" {
		resp.AdminName = defaultAdminName
	}
	if resp.AdminPhones == nil {
		resp.AdminPhones = []string{}
	}
	if resp.MonthlyDueDate == 0 {
		resp.MonthlyDueDate = def.MonthlyDueDate
	}
	if resp.AnnualFeeMonth == "" {
		resp.AnnualFeeMonth = def.AnnualFeeMonth
	}
	return resp
}

// configUpdate is a partial update: absent fields keep their stored value.
type configUpdate struct {
	Name           *string     `json:"name" validate:"omitempty,max=200"`
	Address        *string     `json:"address" validate:"omitempty,max=500"`
	Phone          *string     `json:"phone" validate:"omitempty,max=32"`
	AdminName      *string     `json:"adminName" validate:"omitempty,max=200"`
	AdminPhones    []string    `json:"adminPhones" validate:"omitempty,max=50,dive,max=32"`
	MonthlyDueDate *int        `json:"monthlyDueDate" validate:"omitempty,min=1,max=31"`
	AnnualFeeMonth *string     `json:"annualFeeMonth" validate:"omitempty,len=2,numeric"`
	AnnualFee      *core.Money `json:"annualFee"`
}

func (u configUpdate) apply(c core.Config) core.Config {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Address != nil {
		c.Address = strings.TrimSpace(*u.Address)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.AdminName != nil {
		c.AdminName = strings.TrimSpace(*u.AdminName)
	}
	if u.AdminPhones != nil {
		c.AdminPhones = u.AdminPhones
	}
	if u.MonthlyDueDate != nil {
		c.MonthlyDueDate = *u.MonthlyDueDate
	}
	if u.AnnualFeeMonth != nil {
		c.AnnualFeeMonth = *u.AnnualFeeMonth
	}
	if u.AnnualFee != nil {
		c.AnnualFee = *u.AnnualFee
	}
	return c
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.Config.GetConfig(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load config", err)
		return
	}
	NewJSONResponse().Field("result", toConfigResponse(cfg)).Write(w)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}

	ctx := r.Context()
	current, err := s.deps.Config.GetConfig(ctx)
	if err != nil {
		s.serverError(w, r, "Failed to load config", err)
		return
	}
	updated := req.apply(current)
	if err := updated.Validate(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.deps.Config.SaveConfig(ctx, updated); err != nil {
		s.serverError(w, r, "Failed to save config", err)
		return
	}
	s.deps.Notifier.InvalidateOrgName()

	applog.FromContext(ctx).InfoContext(ctx, "Config updated", applog.FieldOperation, applog.OpUpdate)
	NewJSONResponse().Field("result", toConfigResponse(updated)).Write(w)
}
