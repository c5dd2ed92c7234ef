package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"madrassa/internal/core"
	"madrassa/internal/reports"

	_ "modernc.org/sqlite"
)

var ErrConfigNotFound = errors.New("config row not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// dsnPragmas are applied to every pooled connection.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Migrate first so the pool never sees a half-built schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection. Used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// PaymentsBetween implements reports.Ledger
func (r *SQLiteRepository) PaymentsBetween(ctx context.Context, from, to core.Date) ([]core.Payment, error) {
	rows, err := r.queries.ListPaymentsBetween(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list payments %s..%s: %w", from, to, err)
	}
	out := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := paymentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ExpensesBetween implements reports.Ledger
func (r *SQLiteRepository) ExpensesBetween(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses %s..%s: %w", from, to, err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDay(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", row.ID, err)
		}
		out = append(out, core.Expense{
			ID:        row.ID,
			Category:  row.Category,
			Amount:    core.Money{Cents: row.Amount},
			Date:      d,
			Notes:     row.Notes,
			Timestamp: time.UnixMilli(row.Timestamp).UTC(),
		})
	}
	return out, nil
}

// CountAdmissionsBetween implements reports.Ledger
func (r *SQLiteRepository) CountAdmissionsBetween(ctx context.Context, from, to core.Date) (int, error) {
	n, err := r.queries.CountAdmissionsBetween(ctx, from.String(), to.String())
	if err != nil {
		return 0, fmt.Errorf("count admissions: %w", err)
	}
	return int(n), nil
}

// ActiveStudents implements reports.Ledger
func (r *SQLiteRepository) ActiveStudents(ctx context.Context) ([]core.Student, error) {
	rows, err := r.queries.ListStudentsByStatus(ctx, string(core.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	out := make([]core.Student, 0, len(rows))
	for _, row := range rows {
		s, err := studentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StudentCounts implements reports.Ledger
func (r *SQLiteRepository) StudentCounts(ctx context.Context) (reports.StudentCounts, error) {
	total, active, err := r.queries.CountStudents(ctx)
	if err != nil {
		return reports.StudentCounts{}, fmt.Errorf("count students: %w", err)
	}
	return reports.StudentCounts{Total: int(total), Active: int(active)}, nil
}

// GetConfig returns the singleton settings row.
func (r *SQLiteRepository) GetConfig(ctx context.Context) (core.Config, error) {
	row, err := r.queries.GetConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Config{}, ErrConfigNotFound
	}
	if err != nil {
		return core.Config{}, fmt.Errorf("get config: %w", err)
	}

	phones, err := DecodePhones(row.AdminPhones)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring malformed admin_phones", "component", "storage", "error", err)
	}

	return core.Config{
		Name:           row.Name,
		Address:        row.Address,
		Phone:          row.Phone,
		AdminName:      row.AdminName,
		AdminPhones:    phones,
		MonthlyDueDate: int(row.MonthlyDueDate),
		AnnualFeeMonth: row.AnnualFeeMonth,
		AnnualFee:      core.Money{Cents: row.AnnualFee},
	}, nil
}

// SaveConfig replaces the singleton settings row.
func (r *SQLiteRepository) SaveConfig(ctx context.Context, c core.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	phones := c.AdminPhones
	if phones == nil {
		phones = []string{}
	}
	encoded, err := json.Marshal(phones)
	if err != nil {
		return fmt.Errorf("encode admin phones: %w", err)
	}
	if err := r.queries.UpsertConfig(ctx, ConfigRow{
		Name:           c.Name,
		Address:        c.Address,
		Phone:          c.Phone,
		AdminName:      c.AdminName,
		AdminPhones:    string(encoded),
		MonthlyDueDate: int64(c.MonthlyDueDate),
		AnnualFeeMonth: c.AnnualFeeMonth,
		AnnualFee:      c.AnnualFee.Cents,
	}); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	slog.InfoContext(ctx, "Config saved", "component", "storage", "admin_phones", len(phones))
	return nil
}

func (r *SQLiteRepository) AddTeacher(ctx context.Context, t core.Teacher) (core.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := r.queries.InsertTeacher(ctx, t.ID, t.Name, t.Phone); err != nil {
		return core.Teacher{}, fmt.Errorf("insert teacher: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) AddClass(ctx context.Context, c core.Class) (core.Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.queries.InsertClass(ctx, c.ID, c.Name, nullString(c.TeacherID)); err != nil {
		return core.Class{}, fmt.Errorf("insert class: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) AddStudent(ctx context.Context, s core.Student) (core.Student, error) {
	if err := s.Validate(); err != nil {
		return core.Student{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := r.queries.InsertStudent(ctx, StudentRow{
		ID:            s.ID,
		GrNumber:      s.GRNumber,
		Name:          s.Name,
		ParentName:    s.ParentName,
		Phone:         s.Phone,
		ClassID:       nullString(s.ClassID),
		AdmissionDate: s.AdmissionDate.String(),
		MonthlyFee:    s.MonthlyFee.Cents,
		Status:        string(s.Status),
		Discount:      s.Discount.Cents,
	}); err != nil {
		return core.Student{}, fmt.Errorf("insert student %s: %w", s.GRNumber, err)
	}
	return s, nil
}

func (r *SQLiteRepository) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = r.now().UTC()
	}
	if err := r.queries.InsertPayment(ctx, PaymentRow{
		ID:         p.ID,
		StudentID:  p.StudentID,
		FeeType:    string(p.FeeType),
		Amount:     p.Amount.Cents,
		Date:       p.Date.String(),
		Month:      nullString(p.Month),
		ReceivedBy: p.ReceivedBy,
		Timestamp:  p.Timestamp.UnixMilli(),
	}); err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"component", "storage",
		"id", p.ID,
		"fee_type", p.FeeType,
		"amount_cents", p.Amount.Cents,
		"date", p.Date.String())
	return p, nil
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}
	if err := r.queries.InsertExpense(ctx, ExpenseRow{
		ID:        e.ID,
		Category:  e.Category,
		Amount:    e.Amount.Cents,
		Date:      e.Date.String(),
		Notes:     e.Notes,
		Timestamp: e.Timestamp.UnixMilli(),
	}); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"component", "storage",
		"id", e.ID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

// DecodePhones parses the admin_phones JSON array. An empty column is an empty list.
func DecodePhones(raw string) ([]string, error) {
	phones := []string{}
	if raw == "" {
		return phones, nil
	}
	if err := json.Unmarshal([]byte(raw), &phones); err != nil {
		return []string{}, fmt.Errorf("decode admin phones: %w", err)
	}
	return phones, nil
}

func paymentFromRow(row PaymentRow) (core.Payment, error) {
	d, err := core.ParseDay(row.Date)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: %w", row.ID, err)
	}
	return core.Payment{
		ID:         row.ID,
		StudentID:  row.StudentID,
		FeeType:    core.FeeType(row.FeeType),
		Amount:     core.Money{Cents: row.Amount},
		Date:       d,
		Month:      row.Month.String,
		ReceivedBy: row.ReceivedBy,
		Timestamp:  time.UnixMilli(row.Timestamp).UTC(),
	}, nil
}

func studentFromRow(row StudentRow) (core.Student, error) {
	d, err := core.ParseDay(row.AdmissionDate)
	if err != nil {
		return core.Student{}, fmt.Errorf("student %s: %w", row.GrNumber, err)
	}
	return core.Student{
		ID:            row.ID,
		GRNumber:      row.GrNumber,
		Name:          row.Name,
		ParentName:    row.ParentName,
		Phone:         row.Phone,
		ClassID:       row.ClassID.String,
		AdmissionDate: d,
		MonthlyFee:    core.Money{Cents: row.MonthlyFee},
		Status:        core.StudentStatus(row.Status),
		Discount:      core.Money{Cents: row.Discount},
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
