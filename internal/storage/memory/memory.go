// Package memory is an in-process ledger used by DATA_BACKEND=memory and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

type Store struct {
	mu       sync.RWMutex
	teachers []core.Teacher
	classes  []core.Class
	students []core.Student
	payments []core.Payment
	expenses []core.Expense
	config   core.Config
}

func New() *Store {
	return &Store{config: core.DefaultConfig()}
}

// Seed is the on-disk shape accepted by NewFromFile.
type Seed struct {
	Config   *seedConfig   `json:"config"`
	Students []seedStudent `json:"students"`
	Payments []seedPayment `json:"payments"`
	Expenses []seedExpense `json:"expenses"`
}

type seedConfig struct {
	Name        string   `json:"name"`
	AdminPhones []string `json:"adminPhones"`
}

type seedStudent struct {
	ID            string     `json:"id"`
	GRNumber      string     `json:"grNumber"`
	Name          string     `json:"name"`
	ParentName    string     `json:"parentName"`
	Phone         string     `json:"phone"`
	AdmissionDate core.Date  `json:"admissionDate"`
	MonthlyFee    core.Money `json:"monthlyFee"`
	Status        string     `json:"status"`
}

type seedPayment struct {
	StudentID string     `json:"studentId"`
	FeeType   string     `json:"feeType"`
	Amount    core.Money `json:"amount"`
	Date      core.Date  `json:"date"`
	Month     string     `json:"month"`
}

type seedExpense struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Date     core.Date  `json:"date"`
	Notes    string     `json:"notes"`
}

// NewFromFile loads a JSON seed. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}

	ctx := context.Background()
	if seed.Config != nil {
		cfg := core.DefaultConfig()
		if seed.Config.Name != "" {
			cfg.Name = seed.Config.Name
		}
		cfg.AdminPhones = append([]string{}, seed.Config.AdminPhones...)
		if err := s.SaveConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}
	for _, st := range seed.Students {
		status, err := core.ParseStudentStatus(orDefault(st.Status, string(core.StatusActive)))
		if err != nil {
			return nil, err
		}
		if _, err := s.AddStudent(ctx, core.Student{
			ID: st.ID, GRNumber: st.GRNumber, Name: st.Name, ParentName: st.ParentName, Phone: st.Phone,
			AdmissionDate: st.AdmissionDate, MonthlyFee: st.MonthlyFee, Status: status,
		}); err != nil {
			return nil, err
		}
	}
	for _, p := range seed.Payments {
		ft, err := core.ParseFeeType(p.FeeType)
		if err != nil {
			return nil, err
		}
		if _, err := s.AddPayment(ctx, core.Payment{
			StudentID: p.StudentID, FeeType: ft, Amount: p.Amount, Date: p.Date, Month: p.Month,
		}); err != nil {
			return nil, err
		}
	}
	for _, e := range seed.Expenses {
		if _, err := s.AddExpense(ctx, core.Expense{Category: e.Category, Amount: e.Amount, Date: e.Date, Notes: e.Notes}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) PaymentsBetween(_ context.Context, from, to core.Date) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Payment
	for _, p := range s.payments {
		if p.Date.Between(from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ExpensesBetween(_ context.Context, from, to core.Date) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.Between(from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CountAdmissionsBetween(_ context.Context, from, to core.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.students {
		if st.AdmissionDate.Between(from, to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ActiveStudents(_ context.Context) ([]core.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Student
	for _, st := range s.students {
		if st.Status == core.StatusActive {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) StudentCounts(ctx context.Context) (reports.StudentCounts, error) {
	active, _ := s.ActiveStudents(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reports.StudentCounts{Total: len(s.students), Active: len(active)}, nil
}

func (s *Store) GetConfig(_ context.Context) (core.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.AdminPhones = append([]string{}, s.config.AdminPhones...)
	return cfg, nil
}

func (s *Store) SaveConfig(_ context.Context, c core.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.AdminPhones = append([]string{}, c.AdminPhones...)
	s.config = c
	return nil
}

func (s *Store) AddTeacher(_ context.Context, t core.Teacher) (core.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers = append(s.teachers, t)
	return t, nil
}

func (s *Store) AddClass(_ context.Context, c core.Class) (core.Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes = append(s.classes, c)
	return c, nil
}

func (s *Store) AddStudent(_ context.Context, st core.Student) (core.Student, error) {
	if err := st.Validate(); err != nil {
		return core.Student{}, err
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.students {
		if st.GRNumber != "" && existing.GRNumber == st.GRNumber {
			return core.Student{}, fmt.Errorf("student with GR number %s already exists", st.GRNumber)
		}
	}
	s.students = append(s.students, st)
	return st, nil
}

func (s *Store) AddPayment(_ context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
	sort.SliceStable(s.payments, func(i, j int) bool { return s.payments[i].Date.Before(s.payments[j].Date.Time) })
	return p, nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	sort.SliceStable(s.expenses, func(i, j int) bool { return s.expenses[i].Date.Before(s.expenses[j].Date.Time) })
	return e, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
