package backend

import (
	"context"
	"errors"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

var ErrUnsupportedBackend = errors.New("unsupported backend")

// Backend is everything the binaries need from the ledger store.
type Backend interface {
	reports.Ledger

	GetConfig(ctx context.Context) (core.Config, error)
	SaveConfig(ctx context.Context, c core.Config) error

	AddTeacher(ctx context.Context, t core.Teacher) (core.Teacher, error)
	AddClass(ctx context.Context, c core.Class) (core.Class, error)
	AddStudent(ctx context.Context, s core.Student) (core.Student, error)
	AddPayment(ctx context.Context, p core.Payment) (core.Payment, error)
	AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)

	Ping(ctx context.Context) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
