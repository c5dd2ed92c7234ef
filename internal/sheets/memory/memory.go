package memory

import (
	"context"
	"fmt"
	"sync"

	ports "madrassa/internal/sheets"
)

// Archive keeps archived reports in memory.
type Archive struct {
	mu   sync.Mutex
	rows []ports.ArchivedReport
}

var _ ports.ReportArchiver = (*Archive)(nil)

func New() *Archive { return &Archive{} }

// Archive stores the report and returns a synthetic row reference.
func (a *Archive) Archive(_ context.Context, r ports.ArchivedReport) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, r)
	// row 1 is the header
	return fmt.Sprintf("memory!A%d:H%d", len(a.rows)+1, len(a.rows)+1), nil
}

// Rows returns a copy of the archived reports in insertion order.
func (a *Archive) Rows() []ports.ArchivedReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ports.ArchivedReport, len(a.rows))
	copy(out, a.rows)
	return out
}
