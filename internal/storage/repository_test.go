package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

var _ reports.Ledger = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "madrassa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedStudent(t *testing.T, repo *SQLiteRepository, gr string, status core.StudentStatus, fee int64, admitted core.Date) core.Student {
	t.Helper()
	s, err := repo.AddStudent(context.Background(), core.Student{
		GRNumber:      gr,
		Name:          "Student " + gr,
		Status:        status,
		MonthlyFee:    core.Rupees(fee),
		AdmissionDate: admitted,
	})
	require.NoError(t, err)
	return s
}

func TestSQLiteRepository_DefaultConfig(t *testing.T) {
	repo := newTestRepo(t)
	cfg, err := repo.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Madrassa Darul Uloom", cfg.Name)
	assert.Equal(t, 10, cfg.MonthlyDueDate)
	assert.Equal(t, "05", cfg.AnnualFeeMonth)
	assert.Empty(t, cfg.AdminPhones)
}

func TestSQLiteRepository_SaveConfig(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cfg := core.DefaultConfig()
	cfg.Name = "Jamia"
	cfg.AdminPhones = []string{"03001234567", "923331112222"}
	cfg.AnnualFee = core.Rupees(5000)
	require.NoError(t, repo.SaveConfig(ctx, cfg))

	got, err := repo.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	cfg.MonthlyDueDate = 40
	assert.ErrorIs(t, repo.SaveConfig(ctx, cfg), core.ErrInvalidDueDate)
}

func TestSQLiteRepository_LedgerQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ali := seedStudent(t, repo, "GR-1", core.StatusActive, 6000, core.NewDate(2024, 5, 2))
	seedStudent(t, repo, "GR-2", core.StatusActive, 4000, core.NewDate(2023, 9, 1))
	seedStudent(t, repo, "GR-3", core.StatusArchived, 9000, core.NewDate(2024, 5, 20))

	payments := []core.Payment{
		{StudentID: ali.ID, FeeType: core.FeeMonthly, Amount: core.Rupees(2000), Date: core.NewDate(2024, 5, 10), Month: "2024-05"},
		{StudentID: ali.ID, FeeType: core.FeeAdmission, Amount: core.Rupees(500), Date: core.NewDate(2024, 5, 12)},
		{StudentID: ali.ID, FeeType: core.FeeMonthly, Amount: core.Rupees(2000), Date: core.NewDate(2024, 6, 1), Month: "2024-06"},
	}
	for _, p := range payments {
		_, err := repo.AddPayment(ctx, p)
		require.NoError(t, err)
	}
	_, err := repo.AddExpense(ctx, core.Expense{Category: "Utilities", Amount: core.Rupees(1200), Date: core.NewDate(2024, 5, 15)})
	require.NoError(t, err)

	got, err := repo.PaymentsBetween(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05", got[0].Month)
	assert.Equal(t, "", got[1].Month)
	assert.Equal(t, core.FeeAdmission, got[1].FeeType)

	n, err := repo.CountAdmissionsBetween(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, err := repo.ActiveStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	counts, err := repo.StudentCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, reports.StudentCounts{Total: 3, Active: 2}, counts)

	r, err := reports.NewAggregator(repo).Monthly(ctx, core.Month{Year: 2024, Month: 5})
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(2500), r.TotalIncome)
	assert.Equal(t, core.Rupees(1200), r.TotalExpenses)
	assert.Equal(t, core.Rupees(1300), r.NetAmount)
	assert.Equal(t, core.Rupees(10000), r.ExpectedFees)
	assert.Equal(t, 20, r.FeeCollectionRate)
}

func TestSQLiteRepository_RejectsUnknownStudent(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddPayment(context.Background(), core.Payment{
		StudentID: "nope", FeeType: core.FeeOther, Amount: core.Rupees(1), Date: core.NewDate(2024, 5, 1),
	})
	assert.Error(t, err, "foreign key must be enforced")
}

func TestSQLiteRepository_ConcurrentReports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	s := seedStudent(t, repo, "GR-1", core.StatusActive, 1000, core.NewDate(2024, 1, 1))
	for d := 1; d <= 28; d++ {
		_, err := repo.AddPayment(ctx, core.Payment{StudentID: s.ID, FeeType: core.FeeOther, Amount: core.Rupees(10), Date: core.NewDate(2024, 2, d)})
		require.NoError(t, err)
	}

	agg := reports.NewAggregator(repo)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := agg.Monthly(ctx, core.Month{Year: 2024, Month: 2})
			if err == nil && r.TotalIncome != core.Rupees(280) {
				t.Errorf("unexpected income %s", r.TotalIncome)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestDecodePhones(t *testing.T) {
	phones, err := DecodePhones("")
	require.NoError(t, err)
	assert.Empty(t, phones)

	phones, err = DecodePhones(`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, phones)

	_, err = DecodePhones(`not json`)
	assert.Error(t, err)
}
