package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type PaymentRow struct {
	ID         string
	StudentID  string
	FeeType    string
	Amount     int64
	Date       string
	Month      sql.NullString
	ReceivedBy string
	Timestamp  int64
}

type ExpenseRow struct {
	ID        string
	Category  string
	Amount    int64
	Date      string
	Notes     string
	Timestamp int64
}

type StudentRow struct {
	ID            string
	GrNumber      string
	Name          string
	ParentName    string
	Phone         string
	ClassID       sql.NullString
	AdmissionDate string
	MonthlyFee    int64
	Status        string
	Discount      int64
}

type ConfigRow struct {
	Name           string
	Address        string
	Phone          string
	AdminName      string
	AdminPhones    string
	MonthlyDueDate int64
	AnnualFeeMonth string
	AnnualFee      int64
}

const listPaymentsBetween = `
SELECT id, student_id, fee_type, amount, date, month, received_by, timestamp
FROM payments
WHERE date >= ? AND date <= ?
ORDER BY date, timestamp, id
`

func (q *Queries) ListPaymentsBetween(ctx context.Context, from, to string) ([]PaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentsBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentRow
	for rows.Next() {
		var i PaymentRow
		if err := rows.Scan(&i.ID, &i.StudentID, &i.FeeType, &i.Amount, &i.Date, &i.Month, &i.ReceivedBy, &i.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listExpensesBetween = `
SELECT id, category, amount, date, notes, timestamp
FROM expenses
WHERE date >= ? AND date <= ?
ORDER BY date, timestamp, id
`

func (q *Queries) ListExpensesBetween(ctx context.Context, from, to string) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(&i.ID, &i.Category, &i.Amount, &i.Date, &i.Notes, &i.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countAdmissionsBetween = `
SELECT COUNT(*) FROM students WHERE admission_date >= ? AND admission_date <= ?
`

func (q *Queries) CountAdmissionsBetween(ctx context.Context, from, to string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdmissionsBetween, from, to).Scan(&count)
	return count, err
}

const listStudentsByStatus = `
SELECT id, gr_number, name, parent_name, phone, class_id, admission_date, monthly_fee, status, discount
FROM students
WHERE status = ?
ORDER BY gr_number
`

func (q *Queries) ListStudentsByStatus(ctx context.Context, status string) ([]StudentRow, error) {
	rows, err := q.db.QueryContext(ctx, listStudentsByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StudentRow
	for rows.Next() {
		var i StudentRow
		if err := rows.Scan(&i.ID, &i.GrNumber, &i.Name, &i.ParentName, &i.Phone, &i.ClassID,
			&i.AdmissionDate, &i.MonthlyFee, &i.Status, &i.Discount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countStudents = `
SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'Active' THEN 1 ELSE 0 END), 0) FROM students
`

func (q *Queries) CountStudents(ctx context.Context) (total int64, active int64, err error) {
	err = q.db.QueryRowContext(ctx, countStudents).Scan(&total, &active)
	return total, active, err
}

const getConfig = `
SELECT name, address, phone, admin_name, admin_phones, monthly_due_date, annual_fee_month, annual_fee
FROM config WHERE id = 1
`

func (q *Queries) GetConfig(ctx context.Context) (ConfigRow, error) {
	var i ConfigRow
	err := q.db.QueryRowContext(ctx, getConfig).Scan(&i.Name, &i.Address, &i.Phone, &i.AdminName,
		&i.AdminPhones, &i.MonthlyDueDate, &i.AnnualFeeMonth, &i.AnnualFee)
	return i, err
}

const upsertConfig = `
INSERT INTO config (id, name, address, phone, admin_name, admin_phones, monthly_due_date, annual_fee_month, annual_fee)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    address = excluded.address,
    phone = excluded.phone,
    admin_name = excluded.admin_name,
    admin_phones = excluded.admin_phones,
    monthly_due_date = excluded.monthly_due_date,
    annual_fee_month = excluded.annual_fee_month,
    annual_fee = excluded.annual_fee
`

func (q *Queries) UpsertConfig(ctx context.Context, c ConfigRow) error {
	_, err := q.db.ExecContext(ctx, upsertConfig, c.Name, c.Address, c.Phone, c.AdminName,
		c.AdminPhones, c.MonthlyDueDate, c.AnnualFeeMonth, c.AnnualFee)
	return err
}

const insertTeacher = `INSERT INTO teachers (id, name, phone) VALUES (?, ?, ?)`

func (q *Queries) InsertTeacher(ctx context.Context, id, name, phone string) error {
	_, err := q.db.ExecContext(ctx, insertTeacher, id, name, phone)
	return err
}

const insertClass = `INSERT INTO classes (id, name, teacher_id) VALUES (?, ?, ?)`

func (q *Queries) InsertClass(ctx context.Context, id, name string, teacherID sql.NullString) error {
	_, err := q.db.ExecContext(ctx, insertClass, id, name, teacherID)
	return err
}

const insertStudent = `
INSERT INTO students (id, gr_number, name, parent_name, phone, class_id, admission_date, monthly_fee, status, discount)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertStudent(ctx context.Context, s StudentRow) error {
	_, err := q.db.ExecContext(ctx, insertStudent, s.ID, s.GrNumber, s.Name, s.ParentName, s.Phone,
		s.ClassID, s.AdmissionDate, s.MonthlyFee, s.Status, s.Discount)
	return err
}

const insertPayment = `
INSERT INTO payments (id, student_id, fee_type, amount, date, month, received_by, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertPayment(ctx context.Context, p PaymentRow) error {
	_, err := q.db.ExecContext(ctx, insertPayment, p.ID, p.StudentID, p.FeeType, p.Amount, p.Date,
		p.Month, p.ReceivedBy, p.Timestamp)
	return err
}

const insertExpense = `
INSERT INTO expenses (id, category, amount, date, notes, timestamp)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertExpense(ctx context.Context, e ExpenseRow) error {
	_, err := q.db.ExecContext(ctx, insertExpense, e.ID, e.Category, e.Amount, e.Date, e.Notes, e.Timestamp)
	return err
}
