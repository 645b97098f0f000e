package loans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists loans and their schedules.
type Repository interface {
	// Create stores a new active loan. It fails with ErrActiveLoanExists when
	// the borrower already has one.
	Create(ctx context.Context, loan Loan) error
	Get(ctx context.Context, id string) (Loan, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]Loan, error)
	ActiveByBorrower(ctx context.Context, borrowerID string) (Loan, error)
	SetDisbursement(ctx context.Context, id, txID string) error
	SetStatus(ctx context.Context, id, status string) error
	// MarkInstallmentPaid settles one installment and completes the loan
	// once nothing is pending.
	MarkInstallmentPaid(ctx context.Context, id string, number int, txID string, paidAt time.Time) (Loan, error)
}

// PostgresRepository stores loans in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed loan repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const loanColumns = `id, borrower_id, wallet_id, principal, interest, total, rate_bp, purpose, duration_months,
        employment, monthly_income, status, disbursement_tx_id, created_at, completed_at`

// Create inserts the loan and its installments in one transaction. A
// partial unique index on (borrower_id) WHERE status = 'active' enforces
// one active loan per borrower.
func (r *PostgresRepository) Create(ctx context.Context, loan Loan) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	_, err = tx.Exec(ctx, `INSERT INTO loans (`+loanColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULL)`,
		loan.ID, loan.BorrowerID, loan.WalletID, loan.Principal, loan.Interest, loan.Total, loan.RateBasisPoints,
		loan.Purpose, loan.DurationMonths, loan.Employment, loan.MonthlyIncome, loan.Status, loan.DisbursementTxID,
		loan.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrActiveLoanExists
	}
	if err != nil {
		return err
	}

	for _, in := range loan.Installments {
		if _, err := tx.Exec(ctx, `INSERT INTO installments (loan_id, number, due_date, amount, status)
            VALUES ($1, $2, $3, $4, $5)`, loan.ID, in.Number, in.DueDate, in.Amount, in.Status); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Get loads a loan with its schedule.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Loan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Loan{}, ErrLoanNotFound
	}
	loan, err := scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		return Loan{}, err
	}
	return r.withInstallments(ctx, loan)
}

// ListByBorrower returns the borrower's loans, newest first.
func (r *PostgresRepository) ListByBorrower(ctx context.Context, borrowerID string) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE borrower_id = $1 ORDER BY created_at DESC`, borrowerID)
	if err != nil {
		return nil, err
	}
	var out []Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, loan)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i], err = r.withInstallments(ctx, out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ActiveByBorrower returns the borrower's active loan.
func (r *PostgresRepository) ActiveByBorrower(ctx context.Context, borrowerID string) (Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE borrower_id = $1 AND status = $2`,
		borrowerID, StatusActive))
	if err != nil {
		return Loan{}, err
	}
	return r.withInstallments(ctx, loan)
}

// SetDisbursement records the ledger transaction that paid out the loan.
func (r *PostgresRepository) SetDisbursement(ctx context.Context, id, txID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE loans SET disbursement_tx_id = $1 WHERE id = $2`, txID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// SetStatus changes the loan status.
func (r *PostgresRepository) SetStatus(ctx context.Context, id, status string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE loans SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// MarkInstallmentPaid settles one installment under a row lock on the loan.
func (r *PostgresRepository) MarkInstallmentPaid(ctx context.Context, id string, number int, txID string, paidAt time.Time) (Loan, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Loan{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM loans WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}
	if status != StatusActive {
		return Loan{}, ErrLoanClosed
	}

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM installments WHERE loan_id = $1 AND number = $2`, id, number).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrInstallmentMissing
		}
		return Loan{}, err
	}
	if current == InstallmentPaid {
		return Loan{}, ErrInstallmentPaid
	}

	if _, err := tx.Exec(ctx, `UPDATE installments SET status = $1, paid_at = $2, transaction_id = $3
        WHERE loan_id = $4 AND number = $5`, InstallmentPaid, paidAt.UTC(), txID, id, number); err != nil {
		return Loan{}, err
	}

	var pending int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM installments WHERE loan_id = $1 AND status = $2`, id, InstallmentPending).Scan(&pending); err != nil {
		return Loan{}, err
	}
	if pending == 0 {
		if _, err := tx.Exec(ctx, `UPDATE loans SET status = $1, completed_at = $2 WHERE id = $3`, StatusCompleted, paidAt.UTC(), id); err != nil {
			return Loan{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Loan{}, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) withInstallments(ctx context.Context, loan Loan) (Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT number, due_date, amount, status, paid_at, COALESCE(transaction_id, '')
        FROM installments WHERE loan_id = $1 ORDER BY number`, loan.ID)
	if err != nil {
		return Loan{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			in     Installment
			paidAt *time.Time
		)
		if err := rows.Scan(&in.Number, &in.DueDate, &in.Amount, &in.Status, &paidAt, &in.TransactionID); err != nil {
			return Loan{}, err
		}
		in.DueDate = in.DueDate.UTC()
		if paidAt != nil {
			t := paidAt.UTC()
			in.PaidAt = &t
		}
		loan.Installments = append(loan.Installments, in)
	}
	return loan, rows.Err()
}

func scanLoan(row pgx.Row) (Loan, error) {
	var (
		loan        Loan
		id          uuid.UUID
		borrowerID  uuid.UUID
		walletID    uuid.UUID
		completedAt *time.Time
	)
	err := row.Scan(&id, &borrowerID, &walletID, &loan.Principal, &loan.Interest, &loan.Total, &loan.RateBasisPoints,
		&loan.Purpose, &loan.DurationMonths, &loan.Employment, &loan.MonthlyIncome, &loan.Status, &loan.DisbursementTxID,
		&loan.CreatedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, ErrLoanNotFound
	}
	if err != nil {
		return Loan{}, err
	}
	loan.ID = id.String()
	loan.BorrowerID = borrowerID.String()
	loan.WalletID = walletID.String()
	loan.CreatedAt = loan.CreatedAt.UTC()
	if completedAt != nil {
		t := completedAt.UTC()
		loan.CompletedAt = &t
	}
	return loan, nil
}
