package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunMigrations bootstraps the schema. Every statement is idempotent and the
// whole set runs in a single transaction.
func RunMigrations(ctx context.Context, db *sqlx.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, step := range []struct {
		name string
		fn   func(context.Context, *sql.Tx) error
	}{
		{"employees", createEmployeesTables},
		{"leaves", createLeavesTables},
		{"attendance", createAttendanceTable},
		{"payroll", createPayrollTable},
		{"announcements", createAnnouncementsTables},
		{"conversations", createConversationTables},
		{"ai_usage", createUsageTables},
		{"google_tokens", createGoogleTokensTable},
	} {
		if err = step.fn(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", step.name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	return nil
}

func createEmployeesTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			login TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT,
			phone TEXT,
			department TEXT NOT NULL DEFAULT '',
			position TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'employee',
			joined_at DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func createLeavesTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS leave_balances (
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			leave_type TEXT NOT NULL,
			total_days NUMERIC NOT NULL DEFAULT 0,
			used_days NUMERIC NOT NULL DEFAULT 0,
			PRIMARY KEY (employee_id, leave_type)
		)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS leave_requests (
			id UUID PRIMARY KEY,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			leave_type TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			days NUMERIC NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Pending',
			applied_via TEXT NOT NULL DEFAULT 'web',
			calendar_event_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_leave_requests_employee
		ON leave_requests (employee_id, created_at DESC)
	`)
	return err
}

func createAttendanceTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance_records (
			id BIGSERIAL PRIMARY KEY,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			work_date DATE NOT NULL,
			check_in TIMESTAMPTZ,
			check_out TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'Present',
			UNIQUE (employee_id, work_date)
		)
	`)
	return err
}

func createPayrollTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS payslips (
			id BIGSERIAL PRIMARY KEY,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			month TEXT NOT NULL,
			basic_pay NUMERIC NOT NULL DEFAULT 0,
			allowances NUMERIC NOT NULL DEFAULT 0,
			deductions NUMERIC NOT NULL DEFAULT 0,
			net_pay NUMERIC NOT NULL DEFAULT 0,
			generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (employee_id, month)
		)
	`)
	return err
}

func createAnnouncementsTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS announcements (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			audience TEXT NOT NULL DEFAULT 'all',
			published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS holidays (
			id BIGSERIAL PRIMARY KEY,
			holiday_date DATE NOT NULL UNIQUE,
			name TEXT NOT NULL
		)
	`)
	return err
}

func createConversationTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			title TEXT NOT NULL DEFAULT 'New conversation',
			pinned BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT,
			tool_calls JSONB,
			tool_call_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages (conversation_id, id)
	`); err != nil {
		return err
	}

	// Backs the dispatcher's ledger lookup: tool results are recalled by
	// (conversation, call id). A retried turn may store the same call id
	// twice in one conversation, so the index is not unique; the lookup
	// takes the earliest row.
	_, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_messages_tool_call
		ON messages (conversation_id, tool_call_id)
		WHERE tool_call_id IS NOT NULL
	`)
	return err
}

func createUsageTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ai_usage_days (
			usage_date DATE PRIMARY KEY,
			request_count BIGINT NOT NULL DEFAULT 0,
			prompt_tokens BIGINT NOT NULL DEFAULT 0,
			completion_tokens BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ai_usage_log (
			id BIGSERIAL PRIMARY KEY,
			usage_date DATE NOT NULL,
			employee_id BIGINT NOT NULL,
			intent TEXT NOT NULL DEFAULT 'chat',
			prompt_tokens INT,
			completion_tokens INT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func createGoogleTokensTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS google_tokens (
			employee_id BIGINT PRIMARY KEY REFERENCES employees(id) ON DELETE CASCADE,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			token_type TEXT NOT NULL DEFAULT 'Bearer',
			expiry TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}
