package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order by `daruyar system migrate`. All statements
// are idempotent so re-running is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		email text NOT NULL UNIQUE,
		password_hash text,
		full_name text NOT NULL DEFAULT '',
		phone text,
		avatar_key text,
		email_verified boolean NOT NULL DEFAULT false,
		oauth_provider text,
		oauth_subject text,
		status text NOT NULL DEFAULT 'active',
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_oauth_idx ON users (oauth_provider, oauth_subject)
		WHERE oauth_provider IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS families (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		created_by uuid NOT NULL REFERENCES users(id),
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS family_members (
		id uuid PRIMARY KEY,
		family_id uuid NOT NULL REFERENCES families(id) ON DELETE CASCADE,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		UNIQUE (family_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS patients (
		id uuid PRIMARY KEY,
		full_name text NOT NULL,
		date_of_birth date,
		gender text,
		blood_type text,
		created_by uuid NOT NULL REFERENCES users(id),
		family_id uuid REFERENCES families(id) ON DELETE SET NULL,
		is_active boolean NOT NULL DEFAULT true,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS patients_created_by_idx ON patients (created_by)`,
	`CREATE INDEX IF NOT EXISTS patients_family_idx ON patients (family_id)`,

	`CREATE TABLE IF NOT EXISTS medicines (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		name text NOT NULL,
		type text NOT NULL DEFAULT '',
		dosage_form text NOT NULL DEFAULT '',
		strength text NOT NULL DEFAULT '',
		quantity integer NOT NULL DEFAULT 0,
		expiration_date date,
		is_active boolean NOT NULL DEFAULT true,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS medicines_patient_idx ON medicines (patient_id)`,

	`CREATE TABLE IF NOT EXISTS medication_schedules (
		id uuid PRIMARY KEY,
		medication_id uuid NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		dosage numeric NOT NULL DEFAULT 1,
		frequency_type text NOT NULL DEFAULT 'daily',
		start_date date NOT NULL,
		end_date date,
		time_slots text[] NOT NULL DEFAULT '{}',
		status text NOT NULL DEFAULT 'pending',
		last_taken timestamptz,
		is_active boolean NOT NULL DEFAULT true,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS schedules_patient_idx ON medication_schedules (patient_id)`,
	`CREATE INDEX IF NOT EXISTS schedules_medication_idx ON medication_schedules (medication_id)`,

	`CREATE TABLE IF NOT EXISTS medication_intake (
		id uuid PRIMARY KEY,
		schedule_id uuid NOT NULL REFERENCES medication_schedules(id) ON DELETE CASCADE,
		scheduled_time timestamptz NOT NULL,
		taken_time timestamptz,
		status text NOT NULL DEFAULT 'scheduled',
		notes text,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS intake_schedule_idx ON medication_intake (schedule_id, scheduled_time)`,

	`CREATE TABLE IF NOT EXISTS vitals (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		vital_type text NOT NULL,
		value numeric NOT NULL,
		unit text NOT NULL DEFAULT '',
		measured_at timestamptz NOT NULL,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS vitals_patient_idx ON vitals (patient_id, vital_type, measured_at)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		title text NOT NULL,
		doctor_name text,
		location text,
		notes text,
		scheduled_at timestamptz NOT NULL,
		status text NOT NULL DEFAULT 'scheduled',
		reminder_minutes integer NOT NULL DEFAULT 0,
		reminder_sent boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_id, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS appointments_reminder_idx ON appointments (reminder_sent, scheduled_at)
		WHERE reminder_sent = false`,

	`CREATE TABLE IF NOT EXISTS categories (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		owner_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		title text NOT NULL,
		doc_type text NOT NULL DEFAULT '',
		file_key text NOT NULL,
		file_name text NOT NULL,
		mime_type text NOT NULL DEFAULT '',
		size bigint NOT NULL DEFAULT 0,
		category_id uuid REFERENCES categories(id) ON DELETE SET NULL,
		document_date date,
		uploaded_by uuid NOT NULL REFERENCES users(id),
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_patient_idx ON documents (patient_id)`,

	`CREATE TABLE IF NOT EXISTS family_chat (
		id uuid PRIMARY KEY,
		family_id uuid NOT NULL REFERENCES families(id) ON DELETE CASCADE,
		sender_id uuid NOT NULL REFERENCES users(id),
		content text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS family_chat_family_idx ON family_chat (family_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS patient_shares (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		token text NOT NULL UNIQUE,
		created_by uuid NOT NULL REFERENCES users(id),
		shared_with uuid REFERENCES users(id),
		permission text NOT NULL DEFAULT 'view_only',
		expires_at timestamptz,
		revoked boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS patient_shares_patient_idx ON patient_shares (patient_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type text NOT NULL,
		title text NOT NULL,
		body text NOT NULL DEFAULT '',
		patient_id uuid,
		family_id uuid,
		share_id uuid,
		is_read boolean NOT NULL DEFAULT false,
		read_at timestamptz,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, is_read, created_at)`,
}

// Migrate applies the schema. Statements are executed one at a time so a
// failure reports the offending statement index.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
