package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables served by Store. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS people (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	external_contact_id TEXT NOT NULL UNIQUE,
	role                TEXT NOT NULL CHECK (role IN ('courier', 'passenger', 'admin')),
	display_name        TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	home_address        TEXT NOT NULL DEFAULT '',
	address_override    TEXT NOT NULL DEFAULT '',
	branch_id           TEXT NOT NULL DEFAULT '',
	is_active           BOOLEAN NOT NULL DEFAULT TRUE,
	position            TEXT NOT NULL DEFAULT '',
	vehicle_model       TEXT NOT NULL DEFAULT '',
	vehicle_plate       TEXT NOT NULL DEFAULT '',
	work_until          TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS branches (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS shifts (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	person_id           TEXT NOT NULL,
	branch_id           TEXT NOT NULL DEFAULT '',
	date                DATE NOT NULL,
	start_time          TEXT NOT NULL DEFAULT '',
	end_time            TEXT NOT NULL DEFAULT '',
	is_working          BOOLEAN NOT NULL DEFAULT TRUE,
	destination_address TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (person_id, date)
);

CREATE TABLE IF NOT EXISTS assignments (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	courier_id          TEXT NOT NULL,
	passenger_id        TEXT NOT NULL,
	branch_id           TEXT NOT NULL DEFAULT '',
	pickup_address      TEXT NOT NULL DEFAULT '',
	dropoff_address     TEXT NOT NULL DEFAULT '',
	assigned_time       TEXT NOT NULL DEFAULT '',
	date                DATE NOT NULL,
	status              TEXT NOT NULL DEFAULT 'assigned' CHECK (status IN ('assigned', 'cancelled', 'completed')),
	notes               TEXT NOT NULL DEFAULT '',
	courier_confirmed   BOOLEAN NOT NULL DEFAULT FALSE,
	passenger_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS shifts_date_branch_idx ON shifts (date, branch_id);
CREATE INDEX IF NOT EXISTS assignments_date_idx ON assignments (date);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate schema: %w", MapError(err))
	}
	return nil
}
