package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'proposal_kind') THEN
			CREATE TYPE proposal_kind AS ENUM ('public', 'direct');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'proposal_status') THEN
			CREATE TYPE proposal_status AS ENUM ('pending', 'accepted', 'rejected');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('active', 'completed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'escrow_status') THEN
			CREATE TYPE escrow_status AS ENUM ('pending_payment', 'payment_received', 'work_completed', 'funds_released', 'disputed', 'refunded');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'project_status') THEN
			CREATE TYPE project_status AS ENUM ('open', 'in_progress', 'completed', 'cancelled');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		client_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		status project_status NOT NULL DEFAULT 'open',
		hired_freelancer_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID REFERENCES projects(id),
		client_id UUID NOT NULL,
		freelancer_id UUID NOT NULL,
		proposed_price NUMERIC(18,2) NOT NULL,
		kind proposal_kind NOT NULL,
		cover_letter TEXT,
		status proposal_status NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_proposal_public_per_project
		ON proposals (project_id, freelancer_id)
		WHERE kind = 'public' AND project_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_project_id ON proposals (project_id) WHERE project_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_freelancer_id ON proposals (freelancer_id);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		proposal_id UUID NOT NULL REFERENCES proposals(id),
		project_id UUID REFERENCES projects(id),
		client_id UUID NOT NULL,
		freelancer_id UUID NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		status contract_status NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_proposal_id ON contracts (proposal_id);`,
	`CREATE TABLE IF NOT EXISTS escrow_transactions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		project_id UUID REFERENCES projects(id),
		client_id UUID NOT NULL,
		freelancer_id UUID NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		status escrow_status NOT NULL DEFAULT 'pending_payment',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_escrow_contract_id ON escrow_transactions (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_escrow_status ON escrow_transactions (status);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id UUID NOT NULL,
		category VARCHAR(64) NOT NULL,
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_id ON notifications (recipient_id);`,
	`CREATE TABLE IF NOT EXISTS freelancer_balances (
		freelancer_id UUID PRIMARY KEY,
		available NUMERIC(18,2) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
