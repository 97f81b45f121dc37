package postgres

import "context"

// Schema is the full DDL for the ledger tables. Applied by integration
// tests and by EnsureSchema at startup; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS config_registry (
    singleton   boolean PRIMARY KEY DEFAULT true CHECK (singleton),
    initialized boolean NOT NULL DEFAULT true,
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS issuers (
    position   smallserial PRIMARY KEY,
    name       text NOT NULL CHECK (octet_length(name) BETWEEN 1 AND 30)
);

CREATE TABLE IF NOT EXISTS investors (
    owner       uuid PRIMARY KEY,
    full_names  text NOT NULL,
    country     text NOT NULL,
    active      boolean NOT NULL DEFAULT true,
    total_units bigint NOT NULL DEFAULT 0 CHECK (total_units >= 0),
    available_funds bigint NOT NULL DEFAULT 0 CHECK (available_funds >= 0),
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bonds (
    id          uuid PRIMARY KEY,
    owner       uuid NOT NULL UNIQUE,
    issuer_name text NOT NULL,
    country     text NOT NULL,
    issue_no    text NOT NULL,
    type_of_bond smallint NOT NULL,
    tenor       smallint NOT NULL,
    coupon_rate smallint NOT NULL,
    total_amounts_offered  bigint NOT NULL,
    total_amounts_accepted bigint NOT NULL DEFAULT 0,
    minimum_bid_amount     bigint NOT NULL,
    unit_cost   bigint NOT NULL,
    decimals    smallint NOT NULL,
    value_date  text NOT NULL,
    redemption_date text NOT NULL,
    matured     boolean NOT NULL DEFAULT false,
    investors   uuid[] NOT NULL DEFAULT '{}',
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS deposits (
    id            uuid PRIMARY KEY,
    bond_id       uuid NOT NULL UNIQUE REFERENCES bonds(id),
    owner         uuid NOT NULL,
    authority_tag smallint NOT NULL,
    vault_tag     smallint,
    created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_events (
    id         bigserial PRIMARY KEY,
    category   text NOT NULL,
    action     text NOT NULL,
    actor      text NOT NULL,
    subject    text NOT NULL,
    amount     bigint,
    request_id text,
    device     text,
    occurred_at timestamptz NOT NULL
);
`

// EnsureSchema applies the DDL. Safe to call on every startup.
func EnsureSchema(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, Schema)
	return err
}
