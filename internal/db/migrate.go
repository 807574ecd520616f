package db

import (
	"context"
	"database/sql"
)

// Referential rules are explicit: deleting a department or a product that is
// still referenced is rejected (RESTRICT), never cascaded.
const storefrontMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS departments (
    id bigserial PRIMARY KEY,
    name text NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS departments_name_lower_unique
ON departments (LOWER(name));

CREATE TABLE IF NOT EXISTS products (
    id bigserial PRIMARY KEY,
    name text NOT NULL,
    description text NOT NULL DEFAULT '',
    purchase_price numeric(12,2) NOT NULL CHECK (purchase_price >= 0),
    sale_price numeric(12,2) NOT NULL CHECK (sale_price >= 0),
    stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0),
    purchase_unit integer NOT NULL DEFAULT 1,
    sale_unit integer NOT NULL DEFAULT 1,
    department_id bigint NOT NULL REFERENCES departments(id) ON DELETE RESTRICT
);

CREATE INDEX IF NOT EXISTS products_department_id_idx
ON products (department_id);

CREATE TABLE IF NOT EXISTS customers (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    name text NOT NULL,
    login text NOT NULL,
    email text,
    email_verified boolean NOT NULL DEFAULT false,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS customers_login_lower_unique
ON customers (LOWER(login));

CREATE TABLE IF NOT EXISTS credentials (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    customer_id uuid NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE,
    password_hash text NOT NULL,
    hash_version text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS identities (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    customer_id uuid NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    provider text NOT NULL,
    provider_user_id text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT identities_provider_unique
        UNIQUE (provider, provider_user_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id uuid PRIMARY KEY,
    customer_id uuid REFERENCES customers(id) ON DELETE SET NULL,
    total numeric(12,2) NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS orders_customer_id_idx
ON orders (customer_id, created_at DESC);

CREATE TABLE IF NOT EXISTS order_lines (
    order_id uuid NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    line_no integer NOT NULL,
    product_id bigint NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
    product_name text NOT NULL,
    quantity integer NOT NULL CHECK (quantity > 0),
    unit_price numeric(12,2) NOT NULL,
    PRIMARY KEY (order_id, line_no)
);
`

func RunStorefrontMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, storefrontMigration)
	return err
}
