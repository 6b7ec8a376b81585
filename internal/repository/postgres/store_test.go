package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// The repositories speak a dialect-portable subset of SQL (sequential $N
// placeholders, timestamps bound from Go), so the suite runs them against
// an in-memory SQLite database instead of requiring a live Postgres.
const testSchema = `
CREATE TABLE categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	deleted_at TIMESTAMP
);

CREATE TABLE products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price NUMERIC NOT NULL DEFAULT 0,
	image_url TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	created_at TIMESTAMP NOT NULL,
	deleted_at TIMESTAMP
);

CREATE TABLE orders (
	id TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	customer_address TEXT NOT NULL DEFAULT '',
	total_amount NUMERIC NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'placed',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE order_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id TEXT NOT NULL REFERENCES orders(id),
	product_id TEXT NOT NULL,
	name TEXT NOT NULL,
	unit_price NUMERIC NOT NULL DEFAULT 0,
	quantity INTEGER NOT NULL DEFAULT 1
);
`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a different empty :memory: DB.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(t *testing.T, db *sql.DB, id, name, price string, stock int) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO products (id, name, price, stock, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, name, price, stock, time.Now().UTC(),
	)
	require.NoError(t, err)
}

func productStock(t *testing.T, db *sql.DB, id string) int {
	t.Helper()
	var stock int
	require.NoError(t, db.QueryRow("SELECT stock FROM products WHERE id = $1", id).Scan(&stock))
	return stock
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
