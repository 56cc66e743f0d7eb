package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type dialect struct {
	driver      string
	schema      []string
	insertOrder string
	insertItem  string
	countOrder  string
}

var dialects = map[string]dialect{
	"mysql": {
		driver: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				total BIGINT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_orders_user (user_id)
			)`,
			`CREATE TABLE IF NOT EXISTS order_items (
				order_id VARCHAR(64) NOT NULL,
				product_id VARCHAR(64) NOT NULL,
				name VARCHAR(255) NOT NULL,
				price BIGINT NOT NULL,
				quantity BIGINT NOT NULL,
				PRIMARY KEY (order_id, product_id)
			)`,
		},
		insertOrder: `INSERT IGNORE INTO orders (id, user_id, total, created_at) VALUES (?, ?, ?, ?)`,
		insertItem:  `INSERT IGNORE INTO order_items (order_id, product_id, name, price, quantity) VALUES (?, ?, ?, ?, ?)`,
		countOrder:  `SELECT COUNT(*) FROM orders WHERE id = ?`,
	},
	"postgres": {
		driver: "postgres",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				total BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
			`CREATE TABLE IF NOT EXISTS order_items (
				order_id VARCHAR(64) NOT NULL,
				product_id VARCHAR(64) NOT NULL,
				name VARCHAR(255) NOT NULL,
				price BIGINT NOT NULL,
				quantity BIGINT NOT NULL,
				PRIMARY KEY (order_id, product_id)
			)`,
		},
		insertOrder: `INSERT INTO orders (id, user_id, total, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		insertItem:  `INSERT INTO order_items (order_id, product_id, name, price, quantity) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (order_id, product_id) DO NOTHING`,
		countOrder:  `SELECT COUNT(*) FROM orders WHERE id = $1`,
	},
}

// SQLArchive writes committed orders to MySQL or Postgres. Writes are
// idempotent per order id so a retried archive job never duplicates rows.
type SQLArchive struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLArchive opens a pool for driverName ("mysql" or "postgres").
func OpenSQLArchive(ctx context.Context, driverName, dsn string) (*SQLArchive, error) {
	d, ok := dialects[driverName]
	if !ok {
		return nil, fmt.Errorf("unsupported archive driver %q", driverName)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	return &SQLArchive{db: db, dialect: d}, nil
}

func NewSQLArchive(db *sql.DB, driverName string) (*SQLArchive, error) {
	d, ok := dialects[driverName]
	if !ok {
		return nil, fmt.Errorf("unsupported archive driver %q", driverName)
	}
	return &SQLArchive{db: db, dialect: d}, nil
}

func (a *SQLArchive) Migrate(ctx context.Context) error {
	for _, stmt := range a.dialect.schema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (a *SQLArchive) SaveOrder(ctx context.Context, order domain.Order) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, a.dialect.insertOrder,
		order.ID, order.UserID, order.Total, order.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, a.dialect.insertItem,
			order.ID, item.ProductID, item.Name, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// HasOrder reports whether the order row exists.
func (a *SQLArchive) HasOrder(ctx context.Context, orderID string) (bool, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, a.dialect.countOrder, orderID).Scan(&count); err != nil {
		return false, fmt.Errorf("query order: %w", err)
	}
	return count > 0, nil
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}
