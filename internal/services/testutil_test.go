package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ratacueva-backend/database"
	"ratacueva-backend/internal/models"
)

// newTestDB returns a migrated in-memory database. A single connection keeps
// SQLite's in-memory store alive for the whole test. Foreign keys stay off so
// tests can simulate catalog rows disappearing under live references.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      "Ana",
		LastName:  "García",
		Email:     uuid.New().String() + "@test.mx",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.Exec(
		`INSERT INTO users (id, name, last_name, second_last_name, email,
			password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, '', ?, 'x', ?, ?, ?)`,
		user.ID, user.Name, user.LastName, user.Email, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	require.NoError(t, err)
	return user
}

func seedProduct(t *testing.T, db *sql.DB, name string, price float64, stock int, discount float64) *models.Product {
	t.Helper()
	now := time.Now().UTC()
	product := &models.Product{
		ID:                 uuid.New().String(),
		Name:               name,
		Description:        "test product",
		Price:              price,
		Stock:              stock,
		Section:            models.SectionComponents,
		Category:           "GPU",
		DiscountPercentage: discount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err := db.Exec(
		`INSERT INTO products (id, name, description, price, stock, images,
			videos, section, category, specs, discount_percentage, rating,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '[]', '[]', ?, ?, '{}', ?, 0, ?, ?)`,
		product.ID, product.Name, product.Description, product.Price,
		product.Stock, product.Section, product.Category,
		product.DiscountPercentage, product.CreatedAt, product.UpdatedAt,
	)
	require.NoError(t, err)
	return product
}

func seedOrder(t *testing.T, db *sql.DB, userID string) string {
	t.Helper()
	orderID := uuid.New().String()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO orders (id, user_id, subtotal, total_amount, shipping_address,
			billing_address, payment_type, created_at, updated_at)
		VALUES (?, ?, 100, 100, '{}', '{}', 'credit_card', ?, ?)`,
		orderID, userID, now, now,
	)
	require.NoError(t, err)
	return orderID
}

func productStock(t *testing.T, db *sql.DB, productID string) int {
	t.Helper()
	var stock int
	require.NoError(t, db.QueryRow("SELECT stock FROM products WHERE id = ?", productID).Scan(&stock))
	return stock
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
