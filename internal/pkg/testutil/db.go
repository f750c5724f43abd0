// internal/pkg/testutil/db.go
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/your-org/factory-backend/internal/infrastructure/database/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

// NewTestDB opens an isolated in-memory database with the full schema
// migrated. Each call gets its own database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A uniquely named shared-cache database keeps every pooled connection
	// pointed at the same in-memory store while still isolating each call.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	for _, model := range postgres.Models() {
		if err := db.AutoMigrate(model); err != nil {
			t.Fatalf("failed to migrate %T: %v", model, err)
		}
	}

	return db
}
