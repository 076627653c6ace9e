package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wallet/internal/domain/entity"
	"wallet/internal/infra/persistence/model"
)

// newDryRunDB builds a gorm handle that renders SQL without connecting.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN: "host=localhost user=wallet dbname=wallet sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return db
}

func TestAccountQueries_LockingClause(t *testing.T) {
	db := newDryRunDB(t)

	locked := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return byEmailQuery(tx, "alice@example.com", true).First(&model.AccountModel{})
	})
	assert.Contains(t, locked, `"accounts"`)
	assert.Contains(t, locked, "FOR UPDATE")

	plain := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return byIDQuery(tx, uuid.New(), false).First(&model.AccountModel{})
	})
	assert.NotContains(t, plain, "FOR UPDATE")
	assert.Contains(t, plain, "id =")
}

func TestAccountMapping_RoundTrip(t *testing.T) {
	now := time.Now().UTC()
	acc := &entity.Account{
		ID:                 uuid.New(),
		Email:              "alice@example.com",
		PasswordHash:       "hash",
		IsActive:           true,
		FailedAttemptCount: 2,
		LockedUntil:        &now,
		CreatedAt:          now,
	}

	assert.Equal(t, acc, toAccountDomain(fromAccountDomain(acc)))
	assert.Nil(t, toAccountDomain(nil))
	assert.Nil(t, fromAccountDomain(nil))
}
