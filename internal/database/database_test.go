package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             ":memory:",
		MaxOpenConns:    1, // SQLite in-memory requires single connection
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		LogLevel:        "silent",
	}

	db, err := New(cfg, nil)
	require.NoError(t, err)
	return db
}

func TestNew_SQLite(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Verify we can ping
	err := db.Ping(context.Background())
	assert.NoError(t, err)

	// Verify driver name
	assert.Equal(t, "sqlite", db.Driver())
}

func TestNew_InvalidDriver(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "invalid",
		DSN:    ":memory:",
	}

	db, err := New(cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDB_Migrate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	// Migrations are idempotent
	require.NoError(t, db.Migrate(ctx))

	// Tables exist and accept rows
	job := &models.Job{
		Kind:   models.JobKindTranscribe,
		Params: models.JobParams{SourceURL: "https://example.com/v"},
	}
	require.NoError(t, db.DB.Create(job).Error)
	assert.False(t, job.ID.IsZero())

	entry := &models.CostLedgerEntry{
		JobID:     job.ID,
		Stage:     "recognize",
		Type:      "quote",
		AmountUSD: 0.32,
	}
	require.NoError(t, db.DB.Create(entry).Error)
}

func TestDB_Transaction_Rollback(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	sentinel := assert.AnError
	err := db.Transaction(ctx, func(tx *gorm.DB) error {
		job := &models.Job{
			Kind:   models.JobKindDub,
			Params: models.JobParams{SourceURL: "https://example.com/v"},
		}
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, db.DB.Model(&models.Job{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
