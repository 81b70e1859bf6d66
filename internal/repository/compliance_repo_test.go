package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

func TestComplianceRepositoryEnsureDeadlineSetsOnce(t *testing.T) {
	db := setupTestDB(t, &models.ComplianceRecord{})
	repo := NewComplianceRepository(db)

	first := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	armed, err := repo.EnsureDeadline(context.Background(), 5, first)
	require.NoError(t, err)
	require.True(t, armed)

	// A later trigger must not move the date.
	armed, err = repo.EnsureDeadline(context.Background(), 5, first.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.False(t, armed)

	record, err := repo.FindByEntity(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, record.DeadlineAt)
	require.Equal(t, first, record.DeadlineAt.UTC())
}

func TestComplianceRepositoryMarkColumns(t *testing.T) {
	db := setupTestDB(t, &models.ComplianceRecord{})
	repo := NewComplianceRepository(db)

	require.NoError(t, repo.MarkPostponed(context.Background(), 9, models.DimensionCriminalRecords))
	require.NoError(t, repo.MarkDone(context.Background(), 9, models.DimensionChannel))

	record, err := repo.FindByEntity(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, record.CriminalRecordsPostponed)
	require.True(t, record.ChannelDone)
	require.False(t, record.RiskMapDone)

	require.Error(t, repo.MarkDone(context.Background(), 9, "unknown"))
}

func TestComplianceRepositoryListOverdue(t *testing.T) {
	db := setupTestDB(t, &models.ComplianceRecord{})
	repo := NewComplianceRepository(db)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	overdue := models.ComplianceRecord{EntityID: 1, DeadlineAt: &past}
	pending := models.ComplianceRecord{EntityID: 2, DeadlineAt: &future}
	unarmed := models.ComplianceRecord{EntityID: 3}
	require.NoError(t, db.Create(&overdue).Error)
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Create(&unarmed).Error)

	records, err := repo.ListOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint(1), records[0].EntityID)
}
