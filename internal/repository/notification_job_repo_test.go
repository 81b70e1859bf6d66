package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

func TestNotificationJobRepositoryMarkSentIsConditional(t *testing.T) {
	db := setupTestDB(t, &models.NotificationJob{})
	repo := NewNotificationJobRepository(db)

	job := models.NotificationJob{TemplateSlug: "payment_success", Recipient: "delegate@example.com", Status: models.NotificationStatusQueued, ScheduledAt: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), &job))

	sentAt := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	applied, err := repo.MarkSent(context.Background(), job.ID, sentAt)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = repo.MarkSent(context.Background(), job.ID, sentAt.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, applied)
}

func TestNotificationJobRepositoryListDueSkipsFutureAndNonQueued(t *testing.T) {
	db := setupTestDB(t, &models.NotificationJob{})
	repo := NewNotificationJobRepository(db)

	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	due := models.NotificationJob{TemplateSlug: "pending_clearance", Recipient: "a@example.com", Status: models.NotificationStatusQueued, ScheduledAt: now.Add(-time.Minute)}
	future := models.NotificationJob{TemplateSlug: "pending_clearance", Recipient: "b@example.com", Status: models.NotificationStatusQueued, ScheduledAt: now.Add(time.Hour)}
	sent := models.NotificationJob{TemplateSlug: "pending_clearance", Recipient: "c@example.com", Status: models.NotificationStatusSent, ScheduledAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(context.Background(), &due))
	require.NoError(t, repo.Create(context.Background(), &future))
	require.NoError(t, repo.Create(context.Background(), &sent))

	jobs, err := repo.ListDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "a@example.com", jobs[0].Recipient)
}
