package handlers

import (
	"context"
	"fmt"

	"github.com/ecobin-app/backend/internal/models"
)

// Report-lifecycle notification triggers. The report pipeline calls these
// when a waste report is submitted or when the classifier result lands.

// NotifyReportCreated records a report_created notification for the
// reporting user.
func (h *NotificationHandler) NotifyReportCreated(ctx context.Context, userID uint, reportID string) (*models.Notification, error) {
	return h.CreateForUser(ctx, userID,
		"Report received",
		"Your waste report was received and is queued for processing.",
		models.NotificationReportCreated, reportID)
}

// NotifyReportProcessed records a report_processed notification carrying
// the classifier's verdict.
func (h *NotificationHandler) NotifyReportProcessed(ctx context.Context, userID uint, reportID, wasteType string) (*models.Notification, error) {
	return h.CreateForUser(ctx, userID,
		"Report processed",
		fmt.Sprintf("Your waste report was classified as %s.", wasteType),
		models.NotificationReportProcessed, reportID)
}
