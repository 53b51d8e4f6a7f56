package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/queue"
	"github.com/ecobin-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	cleanupSecret          string

	// enqueuePush is swappable in tests; defaults to the asynq queue.
	enqueuePush func(queue.PushDispatchPayload) (string, error)
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, cleanupSecret string) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		cleanupSecret:          cleanupSecret,
		enqueuePush:            queue.EnqueuePushDispatch,
	}
}

// RegisterNotificationRoutes registers the authenticated notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.POST("/notifications", h.CreateNotification)
	g.GET("/notifications/stats", h.GetStats)
	g.PUT("/notifications/mark-all-read", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/:id/mark-for-deletion", h.MarkForDeletion)
	g.PUT("/notifications/:id/restore", h.Restore)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.GET("/notifications/preferences", h.GetPreferences)
	g.PUT("/notifications/preferences", h.UpdatePreferences)
	g.POST("/notifications/push-token", h.RegisterPushToken)
}

// RegisterCleanupRoute registers the shared-secret cleanup endpoint used
// by scheduled jobs. It lives outside the JWT group.
func (h *NotificationHandler) RegisterCleanupRoute(e *echo.Echo) {
	e.POST("/notifications/cleanup", h.Cleanup)
}

// CreateForUser persists a notification and queues its push delivery.
// Push failures never fail the create. Report-lifecycle code goes through
// this same path.
func (h *NotificationHandler) CreateForUser(ctx context.Context, userID uint, title, message string, nType models.NotificationType, relatedReportID string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:          userID,
		Title:           title,
		Message:         message,
		Type:            nType,
		RelatedReportID: relatedReportID,
	}
	if err := h.notificationRepository.Create(ctx, n); err != nil {
		return nil, err
	}

	payload := queue.PushDispatchPayload{
		UserID:  userID,
		Type:    string(nType),
		Title:   title,
		Message: message,
	}
	if relatedReportID != "" {
		payload.Data = map[string]string{"relatedReportId": relatedReportID}
	}
	if _, err := h.enqueuePush(payload); err != nil {
		log.Printf("Failed to enqueue push for user %d: %v", userID, err)
	}

	return n, nil
}

// CreateNotification creates a notification for the authenticated user
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.CreateNotificationRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	n, err := h.CreateForUser(c.Request().Context(), currentUserID, req.Title, req.Message,
		models.NotificationType(req.Type), req.RelatedReportID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "notification": n})
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	} else if limit > 50 {
		limit = 50
	}
	includeDeleted, _ := strconv.ParseBool(c.QueryParam("includeDeleted"))

	notifications, total, err := h.notificationRepository.List(c.Request().Context(), currentUserID, page, limit, includeDeleted)
	if err != nil {
		return httpError(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"notifications": notifications,
		"totalPages":    totalPages,
		"currentPage":   page,
		"total":         total,
	})
}

// GetStats returns total/unread counts excluding soft-deleted rows
func (h *NotificationHandler) GetStats(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	stats, err := h.notificationRepository.Stats(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "stats": stats})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notificationRepository.MarkRead(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all non-deleted notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	modified, err := h.notificationRepository.MarkAllRead(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "modifiedCount": modified})
}

// MarkForDeletion soft-deletes a notification, starting the retention window
func (h *NotificationHandler) MarkForDeletion(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notificationRepository.SoftDelete(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Restore reverses a soft delete while the row still exists
func (h *NotificationHandler) Restore(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notificationRepository.Restore(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteNotification soft-deletes by default; ?force=true removes the row
// permanently.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	force, _ := strconv.ParseBool(c.QueryParam("force"))
	var err error
	if force {
		err = h.notificationRepository.HardDelete(c.Request().Context(), c.Param("id"), currentUserID)
	} else {
		err = h.notificationRepository.SoftDelete(c.Request().Context(), c.Param("id"), currentUserID)
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GetPreferences returns the user's push settings
func (h *NotificationHandler) GetPreferences(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":              true,
		"notificationsEnabled": user.NotificationsEnabled,
		"preferences":          user.NotificationPreferences,
	})
}

// UpdatePreferences applies preference toggles
func (h *NotificationHandler) UpdatePreferences(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.UpdatePreferencesRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, err := h.userRepository.UpdatePreferences(currentUserID, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":              true,
		"notificationsEnabled": user.NotificationsEnabled,
		"preferences":          user.NotificationPreferences,
	})
}

// RegisterPushToken stores the caller's device push token
func (h *NotificationHandler) RegisterPushToken(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.RegisterPushTokenRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.userRepository.UpdatePushToken(currentUserID, req.Token); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Cleanup purges expired soft-deletes globally. Gated by a shared secret
// so only the scheduled job can call it.
func (h *NotificationHandler) Cleanup(c echo.Context) error {
	secret := c.Request().Header.Get("X-Cleanup-Secret")
	if h.cleanupSecret == "" || secret != h.cleanupSecret {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid cleanup secret")
	}

	removed, err := h.notificationRepository.SweepAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "removed": removed})
}
