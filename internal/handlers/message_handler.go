package handlers

import (
	"net/http"
	"strconv"

	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	userRepository    repositories.UserRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		userRepository:    userRepo,
	}
}

// RegisterMessageRoutes registers message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages/send", h.SendMessage)
	g.GET("/messages/conversation/:userId/:otherUserId", h.GetConversation)
	g.GET("/messages/conversations/:userId", h.ListConversations)
	g.PUT("/messages/seen/:senderId/:receiverId", h.MarkSeen)
}

func parseUserParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// SendMessage persists a new message. This is the durable, authoritative
// send path; the realtime relay's sendMessage event funnels into the same
// repository operation.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	req := new(models.SendMessageRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	msg, err := h.messageRepository.Send(c.Request().Context(), req.SenderID, req.ReceiverID, req.Text)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": msg,
	})
}

// GetConversation returns all messages between two users, oldest first
func (h *MessageHandler) GetConversation(c echo.Context) error {
	userID, err := parseUserParam(c, "userId")
	if err != nil {
		return err
	}
	otherUserID, err := parseUserParam(c, "otherUserId")
	if err != nil {
		return err
	}

	messages, err := h.messageRepository.GetConversation(c.Request().Context(), userID, otherUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, messages)
}

// ListConversations returns one entry per distinct counterpart with the
// most recent message and unread flag, newest activity first.
func (h *MessageHandler) ListConversations(c echo.Context) error {
	userID, err := parseUserParam(c, "userId")
	if err != nil {
		return err
	}

	messages, err := h.messageRepository.ListMessagesInvolving(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	snapshots := models.BuildConversationSnapshots(messages, userID)
	conversations := make([]models.Conversation, len(snapshots))
	userCache := make(map[uint]models.UserCompact)

	for i, s := range snapshots {
		conversations[i] = models.Conversation{
			LastMessage: s.LastMessage,
			Unread:      s.Unread,
		}
		if compact, ok := userCache[s.CounterpartID]; ok {
			conversations[i].User = compact
		} else {
			user, err := h.userRepository.GetUserByID(s.CounterpartID)
			if err == nil {
				compact := user.ToCompact()
				userCache[s.CounterpartID] = compact
				conversations[i].User = compact
			} else {
				conversations[i].User = models.UserCompact{ID: s.CounterpartID}
			}
		}
	}

	return c.JSON(http.StatusOK, conversations)
}

// MarkSeen bulk-marks messages from sender to receiver as read
func (h *MessageHandler) MarkSeen(c echo.Context) error {
	senderID, err := parseUserParam(c, "senderId")
	if err != nil {
		return err
	}
	receiverID, err := parseUserParam(c, "receiverId")
	if err != nil {
		return err
	}

	modified, err := h.messageRepository.MarkRead(c.Request().Context(), senderID, receiverID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"modifiedCount": modified,
	})
}
