package push

import (
	"context"
	"log"
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/repositories"
)

// MessageSender is the slice of the FCM client the dispatcher needs.
// *messaging.Client satisfies it.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Dispatcher translates a created notification into an outbound push
// message, gated by the user's global and per-category preference flags.
type Dispatcher struct {
	sender MessageSender
	users  repositories.UserRepository
}

func NewDispatcher(sender MessageSender, users repositories.UserRepository) *Dispatcher {
	return &Dispatcher{sender: sender, users: users}
}

// validToken is a cheap device-token format check. Rejected tokens make
// dispatch a silent no-op, never an error.
func validToken(token string) bool {
	return len(token) >= 16 && !strings.ContainsAny(token, " \t\r\n")
}

// Dispatch sends a push for a notification of the given type. No-ops
// silently when the user is unknown, the token is absent or malformed, or
// the relevant preference flag is off. A provider rejection is logged and
// reported as a push-delivery error; callers must never fail the
// triggering operation because of it.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uint, nType models.NotificationType, title, body string, data map[string]string) error {
	user, err := d.users.GetUserByID(userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if !user.AllowsPush(nType) {
		return nil
	}
	if !validToken(user.PushToken) {
		return nil
	}

	msg := &messaging.Message{
		Token: user.PushToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := d.sender.Send(ctx, msg); err != nil {
		log.Printf("Push delivery to user %d failed: %v", userID, err)
		return apperr.PushDelivery("push provider rejected message", err)
	}
	return nil
}
