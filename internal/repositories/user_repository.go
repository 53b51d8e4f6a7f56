package repositories

import (
	"errors"

	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdatePushToken(id uint, token string) error
	UpdatePreferences(id uint, req *models.UpdatePreferencesRequest) (*models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Transient("failed to load user", err)
	}
	return &user, nil
}

// UpdateUser saves changes to an existing user
func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdatePushToken stores the user's device push token. An empty token
// clears the registration.
func (r *PostgresUserRepository) UpdatePushToken(id uint, token string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("push_token", token)
	if res.Error != nil {
		return apperr.Transient("failed to update push token", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// UpdatePreferences applies the provided preference toggles and returns
// the updated user. Nil fields are left unchanged.
func (r *PostgresUserRepository) UpdatePreferences(id uint, req *models.UpdatePreferencesRequest) (*models.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	if req.NotificationsEnabled != nil {
		user.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.ReportUpdates != nil {
		user.NotificationPreferences.ReportUpdates = *req.ReportUpdates
	}
	if req.RecyclingTips != nil {
		user.NotificationPreferences.RecyclingTips = *req.RecyclingTips
	}
	if req.SystemNotifications != nil {
		user.NotificationPreferences.SystemNotifications = *req.SystemNotifications
	}

	if err := r.db.Save(user).Error; err != nil {
		return nil, apperr.Transient("failed to update preferences", err)
	}
	return user, nil
}
