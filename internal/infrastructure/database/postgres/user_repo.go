package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/user"
)

// UserModel is the database model for users
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Role      string    `gorm:"type:varchar(20);index;not null"`
	Region    string    `gorm:"type:varchar(20)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for users
func (UserModel) TableName() string {
	return "users"
}

// UserRepository implements user.Repository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{db: client.DB()}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return modelToUser(&model), nil
}

// ListByRoles returns users holding any of the given roles
func (r *UserRepository) ListByRoles(ctx context.Context, roles ...user.Role) ([]*user.User, error) {
	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}
	var models []UserModel
	if err := r.db.WithContext(ctx).Where("role IN ?", values).Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]*user.User, len(models))
	for i, m := range models {
		users[i] = modelToUser(&m)
	}
	return users, nil
}

func modelToUser(m *UserModel) *user.User {
	return &user.User{
		ID:        m.ID,
		Name:      m.Name,
		Role:      user.Role(m.Role),
		Region:    user.Region(m.Region),
		CreatedAt: m.CreatedAt,
	}
}
