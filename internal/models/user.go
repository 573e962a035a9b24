package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                 uuid.UUID        `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
	Name               string           `gorm:"not null" json:"name"`
	Email              string           `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string           `gorm:"not null" json:"-"`
	DietaryPreferences JSONBStringArray `gorm:"type:jsonb" json:"dietary_preferences"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.DietaryPreferences == nil {
		u.DietaryPreferences = JSONBStringArray{}
	}
	return nil
}

// All returns every model managed by migrations, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Recipe{},
		&RecipeRating{},
	}
}
