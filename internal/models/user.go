package models

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/password"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
)

// User is the single account record. Salt and HashedPassword are only ever
// written together through SetPassword.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email             string         `gorm:"not null;size:255;uniqueIndex:idx_users_email" json:"email"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Salt              string         `gorm:"size:64" json:"-"`
	HashedPassword    string         `gorm:"not null" json:"-"`
	Role              string         `gorm:"size:20;default:'normal'" json:"role"`
	ResetPasswordLink string         `gorm:"type:text;index;default:''" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewUser builds a record for a freshly activated or federated account.
func NewUser(name, email, plain string) *User {
	u := &User{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
		Role:  RoleNormal,
	}
	u.SetPassword(plain)
	return u
}

// SetPassword derives a new salt and digest for plain.
func (u *User) SetPassword(plain string) {
	u.Salt = password.MakeSalt()
	u.HashedPassword = password.Hash(plain, u.Salt)
}

// Authenticate reports whether plain matches the stored digest.
func (u *User) Authenticate(plain string) bool {
	return password.Authenticate(plain, u.Salt, u.HashedPassword)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// BeforeSave normalises identity fields on every insert and update.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = RoleNormal
	}
	return nil
}

// NormalizeEmail trims and lowercases an address so lookups match storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
