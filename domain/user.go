package domain

import (
	"context"
	"time"
)

// User is an account of the blog. Posts, comments and follow edges reference
// users and are removed together with them.
// Password and Remember are only ever held in memory; the database stores
// their hashes.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email        string `json:"-" gorm:"size:254"`
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"not null"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-" gorm:"not null;uniqueIndex"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(ctx context.Context, id uint) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	ByRemember(ctx context.Context, token string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error
	MakeRememberToken() (string, error)
}
