package domain

import (
	"context"
	"time"
)

// Comment is a reply attached to exactly one post. It goes away with its
// post and with its author.
type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Created  time.Time `json:"created" gorm:"not null;index"`
	AuthorID uint      `json:"-" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PostID   uint      `json:"post_id" gorm:"not null;index"`
	Post     Post      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// String returns the comment's text.
func (c Comment) String() string {
	return c.Text
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	ByPost(ctx context.Context, postID uint) ([]Comment, error)
	Create(ctx context.Context, actor *User, postID uint, text string) (*Comment, string, error)
}
