package domain

import (
	"context"
	"time"
)

// PostStringLength is how many characters of its text a post shows in listings.
const PostStringLength = 15

// Post is a unit of published content.
//
// The author is fixed at creation and deleting the author deletes the post.
// The group is optional; deleting the group only clears GroupID. PubDate is set
// once on creation and is the ordering key of every feed. Image holds an opaque
// blob reference handed out by an ImageService.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"not null;index"`
	AuthorID uint      `json:"-" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GroupID  *uint     `json:"-" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Image    string    `json:"image,omitempty" gorm:"size:255"`

	UpdatedAt time.Time `json:"-"`
}

// String returns the beginning of the post's text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > PostStringLength {
		return string(r[:PostStringLength])
	}
	return p.Text
}

// PostInput is the author-editable part of a Post, as submitted through a form.
// A nil GroupID means "no group". Image replaces the current image if set;
// ClearImage removes it.
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      *Upload
	ClearImage bool
}

// PostDetail is a single post with its comments and some context about its author.
type PostDetail struct {
	Post            Post      `json:"post"`
	Comments        []Comment `json:"comments"`
	AuthorPostCount int64     `json:"author_post_count"`
}

// PostService is a set of methods to manipulate and work with the Post model.
// Write operations take the acting user, which is nil for anonymous requests,
// and return the path the client should be redirected to on success.
type PostService interface {
	ByID(ctx context.Context, id uint) (*Post, error)
	Detail(ctx context.Context, id uint) (*PostDetail, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	Create(ctx context.Context, actor *User, in PostInput) (*Post, string, error)
	Update(ctx context.Context, actor *User, id uint, in PostInput) (*Post, string, error)
	Delete(ctx context.Context, actor *User, id uint) (string, error)
}
