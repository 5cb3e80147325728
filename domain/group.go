package domain

import "context"

// Group is a topical category posts can be tagged with. Groups are created by
// an administrator and are not changed afterwards.
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null"`
	Slug        string `json:"slug" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:text;not null"`
}

// String returns the group's display name.
func (g Group) String() string {
	return g.Title
}

// GroupService is a set of methods to manipulate and work with the Group model.
type GroupService interface {
	ByID(ctx context.Context, id uint) (*Group, error)
	BySlug(ctx context.Context, slug string) (*Group, error)
	All(ctx context.Context) ([]Group, error)
	Create(ctx context.Context, group *Group) error
	Delete(ctx context.Context, slug string) error
}
