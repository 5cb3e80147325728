package domain

import "context"

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is the ID of the
// user that is being followed. A pair can exist only once, and the edge is removed
// together with either user.
type Follow struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	FollowerID uint `json:"-" gorm:"not null;uniqueIndex:idx_follow_pair"`
	Follower   User `json:"follower" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FollowedID uint `json:"-" gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	Followed   User `json:"followed" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Follow(ctx context.Context, actor *User, username string) (string, error)
	Unfollow(ctx context.Context, actor *User, username string) (string, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
}
