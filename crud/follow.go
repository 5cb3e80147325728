package crud

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogFeed/domain"
	"blogFeed/errs"
)

// FollowService manages Follow edges.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

type followValidator struct {
	followGorm
}

type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

var _ domain.FollowService = &FollowService{}

// Follow subscribes actor to the author with the given username. Following an
// author twice leaves a single edge behind.
func (fv *followValidator) Follow(ctx context.Context, actor *domain.User, username string) (string, error) {
	follow, err := fv.edge(ctx, actor, username, "follow")
	if err != nil {
		return "", err
	}
	err = runFollowValFns(ctx, follow, fv.followedIsNotFollower)
	if err != nil {
		return "", err
	}
	if err := fv.followGorm.Create(ctx, follow); err != nil {
		return "", err
	}
	return ProfilePath(username), nil
}

// Unfollow removes the edge from actor to the author with the given username.
// Removing an edge that does not exist is a no-op.
func (fv *followValidator) Unfollow(ctx context.Context, actor *domain.User, username string) (string, error) {
	follow, err := fv.edge(ctx, actor, username, "unfollow")
	if err != nil {
		return "", err
	}
	if err := fv.followGorm.Delete(ctx, follow); err != nil {
		return "", err
	}
	return ProfilePath(username), nil
}

// edge resolves the participants of a follow action.
func (fv *followValidator) edge(ctx context.Context, actor *domain.User, username, action string) (*domain.Follow, error) {
	if actor == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in to %s an author.", action)
	}
	var followed domain.User
	err := first(fv.db.WithContext(ctx).Where("username = ?", username), &followed, "The user does not exist.")
	if err != nil {
		return nil, err
	}
	return &domain.Follow{FollowerID: actor.ID, FollowedID: followed.ID}, nil
}

func runFollowValFns(ctx context.Context, follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, follow); err != nil {
			return err
		}
	}
	return nil
}

type followValFn func(ctx context.Context, follow *domain.Follow) error

func (fv *followValidator) followedIsNotFollower(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Invalid("username", "You cannot follow yourself.")
	}
	return nil
}

// IsFollowing reports whether an edge from followerID to followedID exists.
func (fg *followGorm) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "looking up follow")
	}
	return count > 0, nil
}

// Create inserts the edge unless the pair already exists.
func (fg *followGorm) Create(ctx context.Context, follow *domain.Follow) error {
	err := fg.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
	return errors.Wrap(err, "creating follow")
}

// Delete removes the edge between the pair, if there is one.
func (fg *followGorm) Delete(ctx context.Context, follow *domain.Follow) error {
	err := fg.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{}).Error
	return errors.Wrap(err, "deleting follow")
}
