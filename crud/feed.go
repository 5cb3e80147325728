package crud

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blogFeed/domain"
	"blogFeed/errs"
	"blogFeed/paginate"
)

// FeedService builds paginated post feeds.
// It implements the domain.FeedService interface.
type FeedService struct {
	db *gorm.DB
}

// NewFeedService returns an instance of FeedService.
func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

var _ domain.FeedService = &FeedService{}

// A feedScope narrows the posts table down to the posts of one feed.
type feedScope func(db *gorm.DB) *gorm.DB

// GlobalPageNumber resolves raw to the page of the global feed it selects,
// without loading any posts.
func (fs *FeedService) GlobalPageNumber(ctx context.Context, raw string) (int, error) {
	pager, err := fs.paginator(ctx, allPosts)
	if err != nil {
		return 0, err
	}
	return pager.Number(raw), nil
}

func allPosts(db *gorm.DB) *gorm.DB { return db }

// Global returns a page of every post.
func (fs *FeedService) Global(ctx context.Context, page string) (*domain.Feed, error) {
	p, err := fs.page(ctx, page, allPosts)
	if err != nil {
		return nil, err
	}
	return &domain.Feed{Page: p}, nil
}

// Group returns a page of the posts tagged with the group identified by slug.
func (fs *FeedService) Group(ctx context.Context, slug, page string) (*domain.Feed, error) {
	var group domain.Group
	err := first(fs.db.WithContext(ctx).Where("slug = ?", slug), &group, "The group does not exist.")
	if err != nil {
		return nil, err
	}
	p, err := fs.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.group_id = ?", group.ID)
	})
	if err != nil {
		return nil, err
	}
	return &domain.Feed{Page: p, Group: &group}, nil
}

// Author returns a page of the posts written by username. When viewer is
// logged in, the feed also tells whether viewer follows the author.
func (fs *FeedService) Author(ctx context.Context, username string, viewer *domain.User, page string) (*domain.Feed, error) {
	var author domain.User
	err := first(fs.db.WithContext(ctx).Where("username = ?", username), &author, "The user does not exist.")
	if err != nil {
		return nil, err
	}
	p, err := fs.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", author.ID)
	})
	if err != nil {
		return nil, err
	}
	feed := &domain.Feed{Page: p, Author: &author, AuthorPostCount: p.Count}
	if viewer != nil && viewer.ID != author.ID {
		following, err := NewFollowService(fs.db).IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, err
		}
		feed.Following = following
	}
	return feed, nil
}

// Followed returns a page of the posts written by the authors viewer follows.
func (fs *FeedService) Followed(ctx context.Context, viewer *domain.User, page string) (*domain.Feed, error) {
	if viewer == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in to see the authors you follow.")
	}
	p, err := fs.page(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN follows ON follows.followed_id = posts.author_id").
			Where("follows.follower_id = ?", viewer.ID)
	})
	if err != nil {
		return nil, err
	}
	return &domain.Feed{Page: p}, nil
}

// page counts the posts in scope, resolves the requested page number and
// loads that page newest first.
func (fs *FeedService) page(ctx context.Context, raw string, scope feedScope) (paginate.Page[domain.Post], error) {
	pager, err := fs.paginator(ctx, scope)
	if err != nil {
		return paginate.Page[domain.Post]{}, err
	}
	number := pager.Number(raw)
	offset, limit := pager.Bounds(number)
	if limit == 0 {
		return paginate.NewPage[domain.Post](nil, number, pager), nil
	}

	var posts []domain.Post
	err = fs.db.WithContext(ctx).
		Model(&domain.Post{}).
		Scopes(scope).
		Select("posts.*").
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date desc").
		Order("posts.id desc").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return paginate.Page[domain.Post]{}, errors.Wrap(err, "loading feed")
	}
	return paginate.NewPage(posts, number, pager), nil
}

// paginator counts the posts of a feed.
func (fs *FeedService) paginator(ctx context.Context, scope feedScope) (paginate.Paginator, error) {
	var count int64
	err := fs.db.WithContext(ctx).
		Model(&domain.Post{}).
		Scopes(scope).
		Count(&count).Error
	if err != nil {
		return paginate.Paginator{}, errors.Wrap(err, "counting feed")
	}
	return paginate.New(count, paginate.PerPage), nil
}
