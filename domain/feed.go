package domain

import (
	"context"

	"blogFeed/paginate"
)

// Feed is one page of posts scoped to a context. Group is set for group feeds,
// Author for author feeds.
type Feed struct {
	Page            paginate.Page[Post] `json:"page_obj"`
	Group           *Group              `json:"group,omitempty"`
	Author          *User               `json:"author,omitempty"`
	AuthorPostCount int64               `json:"author_post_count,omitempty"`
	Following       bool                `json:"following,omitempty"`
}

// FeedService builds feeds. Every feed is ordered newest first and paginated
// with paginate.PerPage posts per page; page is the raw page parameter.
type FeedService interface {
	Global(ctx context.Context, page string) (*Feed, error)
	// GlobalPageNumber resolves a raw page parameter against the current
	// size of the global feed.
	GlobalPageNumber(ctx context.Context, page string) (int, error)
	Group(ctx context.Context, slug, page string) (*Feed, error)
	Author(ctx context.Context, username string, viewer *User, page string) (*Feed, error)
	Followed(ctx context.Context, viewer *User, page string) (*Feed, error)
}
