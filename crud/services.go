package crud

import (
	"time"

	"gorm.io/gorm"

	"blogFeed/domain"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// The crud services all share the database connection and the clock provided by Services.
type Services struct {
	db      *gorm.DB
	now     func() time.Time
	User    *UserService
	Group   *GroupService
	Post    *PostService
	Comment *CommentService
	Follow  *FollowService
	Feed    *FeedService
	Image   domain.ImageService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
// WithClock and WithImage must come before the services that use them.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db:  db,
		now: time.Now,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// DB returns the database connection shared by the services.
func (s *Services) DB() *gorm.DB {
	return s.db
}

// WithClock replaces the clock used to stamp posts and comments.
func WithClock(now func() time.Time) ServicesConfig {
	return func(s *Services) error {
		s.now = now
		return nil
	}
}

// WithImage sets the image store posts keep their images in.
func WithImage(is domain.ImageService) ServicesConfig {
	return func(s *Services) error {
		s.Image = is
		return nil
	}
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper, hmacKey string) ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db, pepper, hmacKey)
		return nil
	}
}

// WithGroup wraps the constructor of GroupService, NewGroupService.
func WithGroup() ServicesConfig {
	return func(s *Services) error {
		s.Group = NewGroupService(s.db)
		return nil
	}
}

// WithPost wraps the constructor of PostService, NewPostService.
func WithPost() ServicesConfig {
	return func(s *Services) error {
		s.Post = NewPostService(s.db, s.Image, s.now)
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment() ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db, s.now)
		return nil
	}
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db)
		return nil
	}
}

// WithFeed wraps the constructor of FeedService, NewFeedService.
func WithFeed() ServicesConfig {
	return func(s *Services) error {
		s.Feed = NewFeedService(s.db)
		return nil
	}
}

// AutoMigrate runs database migrations for all tables.
func (s *Services) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.Group{},
		&domain.Post{},
		&domain.Comment{},
		&domain.Follow{},
	)
}

// DestructiveReset drops all tables and rebuilds them.
func (s *Services) DestructiveReset() error {
	err := s.db.Migrator().DropTable(
		&domain.Follow{},
		&domain.Comment{},
		&domain.Post{},
		&domain.Group{},
		&domain.User{},
	)
	if err != nil {
		return err
	}
	return s.AutoMigrate()
}
