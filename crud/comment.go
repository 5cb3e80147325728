package crud

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogFeed/domain"
	"blogFeed/errs"
)

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

type commentValidator struct {
	now func() time.Time
	commentGorm
}

type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB, now func() time.Time) *CommentService {
	return &CommentService{
		commentValidator{
			now: now,
			commentGorm: commentGorm{
				db: db,
			},
		},
	}
}

var _ domain.CommentService = &CommentService{}

// Create adds a comment by actor to the post with postID. Anonymous actors are
// rejected before anything is looked up.
func (cv *commentValidator) Create(ctx context.Context, actor *domain.User, postID uint, text string) (*domain.Comment, string, error) {
	if actor == nil {
		return nil, "", errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in to comment.")
	}
	comment := &domain.Comment{
		Text:     text,
		AuthorID: actor.ID,
		PostID:   postID,
		Created:  cv.now(),
	}
	err := runCommentValFns(ctx, comment,
		cv.postExists,
		cv.textRequired)
	if err != nil {
		return nil, "", err
	}
	if err := cv.commentGorm.Create(ctx, comment); err != nil {
		return nil, "", err
	}
	comment.Author = *actor
	return comment, PostPath(postID), nil
}

func runCommentValFns(ctx context.Context, comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, comment); err != nil {
			return err
		}
	}
	return nil
}

type commentValFn func(ctx context.Context, comment *domain.Comment) error

// postExists makes sure that the commented post actually exists.
func (cv *commentValidator) postExists(ctx context.Context, comment *domain.Comment) error {
	var post domain.Post
	return first(cv.db.WithContext(ctx).Where("id = ?", comment.PostID), &post, "The post does not exist.")
}

// textRequired makes sure that the comment is not empty.
func (cv *commentValidator) textRequired(ctx context.Context, comment *domain.Comment) error {
	comment.Text = strings.TrimSpace(comment.Text)
	if comment.Text == "" {
		return errs.Invalid("text", "Comment text must not be empty.")
	}
	return nil
}

// ByPost lists the comments of a post, newest first.
func (cg *commentGorm) ByPost(ctx context.Context, postID uint) ([]domain.Comment, error) {
	return listComments(ctx, cg.db, postID)
}

func listComments(ctx context.Context, db *gorm.DB, postID uint) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created desc").
		Order("id desc").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}
	return comments, nil
}

// Create stores the data from the Comment object in a new database record.
func (cg *commentGorm) Create(ctx context.Context, comment *domain.Comment) error {
	err := cg.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
	return errors.Wrap(err, "creating comment")
}
