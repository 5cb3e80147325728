package crud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogFeed/domain"
	"blogFeed/errs"
	"blogFeed/logging"
)

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs authorship checks and validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	images domain.ImageService
	now    func() time.Time
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB, images domain.ImageService, now func() time.Time) *PostService {
	return &PostService{
		postValidator{
			images: images,
			now:    now,
			postGorm: postGorm{
				db: db,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// ProfilePath is where a client lands after publishing or deleting a post.
func ProfilePath(username string) string {
	return fmt.Sprintf("/profile/%s/", username)
}

// PostPath is the detail view of a post.
func PostPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// Create publishes a new post authored by actor. The publication time is taken
// from the service clock and never changes afterwards.
func (pv *postValidator) Create(ctx context.Context, actor *domain.User, in domain.PostInput) (*domain.Post, string, error) {
	if actor == nil {
		return nil, "", errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in to publish a post.")
	}
	post := &domain.Post{
		Text:     in.Text,
		GroupID:  in.GroupID,
		AuthorID: actor.ID,
		PubDate:  pv.now(),
	}
	err := runPostValFns(ctx, post,
		pv.textNormalize,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return nil, "", err
	}
	if in.Image != nil {
		ref, err := pv.saveImage(ctx, in.Image)
		if err != nil {
			return nil, "", err
		}
		post.Image = ref
	}
	if err := pv.postGorm.Create(ctx, post); err != nil {
		pv.discardImage(ctx, post.Image)
		return nil, "", err
	}
	created, err := pv.postGorm.ByID(ctx, post.ID)
	if err != nil {
		return nil, "", err
	}
	return created, ProfilePath(actor.Username), nil
}

// Update changes text, group and image of a post in place. Only the post's
// author may do that; the publication time is left untouched.
func (pv *postValidator) Update(ctx context.Context, actor *domain.User, id uint, in domain.PostInput) (*domain.Post, string, error) {
	existing, err := pv.owned(ctx, actor, id, "edit")
	if err != nil {
		return nil, "", err
	}
	post := &domain.Post{
		ID:       existing.ID,
		Text:     in.Text,
		GroupID:  in.GroupID,
		AuthorID: existing.AuthorID,
		PubDate:  existing.PubDate,
		Image:    existing.Image,
	}
	err = runPostValFns(ctx, post,
		pv.textNormalize,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return nil, "", err
	}

	obsolete := ""
	switch {
	case in.Image != nil:
		ref, err := pv.saveImage(ctx, in.Image)
		if err != nil {
			return nil, "", err
		}
		post.Image = ref
		obsolete = existing.Image
	case in.ClearImage:
		post.Image = ""
		obsolete = existing.Image
	}

	if err := pv.postGorm.Update(ctx, post); err != nil {
		if post.Image != existing.Image {
			pv.discardImage(ctx, post.Image)
		}
		return nil, "", err
	}
	pv.discardImage(ctx, obsolete)

	updated, err := pv.postGorm.ByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return updated, PostPath(id), nil
}

// Delete removes a post owned by actor together with its comments and image.
func (pv *postValidator) Delete(ctx context.Context, actor *domain.User, id uint) (string, error) {
	existing, err := pv.owned(ctx, actor, id, "delete")
	if err != nil {
		return "", err
	}
	if err := pv.postGorm.Delete(ctx, id); err != nil {
		return "", err
	}
	pv.discardImage(ctx, existing.Image)
	return ProfilePath(actor.Username), nil
}

// owned loads a post and makes sure actor is its author.
func (pv *postValidator) owned(ctx context.Context, actor *domain.User, id uint, action string) (*domain.Post, error) {
	if actor == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in to %s a post.", action)
	}
	post, err := pv.postGorm.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to %s this post.", action)
	}
	return post, nil
}

func (pv *postValidator) saveImage(ctx context.Context, up *domain.Upload) (string, error) {
	if pv.images == nil {
		return "", errs.Errorf(errs.EINTERNAL, "Image uploads are not configured.")
	}
	return pv.images.Save(ctx, up)
}

// discardImage removes a blob that is no longer referenced. Failures only leave
// an orphaned file behind, so they are logged and otherwise ignored.
func (pv *postValidator) discardImage(ctx context.Context, ref string) {
	if ref == "" || pv.images == nil {
		return
	}
	if err := pv.images.Delete(ctx, ref); err != nil {
		logging.Log.WithError(err).WithField("image", ref).Warn("could not remove post image")
	}
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(ctx context.Context, post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn func(ctx context.Context, post *domain.Post) error

func (pv *postValidator) textNormalize(ctx context.Context, post *domain.Post) error {
	post.Text = strings.TrimSpace(post.Text)
	return nil
}

// textRequired makes sure that the post's text is not empty.
func (pv *postValidator) textRequired(ctx context.Context, post *domain.Post) error {
	if post.Text == "" {
		return errs.Invalid("text", "Post text must not be empty.")
	}
	return nil
}

// groupExists makes sure that the group a post is tagged with actually exists.
// This check only runs if the post has a group.
func (pv *postValidator) groupExists(ctx context.Context, post *domain.Post) error {
	if post.GroupID == nil {
		return nil
	}
	var group domain.Group
	err := first(pv.db.WithContext(ctx).Where("id = ?", *post.GroupID), &group, "The group does not exist.")
	if errs.Is(err, errs.ENOTFOUND) {
		return errs.Invalid("group", "Select a valid group. That choice is not one of the available choices.")
	}
	return err
}

// ByID retrieves a single Post by ID, along with its author and group.
func (pg *postGorm) ByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	db := pg.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("id = ?", id)
	if err := first(db, &post, "The post does not exist."); err != nil {
		return nil, err
	}
	return &post, nil
}

// Detail retrieves a Post with its comments, newest comment first, and the
// number of posts its author has published.
func (pg *postGorm) Detail(ctx context.Context, id uint) (*domain.PostDetail, error) {
	post, err := pg.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := listComments(ctx, pg.db, id)
	if err != nil {
		return nil, err
	}
	count, err := pg.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return &domain.PostDetail{Post: *post, Comments: comments, AuthorPostCount: count}, nil
}

// CountByAuthor returns how many posts a user has published.
func (pg *postGorm) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := pg.db.WithContext(ctx).Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "counting posts")
	}
	return count, nil
}

// Create stores the data from the Post object in a new database record.
// Associations are only referenced by id and never written through the post.
func (pg *postGorm) Create(ctx context.Context, post *domain.Post) error {
	err := pg.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
	return errors.Wrap(err, "creating post")
}

// Update writes the author-editable columns of a post.
func (pg *postGorm) Update(ctx context.Context, post *domain.Post) error {
	err := pg.db.WithContext(ctx).
		Model(&domain.Post{ID: post.ID}).
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	return errors.Wrap(err, "updating post")
}

// Delete permanently deletes a post. Its comments go with it.
func (pg *postGorm) Delete(ctx context.Context, id uint) error {
	return errors.Wrap(pg.db.WithContext(ctx).Delete(&domain.Post{}, id).Error, "deleting post")
}
