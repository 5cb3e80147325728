package crud

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blogFeed/domain"
	"blogFeed/errs"
)

// GroupService manages Groups.
// It implements the domain.GroupService interface.
type GroupService struct {
	groupValidator
}

type groupValidator struct {
	slugRegex *regexp.Regexp
	groupGorm
}

type groupGorm struct {
	db *gorm.DB
}

// NewGroupService returns an instance of GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{
		groupValidator{
			slugRegex: regexp.MustCompile(`^[-a-zA-Z0-9_]+$`),
			groupGorm: groupGorm{
				db: db,
			},
		},
	}
}

var _ domain.GroupService = &GroupService{}

// Create runs validations needed for creating new Group database records.
func (gv *groupValidator) Create(ctx context.Context, group *domain.Group) error {
	err := runGroupValFns(ctx, group,
		gv.titleRequired,
		gv.titleMaxLength,
		gv.slugNormalize,
		gv.slugFormat,
		gv.slugIsAvail)
	if err != nil {
		return err
	}
	return gv.groupGorm.Create(ctx, group)
}

// Delete makes sure the group exists before removing it.
func (gv *groupValidator) Delete(ctx context.Context, slug string) error {
	group, err := gv.groupGorm.BySlug(ctx, slug)
	if err != nil {
		return err
	}
	return gv.groupGorm.Delete(ctx, group.ID)
}

func runGroupValFns(ctx context.Context, group *domain.Group, fns ...groupValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

type groupValFn func(ctx context.Context, group *domain.Group) error

func (gv *groupValidator) titleRequired(ctx context.Context, group *domain.Group) error {
	group.Title = strings.TrimSpace(group.Title)
	if group.Title == "" {
		return errs.Invalid("title", "A group title is required.")
	}
	return nil
}

func (gv *groupValidator) titleMaxLength(ctx context.Context, group *domain.Group) error {
	if utf8.RuneCountInString(group.Title) > 200 {
		return errs.Invalid("title", "The group title must not have more than 200 characters.")
	}
	return nil
}

func (gv *groupValidator) slugNormalize(ctx context.Context, group *domain.Group) error {
	group.Slug = strings.TrimSpace(group.Slug)
	return nil
}

// slugFormat makes sure the slug is URL safe and at most 100 characters long.
func (gv *groupValidator) slugFormat(ctx context.Context, group *domain.Group) error {
	if len(group.Slug) > 100 || !gv.slugRegex.MatchString(group.Slug) {
		return errs.Invalid("slug", "The slug may contain only letters, digits, hyphens and underscores.")
	}
	return nil
}

func (gv *groupValidator) slugIsAvail(ctx context.Context, group *domain.Group) error {
	_, err := gv.groupGorm.BySlug(ctx, group.Slug)
	if errs.Is(err, errs.ENOTFOUND) {
		return nil
	}
	if err != nil {
		return err
	}
	return errs.Invalid("slug", "A group with this slug already exists.")
}

// ByID retrieves a Group by ID.
func (gg *groupGorm) ByID(ctx context.Context, id uint) (*domain.Group, error) {
	var group domain.Group
	if err := first(gg.db.WithContext(ctx).Where("id = ?", id), &group, "The group does not exist."); err != nil {
		return nil, err
	}
	return &group, nil
}

// BySlug retrieves a Group by its slug.
func (gg *groupGorm) BySlug(ctx context.Context, slug string) (*domain.Group, error) {
	var group domain.Group
	if err := first(gg.db.WithContext(ctx).Where("slug = ?", slug), &group, "The group does not exist."); err != nil {
		return nil, err
	}
	return &group, nil
}

// All lists every group ordered by title, for group pickers.
func (gg *groupGorm) All(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	err := gg.db.WithContext(ctx).Order("title asc").Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing groups")
	}
	return groups, nil
}

// Create stores the data from the Group object in a new database record.
func (gg *groupGorm) Create(ctx context.Context, group *domain.Group) error {
	err := gg.db.WithContext(ctx).Create(group).Error
	if isUniqueViolation(err) {
		return errs.Conflict("slug", "A group with this slug already exists.")
	}
	return errors.Wrap(err, "creating group")
}

// Delete removes the group. Its posts survive with their group cleared.
func (gg *groupGorm) Delete(ctx context.Context, id uint) error {
	return errors.Wrap(gg.db.WithContext(ctx).Delete(&domain.Group{}, id).Error, "deleting group")
}
