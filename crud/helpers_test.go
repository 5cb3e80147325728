package crud

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogFeed/domain"
	"blogFeed/storage"
)

// testClock hands out strictly increasing times, one minute apart.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2022, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// Last returns the time handed out most recently.
func (c *testClock) Last() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// newTestDB opens a private in-memory sqlite database with foreign keys
// enforced, so cascades behave like they do on postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fixture struct {
	*Services
	clock     *testClock
	mediaRoot string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newTestClock()
	mediaRoot := t.TempDir()
	services, err := NewServices(newTestDB(t),
		WithClock(clock.Now),
		WithImage(storage.NewImageService(mediaRoot)),
		WithUser("test-pepper", "test-hmac-key"),
		WithGroup(),
		WithPost(),
		WithComment(),
		WithFollow(),
		WithFeed(),
	)
	require.NoError(t, err)
	require.NoError(t, services.AutoMigrate())
	return &fixture{Services: services, clock: clock, mediaRoot: mediaRoot}
}

// user inserts a user straight into the database, skipping the slow password hashing.
func (f *fixture) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		RememberHash: "remember-" + username,
	}
	require.NoError(t, f.DB().Create(u).Error)
	return u
}

func (f *fixture) group(t *testing.T, slug string) *domain.Group {
	t.Helper()
	g := &domain.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, f.Group.Create(context.Background(), g))
	return g
}

func (f *fixture) post(t *testing.T, author *domain.User, text string, group *domain.Group) *domain.Post {
	t.Helper()
	in := domain.PostInput{Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, _, err := f.Post.Create(context.Background(), author, in)
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.DB().Model(model).Count(&n).Error)
	return n
}

// pngUpload returns a tiny valid png image.
func pngUpload(t *testing.T, name string) *domain.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &domain.Upload{Filename: name, File: bytes.NewReader(buf.Bytes())}
}

func texts(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Text
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
