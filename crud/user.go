package crud

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blogFeed/domain"
	"blogFeed/errs"
)

// UserService manages Users. It also contains the part of the authentication system
// that handles database interactions and token creation / hashing. It's basically
// the "backend" of the auth system, with http/auth.go dealing with requests, middleware
// and cookies being the "frontend". It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	hmac          HMAC
	pepper        string
	usernameRegex *regexp.Regexp
	emailRegex    *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper, hmacKey string) *UserService {
	return &UserService{
		userValidator{
			hmac:          newHMAC(hmacKey),
			pepper:        pepper,
			usernameRegex: regexp.MustCompile(`^[\w.@+\-]+$`),
			emailRegex:    regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password for existence and correctness.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	// Look for a user database record with the submitted username.
	found, err := uv.userGorm.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.Is(err, errs.ENOTFOUND) {
			return nil, errs.Invalid("username", "The username does not exist in our database.")
		}
		return nil, err
	}

	// Append the pepper to the submitted password and compare it to the stored hash.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errs.Invalid("password", "The password is incorrect.")
		}
		return nil, err
	}
	return found, nil
}

// MakeRememberToken is helper to generate remember tokens of a predetermined byte size.
func (uv *userValidator) MakeRememberToken() (string, error) {
	return bytesToString(RememberTokenBytes)
}

// ByRemember hashes the remember token and passes the hash on to userGorm.ByRemember.
func (uv *userValidator) ByRemember(ctx context.Context, token string) (*domain.User, error) {
	user := domain.User{
		Remember: token,
	}
	if err := runUserValFns(ctx, &user, uv.rememberHmac); err != nil {
		return nil, err
	}
	return uv.userGorm.ByRemember(ctx, user.RememberHash)
}

// Create runs validations needed for creating new User database records.
// It will create a remember token if none is provided.
func (uv *userValidator) Create(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameFormat,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailFormat,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberSetIfUnset,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(ctx, user)
}

// Update runs validations needed for updating a User record in the database.
// It will hash a remember token if it is provided (and will not return an error if it's not).
func (uv *userValidator) Update(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameFormat,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailFormat,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(ctx, user)
}

// Delete makes sure the user exists before removing it.
func (uv *userValidator) Delete(ctx context.Context, id uint) error {
	if _, err := uv.userGorm.ByID(ctx, id); err != nil {
		return err
	}
	return uv.userGorm.Delete(ctx, id)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

func (uv *userValidator) usernameNormalize(ctx context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

func (uv *userValidator) usernameRequired(ctx context.Context, user *domain.User) error {
	if user.Username == "" {
		return errs.Invalid("username", "A username is required.")
	}
	return nil
}

// usernameFormat allows letters, digits and @/./+/-/_ only, at most 150 characters.
func (uv *userValidator) usernameFormat(ctx context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Username) > 150 || !uv.usernameRegex.MatchString(user.Username) {
		return errs.Invalid("username", "The username may contain only letters, digits and @/./+/-/_ characters.")
	}
	return nil
}

// usernameIsAvail makes sure that a provided username is not yet taken.
func (uv *userValidator) usernameIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.ByUsername(ctx, user.Username)
	if errs.Is(err, errs.ENOTFOUND) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.ID != existing.ID {
		return errs.Invalid("username", "This username is already taken.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.Email = strings.TrimSpace(user.Email)
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
// The email address is optional.
func (uv *userValidator) emailFormat(ctx context.Context, user *domain.User) error {
	if user.Email == "" {
		return nil
	}
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Invalid("email", "The email address is invalid.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory.
func (uv *userValidator) passwordBcrypt(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

func (uv *userValidator) passwordHashRequired(ctx context.Context, user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Invalid("password", "A password is required.")
	}
	return nil
}

// passwordMinLength makes sure that the user's password is at least 8 characters long.
func (uv *userValidator) passwordMinLength(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	if utf8.RuneCountInString(user.Password) < 8 {
		return errs.Invalid("password", "The password must have at least 8 characters.")
	}
	return nil
}

func (uv *userValidator) passwordRequired(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return errs.Invalid("password", "A password is required.")
	}
	return nil
}

func (uv *userValidator) rememberHashRequired(ctx context.Context, user *domain.User) error {
	if user.RememberHash == "" {
		return errs.Errorf(errs.EINTERNAL, "A remember token hash is required.")
	}
	return nil
}

// rememberHmac creates the user's remember token hash, if a remember token has been provided.
func (uv *userValidator) rememberHmac(ctx context.Context, user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	user.RememberHash = uv.hmac.hash(user.Remember)
	return nil
}

// rememberMinBytes makes sure that the user's remember token is not too short.
func (uv *userValidator) rememberMinBytes(ctx context.Context, user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	n, err := nBytes(user.Remember)
	if err != nil {
		return err
	}
	if n < RememberTokenBytes {
		return errs.Errorf(errs.EINTERNAL, "The remember token must be at least %d bytes.", RememberTokenBytes)
	}
	return nil
}

func (uv *userValidator) rememberSetIfUnset(ctx context.Context, user *domain.User) error {
	if user.Remember != "" {
		return nil
	}
	token, err := uv.MakeRememberToken()
	if err != nil {
		return err
	}
	user.Remember = token
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.WithContext(ctx).Where("id = ?", id), &user, "The user does not exist.")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by username.
func (ug *userGorm) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.WithContext(ctx).Where("username = ?", username), &user, "The user does not exist.")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByRemember retrieves a User database record by its hashed remember token.
// auth.UserMw calls this on every request, trying to identify a user by matching
// a request cookie's remember token to a hashed remember token in the database.
func (ug *userGorm) ByRemember(ctx context.Context, rememberHash string) (*domain.User, error) {
	var user domain.User
	err := first(ug.db.WithContext(ctx).Where("remember_hash = ?", rememberHash), &user, "The user does not exist.")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create stores the data from the User object in a new database record.
// A concurrent signup that took the username first surfaces as ECONFLICT.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return errs.Conflict("username", "This username is already taken.")
	}
	return errors.Wrap(err, "creating user")
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(ctx context.Context, user *domain.User) error {
	return errors.Wrap(ug.db.WithContext(ctx).Save(user).Error, "updating user")
}

// Delete removes the user. The database cascades the delete to the user's
// posts, comments and follow edges.
func (ug *userGorm) Delete(ctx context.Context, id uint) error {
	return errors.Wrap(ug.db.WithContext(ctx).Delete(&domain.User{}, id).Error, "deleting user")
}

// first is a helper for getting the first database record that matches a given query.
// A missing record becomes an ENOTFOUND error carrying msg.
func first(db *gorm.DB, dst interface{}, msg string) error {
	err := db.First(dst).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Errorf(errs.ENOTFOUND, msg)
	}
	return errors.Wrap(err, "querying database")
}

// isUniqueViolation tells whether err is a unique index violation reported by
// postgres or sqlite.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// HMAC is a wrapper around the crypto/hmac package making it easier to use.
// A hash.Hash is not safe for concurrent use, hence the mutex.
type HMAC struct {
	mu   *sync.Mutex
	hmac hash.Hash
}

// newHMAC creates and returns a new HMAC object.
func newHMAC(key string) HMAC {
	h := hmac.New(sha256.New, []byte(key))
	return HMAC{
		mu:   &sync.Mutex{},
		hmac: h,
	}
}

// hash hashes an input string using HMAC with the secret key
// provided when the HMAC object was created in NewUserService.
func (h HMAC) hash(input string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hmac.Reset()
	h.hmac.Write([]byte(input))
	b := h.hmac.Sum(nil)
	return base64.URLEncoding.EncodeToString(b)
}

// RememberTokenBytes is the size of freshly generated remember tokens.
const RememberTokenBytes = 32

// randomBytes generates n random bytes or returns an error. It uses the
// crypto/rand package, so it can be used for things like remember tokens.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// nBytes returns the number of bytes used in a base64 URL encoded string.
func nBytes(base64String string) (int, error) {
	b, err := base64.URLEncoding.DecodeString(base64String)
	if err != nil {
		return -1, err
	}
	return len(b), nil
}

// bytesToString generates a byte slice of size nBytes and then returns a
// string that is the base64 URL encoded version of that byte slice.
func bytesToString(nBytes int) (string, error) {
	b, err := randomBytes(nBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
