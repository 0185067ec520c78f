package users

import (
	"context"
	"strings"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UserServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type RegisterRequest struct {
	Email       string
	Username    string
	DisplayName string
	Password    string
}

// UserService keeps the user records of the local ledger. Passwords are
// stored as bcrypt hashes only.
type UserService struct {
	store *local.Store
	cost  int
	now   func() time.Time
}

func NewUserService(store *local.Store) *UserService {
	return &UserService{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Public strips the password hash before a user leaves the service boundary.
func Public(u models.User) models.User {
	u.PasswordHash = ""
	return u
}

func IdentityOf(u models.User) pkgmodels.Identity {
	return pkgmodels.Identity{Email: u.Email, Username: u.Username, DisplayName: u.DisplayName}
}

// Register adds a user. Emails are unique, compared case-insensitively.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	user := models.User{
		Email:       normalizeEmail(req.Email),
		Username:    strings.TrimSpace(req.Username),
		DisplayName: strings.TrimSpace(req.DisplayName),
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if err := utils.ValidateStruct(user); err != nil {
		return models.User{}, err
	}
	if len(req.Password) < minPasswordLength {
		return models.User{}, error_handling.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = string(hash)

	err = s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if _, exists := local.Users.Find(snap, user.Email); exists {
			return error_handling.NewValidationError("email", "already registered")
		}
		local.Users.Append(snap, user)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return Public(user), nil
}

// Authenticate checks the password and returns the user. Unknown emails and
// wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.find(ctx, email)
	if err != nil && !error_handling.IsNotFound(err) {
		return models.User{}, err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, error_handling.NewAuthenticationRequiredError("login")
	}
	return Public(user), nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.find(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	return Public(user), nil
}

// Record returns the stored user including its password hash, for callers
// that must persist it elsewhere.
func (s *UserService) Record(ctx context.Context, email string) (models.User, error) {
	return s.find(ctx, email)
}

func (s *UserService) find(ctx context.Context, email string) (models.User, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	key := normalizeEmail(email)
	user, ok := local.Users.Find(snap, key)
	if !ok {
		return models.User{}, error_handling.NewNotFoundError(consts.UsersCollection, key)
	}
	return user, nil
}
