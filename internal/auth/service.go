package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/models"
)

const (
	minPasswordLen = 6
	// bcrypt only hashes the first 72 bytes and rejects longer input
	maxPasswordBytes = 72
)

var errPasswordTooLong = apperr.Validation("Şifrə 72 baytdan uzun ola bilməz")

type Options struct {
	JWTSecret   string
	Issuer      string
	TokenTTL    time.Duration
	AdminSecret string
	// bound for every user-store call
	Timeout time.Duration
}

// Service is the identity and token service: it provisions admin accounts
// behind a shared secret, logs them in and verifies bearer tokens.
type Service struct {
	repo *Repo
	opts Options
	log  *slog.Logger
}

func NewService(repo *Repo, opts Options, log *slog.Logger) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, opts: opts, log: log}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	AdminSecret string
}

// Session is what register and login hand back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Identity is the verified content of a token.
type Identity struct {
	UserID    string
	ExpiresAt time.Time
}

var errBadCredentials = apperr.Unauthenticated("Email və ya şifrə yanlışdır")

const msgBadToken = "Etibarsız token"

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("Ad, email və şifrə tələb olunur")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("Email formatı yanlışdır")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, apperr.Validation("Şifrə ən azı 6 simvol olmalıdır")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, errPasswordTooLong
	}
	// secret first: a wrong secret must never touch the user table
	if subtle.ConstantTimeCompare([]byte(in.AdminSecret), []byte(s.opts.AdminSecret)) != 1 {
		return nil, apperr.Forbidden("Admin kodu yanlışdır")
	}

	u, err := s.createUser(ctx, name, email, in.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// CreateAdmin provisions an admin without the shared secret. Used by the
// operator CLI only.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || utf8.RuneCountInString(password) < minPasswordLen {
		return nil, apperr.Validation("Ad, email və ən azı 6 simvolluq şifrə tələb olunur")
	}
	if len(password) > maxPasswordBytes {
		return nil, errPasswordTooLong
	}
	return s.createUser(ctx, name, email, password, models.RoleAdmin)
}

func (s *Service) createUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, s.storeErr("check email", err)
	}
	if exists {
		return nil, apperr.Conflict("Bu email artıq qeydiyyatdan keçib")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "şifrə emal edilə bilmədi", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race against a concurrent register with the same email
		if exists, checkErr := s.repo.EmailExists(ctx, email); checkErr == nil && exists {
			return nil, apperr.Conflict("Bu email artıq qeydiyyatdan keçib")
		}
		return nil, s.storeErr("create user", err)
	}
	s.log.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errBadCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, s.storeErr("load user", err)
	}
	if !CheckPassword(u.PasswordHash, password) || u.IsBlocked {
		return nil, errBadCredentials
	}
	return s.issue(u)
}

// Verify checks signature and expiry only; it never touches storage.
func (s *Service) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Unauthenticated("Giriş tələb olunur")
	}
	claims, err := ParseJWT(token, s.opts.Issuer, s.opts.JWTSecret)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, msgBadToken, err)
	}
	id := &Identity{UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// CurrentUser resolves a token to its user. A user deleted after the token
// was issued yields NotFound until the token expires.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	ident, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.userByID(ctx, ident.UserID)
}

func (s *Service) userByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("İstifadəçi tapılmadı")
		}
		return nil, s.storeErr("load user", err)
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeErr("list users", err)
	}
	return users, nil
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, s.storeErr("count users", err)
	}
	return n, nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperr.Validation("Öz hesabınızı silə bilməzsiniz")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperr.NotFound("İstifadəçi tapılmadı")
		}
		return s.storeErr("delete user", err)
	}
	s.log.Info("user deleted", "user_id", id, "by", actorID)
	return nil
}

// ToggleBlocked flips the blocked flag and returns the updated user.
func (s *Service) ToggleBlocked(ctx context.Context, actorID, id string) (*models.User, error) {
	if actorID == id {
		return nil, apperr.Validation("Öz hesabınızı bloklaya bilməzsiniz")
	}
	u, err := s.userByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsBlocked = !u.IsBlocked
	if err := s.update(ctx, id, map[string]any{"is_blocked": u.IsBlocked}); err != nil {
		return nil, err
	}
	return u, nil
}

// SetRole assigns role; an empty role toggles between admin and editor.
func (s *Service) SetRole(ctx context.Context, actorID, id string, role models.Role) (*models.User, error) {
	if actorID == id {
		return nil, apperr.Validation("Öz rolunuzu dəyişə bilməzsiniz")
	}
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("Rol yanlışdır")
	}
	u, err := s.userByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleEditor
		if u.Role == models.RoleEditor {
			role = models.RoleAdmin
		}
	}
	u.Role = role
	if err := s.update(ctx, id, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) update(ctx context.Context, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return s.storeErr("update user", err)
	}
	return nil
}

func (s *Service) issue(u *models.User) (*Session, error) {
	token, exp, err := SignJWT(u.ID, s.opts.Issuer, s.opts.JWTSecret, s.opts.TokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "token yaradıla bilmədi", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// storeErr maps user-store faults: a timed-out lookup is an authentication
// failure, anything else is an outage.
func (s *Service) storeErr(op string, err error) error {
	s.log.Error("user store failure", "op", op, "err", err)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.CodeUnauthenticated, "Autentifikasiya vaxtı bitdi", err)
	}
	return apperr.Unavailable("Xidmət müvəqqəti əlçatan deyil", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
