package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ratacueva-backend/config"
	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// AuthService handles registration, login and token issuance
type AuthService struct {
	db     *sql.DB
	cfg    *config.Config
	emails *EmailService
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *sql.DB, cfg *config.Config, emails *EmailService, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, cfg: cfg, emails: emails, logger: logger}
}

// Claims is the JWT payload carried by every authenticated request
type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.RegisteredClaims
}

// Register creates a new client account and sends the verification mail.
// Emails are unique across non-deleted accounts.
func (s *AuthService) Register(registration *models.UserRegistration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(registration.Email))

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ? AND is_deleted = FALSE", email).Scan(&exists)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check email: %w", err))
	}
	if exists > 0 {
		return nil, apperrors.Conflict("El correo ya está registrado.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:             uuid.New().String(),
		Name:           registration.Name,
		LastName:       registration.LastName,
		SecondLastName: registration.SecondLastName,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           models.RoleClient,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if registration.Phone != "" {
		user.Phone = &registration.Phone
	}

	verificationToken := uuid.New().String()
	tokenExpires := now.Add(24 * time.Hour)

	_, err = s.db.Exec(
		`INSERT INTO users (id, name, last_name, second_last_name, email,
			password_hash, role, phone, verification_token,
			verification_token_expires, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.LastName, user.SecondLastName, user.Email,
		user.PasswordHash, user.Role, user.Phone, verificationToken,
		tokenExpires, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	s.logger.Info("user registered", zap.String("userId", user.ID))
	if s.emails != nil {
		s.emails.SendVerificationEmail(user.Email, verificationToken)
	}
	return user, nil
}

// Login validates credentials and returns the user with a signed token.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(login *models.UserLogin) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(login.Email))

	user := &models.User{}
	err := s.db.QueryRow(
		`SELECT id, name, last_name, second_last_name, email, password_hash,
			role, phone, avatar_url, is_verified, last_login_at, created_at, updated_at
		FROM users WHERE email = ? AND is_deleted = FALSE`, email,
	).Scan(&user.ID, &user.Name, &user.LastName, &user.SecondLastName,
		&user.Email, &user.PasswordHash, &user.Role, &user.Phone,
		&user.AvatarURL, &user.IsVerified, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", apperrors.Unauthorized("Credenciales inválidas.")
		}
		return nil, "", apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(login.Password)); err != nil {
		return nil, "", apperrors.Unauthorized("Credenciales inválidas.")
	}
	if !user.IsVerified {
		return nil, "", apperrors.Forbidden("La cuenta no ha sido verificada. Revisa tu correo.")
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec("UPDATE users SET last_login_at = ? WHERE id = ?", now, user.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.String("userId", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a JWT for the user
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.JWTExpiration) * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to sign token: %w", err))
	}
	return signed, nil
}

// ParseToken validates a JWT and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Token inválido o expirado.")
	}
	return claims, nil
}

// ChangePassword replaces the user's password after checking the current one
func (s *AuthService) ChangePassword(userID string, change *models.PasswordChange) error {
	var currentHash string
	err := s.db.QueryRow(
		"SELECT password_hash FROM users WHERE id = ? AND is_deleted = FALSE", userID,
	).Scan(&currentHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.NotFound("Usuario no encontrado.")
		}
		return apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(change.CurrentPassword)); err != nil {
		return apperrors.Unauthorized("La contraseña actual es incorrecta.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	_, err = s.db.Exec(
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		string(hash), time.Now().UTC(), userID,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to change password: %w", err))
	}
	s.logger.Info("password changed", zap.String("userId", userID))
	return nil
}

// VerifyEmail marks the account verified if the token matches and has not
// expired
func (s *AuthService) VerifyEmail(token string) error {
	var userID string
	var expires time.Time
	err := s.db.QueryRow(
		"SELECT id, verification_token_expires FROM users WHERE verification_token = ? AND is_deleted = FALSE",
		token,
	).Scan(&userID, &expires)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.BadRequest("Token de verificación inválido.")
		}
		return apperrors.Internal(fmt.Errorf("failed to look up verification token: %w", err))
	}
	if time.Now().UTC().After(expires) {
		return apperrors.BadRequest("El token de verificación ha expirado.")
	}

	_, err = s.db.Exec(
		`UPDATE users SET is_verified = TRUE, verification_token = NULL,
			verification_token_expires = NULL, updated_at = ?
		WHERE id = ?`, time.Now().UTC(), userID,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to verify account: %w", err))
	}
	s.logger.Info("account verified", zap.String("userId", userID))
	return nil
}
