package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/config"
	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db   *sql.DB
	auth *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiration: 3600}
	s.auth = NewAuthService(s.db, cfg, nil, testLogger())
}

func (s *AuthServiceTestSuite) registration() *models.UserRegistration {
	return &models.UserRegistration{
		Name:     "Luis",
		LastName: "Martínez",
		Email:    "Luis@Test.MX",
		Password: "supersecret1",
	}
}

func (s *AuthServiceTestSuite) TestRegisterNormalizesEmailAndHashesPassword() {
	user, err := s.auth.Register(s.registration())
	s.Require().NoError(err)
	s.Equal("luis@test.mx", user.Email)
	s.Equal(models.RoleClient, user.Role)
	s.NotEqual("supersecret1", user.PasswordHash)
	s.False(user.IsVerified)
}

func (s *AuthServiceTestSuite) TestDuplicateEmailIsConflict() {
	_, err := s.auth.Register(s.registration())
	s.Require().NoError(err)

	_, err = s.auth.Register(s.registration())
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

// registerVerified registers the default account and completes verification
// using the token stored on the row
func (s *AuthServiceTestSuite) registerVerified() *models.User {
	user, err := s.auth.Register(s.registration())
	s.Require().NoError(err)

	var token string
	s.Require().NoError(s.db.QueryRow(
		"SELECT verification_token FROM users WHERE id = ?", user.ID).Scan(&token))
	s.Require().NoError(s.auth.VerifyEmail(token))
	return user
}

func (s *AuthServiceTestSuite) TestLoginRoundTrip() {
	s.registerVerified()

	user, token, err := s.auth.Login(&models.UserLogin{
		Email:    "luis@test.mx",
		Password: "supersecret1",
	})
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.NotNil(user.LastLoginAt)

	claims, err := s.auth.ParseToken(token)
	s.Require().NoError(err)
	s.Equal(user.ID, claims.UserID)
	s.Equal(models.RoleClient, claims.Role)
}

func (s *AuthServiceTestSuite) TestUnverifiedLoginIsForbidden() {
	_, err := s.auth.Register(s.registration())
	s.Require().NoError(err)

	_, _, err = s.auth.Login(&models.UserLogin{
		Email:    "luis@test.mx",
		Password: "supersecret1",
	})
	s.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (s *AuthServiceTestSuite) TestLoginFailuresAreIndistinguishable() {
	s.registerVerified()

	_, _, errWrongPassword := s.auth.Login(&models.UserLogin{
		Email: "luis@test.mx", Password: "wrong",
	})
	_, _, errUnknownEmail := s.auth.Login(&models.UserLogin{
		Email: "nobody@test.mx", Password: "supersecret1",
	})

	s.True(apperrors.IsKind(errWrongPassword, apperrors.KindUnauthorized))
	s.True(apperrors.IsKind(errUnknownEmail, apperrors.KindUnauthorized))
	s.Equal(apperrors.MessageOf(errWrongPassword), apperrors.MessageOf(errUnknownEmail))
}

func (s *AuthServiceTestSuite) TestVerifyEmail() {
	user, err := s.auth.Register(s.registration())
	s.Require().NoError(err)

	var token string
	s.Require().NoError(s.db.QueryRow(
		"SELECT verification_token FROM users WHERE id = ?", user.ID).Scan(&token))

	s.Require().NoError(s.auth.VerifyEmail(token))

	var verified bool
	s.Require().NoError(s.db.QueryRow(
		"SELECT is_verified FROM users WHERE id = ?", user.ID).Scan(&verified))
	s.True(verified)

	err = s.auth.VerifyEmail(token)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest), "token is single use")
}

func (s *AuthServiceTestSuite) TestChangePassword() {
	user := s.registerVerified()

	err := s.auth.ChangePassword(user.ID, &models.PasswordChange{
		CurrentPassword: "wrong",
		NewPassword:     "brandnewpass1",
	})
	s.True(apperrors.IsKind(err, apperrors.KindUnauthorized))

	s.Require().NoError(s.auth.ChangePassword(user.ID, &models.PasswordChange{
		CurrentPassword: "supersecret1",
		NewPassword:     "brandnewpass1",
	}))

	_, _, err = s.auth.Login(&models.UserLogin{
		Email: "luis@test.mx", Password: "supersecret1",
	})
	s.True(apperrors.IsKind(err, apperrors.KindUnauthorized))

	_, _, err = s.auth.Login(&models.UserLogin{
		Email: "luis@test.mx", Password: "brandnewpass1",
	})
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestParseTokenRejectsGarbage() {
	_, err := s.auth.ParseToken("not-a-jwt")
	s.True(apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
