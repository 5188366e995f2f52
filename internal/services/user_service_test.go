package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type UserServiceTestSuite struct {
	suite.Suite
	db    *sql.DB
	users *UserService
	user  *models.User
}

func (s *UserServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.users = NewUserService(s.db, testLogger())
	s.user = seedUser(s.T(), s.db, models.RoleClient)
}

func (s *UserServiceTestSuite) addressInput(street string, isDefault bool) *models.AddressInput {
	return &models.AddressInput{
		PostalCode: "06600",
		Street:     street,
		City:       "CDMX",
		State:      "CDMX",
		Country:    "MX",
		IsDefault:  isDefault,
	}
}

func (s *UserServiceTestSuite) defaultCount() int {
	var count int
	s.Require().NoError(s.db.QueryRow(
		"SELECT COUNT(*) FROM addresses WHERE user_id = ? AND is_default = TRUE",
		s.user.ID).Scan(&count))
	return count
}

func (s *UserServiceTestSuite) TestAtMostOneDefaultAddress() {
	first, err := s.users.AddAddress(s.user.ID, s.addressInput("Calle 1", true))
	s.Require().NoError(err)
	s.Equal(1, s.defaultCount())

	second, err := s.users.AddAddress(s.user.ID, s.addressInput("Calle 2", true))
	s.Require().NoError(err)
	s.Equal(1, s.defaultCount(), "new default must displace the old one")

	user, err := s.users.GetUserByID(s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(user.Addresses, 2)
	s.Equal(second.ID, user.Addresses[0].ID, "default sorts first")

	// Promoting the first one back flips the default again
	_, err = s.users.UpdateAddress(s.user.ID, first.ID, s.addressInput("Calle 1", true))
	s.Require().NoError(err)
	s.Equal(1, s.defaultCount())
}

func (s *UserServiceTestSuite) TestUpdateProfilePartial() {
	newName := "Mariana"
	phone := "5512345678"
	user, err := s.users.UpdateProfile(s.user.ID, &models.ProfileUpdate{
		Name:  &newName,
		Phone: &phone,
	})
	s.Require().NoError(err)
	s.Equal("Mariana", user.Name)
	s.Equal("García", user.LastName, "unspecified fields keep their value")
	s.Require().NotNil(user.Phone)
	s.Equal(phone, *user.Phone)
}

func (s *UserServiceTestSuite) TestUpdateProfileRejectsEmptyName() {
	empty := ""
	_, err := s.users.UpdateProfile(s.user.ID, &models.ProfileUpdate{Name: &empty})
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))
}

func (s *UserServiceTestSuite) TestSoftDeleteHidesUser() {
	s.Require().NoError(s.users.DeleteAccount(s.user.ID))

	_, err := s.users.GetUserByID(s.user.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	// The row itself remains for order history
	var count int
	s.Require().NoError(s.db.QueryRow(
		"SELECT COUNT(*) FROM users WHERE id = ?", s.user.ID).Scan(&count))
	s.Equal(1, count)
}

func (s *UserServiceTestSuite) TestPaymentMethodsAreMaskedReferences() {
	last4 := "4242"
	provider := "Visa"
	method, err := s.users.AddPaymentMethod(s.user.ID, &models.PaymentMethodInput{
		Type:     models.PaymentTypeCreditCard,
		Last4:    &last4,
		Provider: &provider,
	})
	s.Require().NoError(err)
	s.Equal(models.PaymentTypeCreditCard, method.Type)

	s.Require().NoError(s.users.DeletePaymentMethod(s.user.ID, method.ID))
	err = s.users.DeletePaymentMethod(s.user.ID, method.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *UserServiceTestSuite) TestUpdatePaymentMethod() {
	last4 := "4242"
	method, err := s.users.AddPaymentMethod(s.user.ID, &models.PaymentMethodInput{
		Type:  models.PaymentTypeCreditCard,
		Last4: &last4,
	})
	s.Require().NoError(err)

	newLast4 := "1881"
	updated, err := s.users.UpdatePaymentMethod(s.user.ID, method.ID, &models.PaymentMethodInput{
		Type:  models.PaymentTypeDebitCard,
		Last4: &newLast4,
	})
	s.Require().NoError(err)
	s.Equal(models.PaymentTypeDebitCard, updated.Type)
	s.Equal("1881", *updated.Last4)

	other := seedUser(s.T(), s.db, models.RoleClient)
	_, err = s.users.UpdatePaymentMethod(other.ID, method.ID, &models.PaymentMethodInput{
		Type: models.PaymentTypeCreditCard,
	})
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *UserServiceTestSuite) TestInvalidPaymentTypeRejected() {
	_, err := s.users.AddPaymentMethod(s.user.ID, &models.PaymentMethodInput{
		Type: models.PaymentType("iou"),
	})
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))
}

func (s *UserServiceTestSuite) TestDeleteForeignAddressIsNotFound() {
	other := seedUser(s.T(), s.db, models.RoleClient)
	address, err := s.users.AddAddress(other.ID, s.addressInput("Calle 3", false))
	s.Require().NoError(err)

	err = s.users.DeleteAddress(s.user.ID, address.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
