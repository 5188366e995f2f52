package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// UserService handles profiles, the address book and stored payment methods
type UserService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(db *sql.DB, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// GetUserByID retrieves a user with their addresses and payment methods
func (s *UserService) GetUserByID(userID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(
		`SELECT id, name, last_name, second_last_name, email, role, phone,
			avatar_url, is_verified, last_login_at, created_at, updated_at
		FROM users WHERE id = ? AND is_deleted = FALSE`, userID,
	).Scan(&user.ID, &user.Name, &user.LastName, &user.SecondLastName,
		&user.Email, &user.Role, &user.Phone, &user.AvatarURL,
		&user.IsVerified, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Usuario no encontrado.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if user.Addresses, err = s.listAddresses(userID); err != nil {
		return nil, err
	}
	if user.PaymentMethods, err = s.listPaymentMethods(userID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's profile
func (s *UserService) UpdateProfile(userID string, update *models.ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.BadRequest("El nombre no puede estar vacío.")
		}
		user.Name = *update.Name
	}
	if update.LastName != nil {
		if *update.LastName == "" {
			return nil, apperrors.BadRequest("El apellido no puede estar vacío.")
		}
		user.LastName = *update.LastName
	}
	if update.SecondLastName != nil {
		user.SecondLastName = *update.SecondLastName
	}
	if update.Phone != nil {
		user.Phone = update.Phone
	}
	if update.AvatarURL != nil {
		user.AvatarURL = update.AvatarURL
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE users SET name = ?, last_name = ?, second_last_name = ?,
			phone = ?, avatar_url = ?, updated_at = ?
		WHERE id = ?`,
		user.Name, user.LastName, user.SecondLastName, user.Phone,
		user.AvatarURL, user.UpdatedAt, userID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update profile: %w", err))
	}
	return user, nil
}

// DeleteAccount soft-deletes the account. The row stays so orders and reviews
// keep their references.
func (s *UserService) DeleteAccount(userID string) error {
	result, err := s.db.Exec(
		"UPDATE users SET is_deleted = TRUE, updated_at = ? WHERE id = ? AND is_deleted = FALSE",
		time.Now().UTC(), userID,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete account: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if affected == 0 {
		return apperrors.NotFound("Usuario no encontrado.")
	}
	s.logger.Info("account deleted", zap.String("userId", userID))
	return nil
}

// AddAddress stores a new address. Marking it default clears the previous
// default in the same transaction so at most one address is default.
func (s *UserService) AddAddress(userID string, input *models.AddressInput) (*models.Address, error) {
	address := &models.Address{
		ID:             uuid.New().String(),
		UserID:         userID,
		PostalCode:     input.PostalCode,
		Street:         input.Street,
		ExternalNumber: input.ExternalNumber,
		InternalNumber: input.InternalNumber,
		Neighborhood:   input.Neighborhood,
		City:           input.City,
		State:          input.State,
		Country:        input.Country,
		IsDefault:      input.IsDefault,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if address.IsDefault {
		if _, err := tx.Exec("UPDATE addresses SET is_default = FALSE WHERE user_id = ?", userID); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to clear default address: %w", err))
		}
	}

	_, err = tx.Exec(
		`INSERT INTO addresses (id, user_id, postal_code, street, external_number,
			internal_number, neighborhood, city, state, country, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		address.ID, address.UserID, address.PostalCode, address.Street,
		address.ExternalNumber, address.InternalNumber, address.Neighborhood,
		address.City, address.State, address.Country, address.IsDefault,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to add address: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit address: %w", err))
	}
	return address, nil
}

// UpdateAddress replaces one of the user's addresses, keeping the
// single-default invariant
func (s *UserService) UpdateAddress(userID, addressID string, input *models.AddressInput) (*models.Address, error) {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM addresses WHERE id = ? AND user_id = ?", addressID, userID).Scan(&exists)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check address: %w", err))
	}
	if exists == 0 {
		return nil, apperrors.NotFound("Dirección no encontrada.")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if input.IsDefault {
		if _, err := tx.Exec("UPDATE addresses SET is_default = FALSE WHERE user_id = ?", userID); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to clear default address: %w", err))
		}
	}

	_, err = tx.Exec(
		`UPDATE addresses SET postal_code = ?, street = ?, external_number = ?,
			internal_number = ?, neighborhood = ?, city = ?, state = ?,
			country = ?, is_default = ?
		WHERE id = ? AND user_id = ?`,
		input.PostalCode, input.Street, input.ExternalNumber,
		input.InternalNumber, input.Neighborhood, input.City, input.State,
		input.Country, input.IsDefault, addressID, userID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update address: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit address update: %w", err))
	}

	return &models.Address{
		ID:             addressID,
		UserID:         userID,
		PostalCode:     input.PostalCode,
		Street:         input.Street,
		ExternalNumber: input.ExternalNumber,
		InternalNumber: input.InternalNumber,
		Neighborhood:   input.Neighborhood,
		City:           input.City,
		State:          input.State,
		Country:        input.Country,
		IsDefault:      input.IsDefault,
	}, nil
}

// DeleteAddress removes one of the user's addresses
func (s *UserService) DeleteAddress(userID, addressID string) error {
	result, err := s.db.Exec("DELETE FROM addresses WHERE id = ? AND user_id = ?", addressID, userID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete address: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if affected == 0 {
		return apperrors.NotFound("Dirección no encontrada.")
	}
	return nil
}

// AddPaymentMethod stores a masked payment method reference
func (s *UserService) AddPaymentMethod(userID string, input *models.PaymentMethodInput) (*models.PaymentMethod, error) {
	if !models.IsValidPaymentType(input.Type) {
		return nil, apperrors.BadRequest("Método de pago inválido.")
	}

	method := &models.PaymentMethod{
		ID:         uuid.New().String(),
		UserID:     userID,
		Type:       input.Type,
		Last4:      input.Last4,
		Provider:   input.Provider,
		Expiration: input.Expiration,
	}
	_, err := s.db.Exec(
		"INSERT INTO payment_methods (id, user_id, type, last4, provider, expiration, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		method.ID, method.UserID, method.Type, method.Last4, method.Provider,
		method.Expiration, time.Now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to add payment method: %w", err))
	}
	return method, nil
}

// UpdatePaymentMethod replaces one of the user's stored payment methods
func (s *UserService) UpdatePaymentMethod(userID, methodID string, input *models.PaymentMethodInput) (*models.PaymentMethod, error) {
	if !models.IsValidPaymentType(input.Type) {
		return nil, apperrors.BadRequest("Método de pago inválido.")
	}

	result, err := s.db.Exec(
		"UPDATE payment_methods SET type = ?, last4 = ?, provider = ?, expiration = ? WHERE id = ? AND user_id = ?",
		input.Type, input.Last4, input.Provider, input.Expiration, methodID, userID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update payment method: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if affected == 0 {
		return nil, apperrors.NotFound("Método de pago no encontrado.")
	}

	return &models.PaymentMethod{
		ID:         methodID,
		UserID:     userID,
		Type:       input.Type,
		Last4:      input.Last4,
		Provider:   input.Provider,
		Expiration: input.Expiration,
	}, nil
}

// DeletePaymentMethod removes one of the user's stored payment methods
func (s *UserService) DeletePaymentMethod(userID, methodID string) error {
	result, err := s.db.Exec("DELETE FROM payment_methods WHERE id = ? AND user_id = ?", methodID, userID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete payment method: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if affected == 0 {
		return apperrors.NotFound("Método de pago no encontrado.")
	}
	return nil
}

func (s *UserService) listAddresses(userID string) ([]models.Address, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, postal_code, street, external_number,
			internal_number, neighborhood, city, state, country, is_default
		FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at ASC`, userID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to query addresses: %w", err))
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var a models.Address
		err := rows.Scan(&a.ID, &a.UserID, &a.PostalCode, &a.Street,
			&a.ExternalNumber, &a.InternalNumber, &a.Neighborhood,
			&a.City, &a.State, &a.Country, &a.IsDefault)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan address: %w", err))
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (s *UserService) listPaymentMethods(userID string) ([]models.PaymentMethod, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, type, last4, provider, expiration FROM payment_methods WHERE user_id = ? ORDER BY created_at ASC", userID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to query payment methods: %w", err))
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Last4, &m.Provider, &m.Expiration)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan payment method: %w", err))
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}
