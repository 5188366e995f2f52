package models

import "time"

// Role represents a user's role
type Role string

const (
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// IsStaff reports whether the role can administer catalog, orders and shipments
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// PaymentType represents an accepted payment method type
type PaymentType string

const (
	PaymentTypeCreditCard PaymentType = "credit_card"
	PaymentTypeDebitCard  PaymentType = "debit_card"
	PaymentTypePaypal     PaymentType = "paypal"
	PaymentTypeOxxoCash   PaymentType = "oxxo_cash"
)

// IsValidPaymentType checks if the given payment type is accepted
func IsValidPaymentType(t PaymentType) bool {
	switch t {
	case PaymentTypeCreditCard, PaymentTypeDebitCard, PaymentTypePaypal, PaymentTypeOxxoCash:
		return true
	}
	return false
}

// User represents a registered account
type User struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	LastName       string     `json:"lastName" db:"last_name"`
	SecondLastName string     `json:"secondLastName" db:"second_last_name"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           Role       `json:"role" db:"role"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	AvatarURL      *string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	IsVerified     bool       `json:"isVerified" db:"is_verified"`
	IsDeleted      bool       `json:"-" db:"is_deleted"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`

	// Joined data (populated when needed)
	Addresses      []Address       `json:"addresses,omitempty"`
	PaymentMethods []PaymentMethod `json:"paymentMethods,omitempty"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	name := u.Name + " " + u.LastName
	if u.SecondLastName != "" {
		name += " " + u.SecondLastName
	}
	return name
}

// Address represents a user's shipping or billing address
type Address struct {
	ID             string  `json:"id" db:"id"`
	UserID         string  `json:"-" db:"user_id"`
	PostalCode     string  `json:"postalCode" db:"postal_code"`
	Street         string  `json:"street" db:"street"`
	ExternalNumber *string `json:"externalNumber,omitempty" db:"external_number"`
	InternalNumber *string `json:"internalNumber,omitempty" db:"internal_number"`
	Neighborhood   *string `json:"neighborhood,omitempty" db:"neighborhood"`
	City           string  `json:"city" db:"city"`
	State          string  `json:"state" db:"state"`
	Country        string  `json:"country" db:"country"`
	IsDefault      bool    `json:"isDefault" db:"is_default"`
}

// PaymentMethod represents a stored payment method. Only masked data is kept;
// raw card numbers never reach this struct.
type PaymentMethod struct {
	ID         string      `json:"id" db:"id"`
	UserID     string      `json:"-" db:"user_id"`
	Type       PaymentType `json:"type" db:"type"`
	Last4      *string     `json:"last4,omitempty" db:"last4"`
	Provider   *string     `json:"provider,omitempty" db:"provider"`
	Expiration *string     `json:"expiration,omitempty" db:"expiration"` // MM/YY
}

// AddressInput represents data for creating or replacing an address
type AddressInput struct {
	PostalCode     string  `json:"postalCode" binding:"required"`
	Street         string  `json:"street" binding:"required"`
	ExternalNumber *string `json:"externalNumber,omitempty"`
	InternalNumber *string `json:"internalNumber,omitempty"`
	Neighborhood   *string `json:"neighborhood,omitempty"`
	City           string  `json:"city" binding:"required"`
	State          string  `json:"state" binding:"required"`
	Country        string  `json:"country" binding:"required"`
	IsDefault      bool    `json:"isDefault"`
}

// PaymentMethodInput represents data for storing a masked payment method
type PaymentMethodInput struct {
	Type       PaymentType `json:"type" binding:"required"`
	Last4      *string     `json:"last4,omitempty" binding:"omitempty,len=4"`
	Provider   *string     `json:"provider,omitempty"`
	Expiration *string     `json:"expiration,omitempty"`
}

// UserRegistration represents data for registering a new user
type UserRegistration struct {
	Name           string `json:"name" binding:"required,min=2"`
	LastName       string `json:"lastName" binding:"required,min=2"`
	SecondLastName string `json:"secondLastName"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Phone          string `json:"phone"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PasswordChange represents a password change request
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// ProfileUpdate represents data for updating a profile
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	SecondLastName *string `json:"secondLastName,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	AvatarURL      *string `json:"avatarUrl,omitempty"`
}
