package model

import "time"

// UserRole separates candidates from administrators.
type UserRole string

const (
	UserRoleCandidate UserRole = "CANDIDATE"
	UserRoleAdmin     UserRole = "ADMIN"
)

// User represents a platform account. Its numeric ID doubles as the user
// reference the assessment service keys attempts by. The server issues it;
// clients never derive one.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          UserRole  `json:"role"`
	RoleID        *int64    `json:"role_id,omitempty"` // Admin permission role, nil for candidates
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for creating a new candidate account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// VerifyEmailRequest is the payload for confirming an OTP.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// ResendOTPRequest is the payload for requesting a fresh OTP.
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// CreateUserRequest is the admin payload for creating accounts directly.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     string `json:"role" binding:"required,oneof=CANDIDATE ADMIN"`
	RoleID   *int64 `json:"role_id" binding:"omitempty"`
}
