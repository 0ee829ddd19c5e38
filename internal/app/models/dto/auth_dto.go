package dto

// LoginRequest represents login credentials; Identifier is a username or an email
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier" binding:"required"`
	Password   string `form:"password" json:"password" binding:"required"`
}

// RegisterRequest represents a student registration
type RegisterRequest struct {
	Username        string `form:"username" json:"username" binding:"required,max=50,username"`
	Email           string `form:"email" json:"email" binding:"required,email,max=255"`
	Password        string `form:"password" json:"password" binding:"required,strongpassword"`
	PasswordConfirm string `form:"password_confirm" json:"passwordConfirm" binding:"required,eqfield=Password"`
	FullName        string `form:"full_name" json:"fullName" binding:"omitempty,max=100"`
	Phone           string `form:"phone" json:"phone" binding:"phone8"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token           string `form:"token" json:"token" binding:"required,hexadecimal,len=32"`
	Password        string `form:"password" json:"password" binding:"required,strongpassword"`
	PasswordConfirm string `form:"password_confirm" json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// ResetPasswordPage is shown for GET /password/reset
type ResetPasswordPage struct {
	Token string `json:"token"`
	Valid bool   `json:"valid"`
}
