package dto

import (
	"time"

	"github.com/yigit/jobportal/internal/app/models"
)

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	FullName string `form:"full_name" json:"fullName" binding:"omitempty,max=100"`
	Phone    string `form:"phone" json:"phone" binding:"phone8"`
}

// UpdateRoleRequest is an admin role change
type UpdateRoleRequest struct {
	Role string `form:"role" json:"role" binding:"required,oneof=student employee admin"`
}

// UserView is the public projection of a user
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	RoleLabel string    `json:"roleLabel"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserView projects a user without secrets
func NewUserView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		RoleLabel: u.Role.Label(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// NewUserViews projects a slice of users
func NewUserViews(users []*models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u))
	}
	return out
}

// AdminUsersPage lists every user for the admin panel
type AdminUsersPage struct {
	Users      []UserView     `json:"users"`
	Roles      []string       `json:"roles"`
	Pagination PaginationInfo `json:"pagination"`
}
