package services

import (
	"context"

	"github.com/yigit/jobportal/internal/db"
)

// Services defined in this package:
// - AuthService: registration, login with lockout, password reset
// - UserService: profile, admin role changes and account deletion
// - PositionService: job postings
// - DocumentService: CV and cover letter uploads
// - ApplicationService: applications and their review status
// - DashboardService: the role dependent "min side" page

// Transactor runs fn inside a database transaction
type Transactor interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}
