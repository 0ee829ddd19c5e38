package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/cache"
)

const dashboardCountsKey = "dashboard:counts"

// DashboardService assembles the "min side" page
type DashboardService struct {
	repos    *repositories.Repositories
	cache    cache.Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewDashboardService creates a new DashboardService. A nil cache disables caching.
func NewDashboardService(repos *repositories.Repositories, c cache.Cache, cacheTTL time.Duration, logger zerolog.Logger) *DashboardService {
	if c == nil {
		c = cache.Noop{}
	}
	return &DashboardService{
		repos:    repos,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Build decides per role which sections the dashboard carries:
// students see their documents and applications, employees and admins the
// positions they created, admins also every user, every application and the
// site wide counts.
func (s *DashboardService) Build(ctx context.Context, principal *appauth.Principal) (*dto.Dashboard, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.repos.UserRepository.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	out := &dto.Dashboard{Profile: dto.NewUserView(user)}

	if user.Role == models.RoleStudent || user.Role == models.RoleAdmin {
		if err := s.addStudentSections(ctx, out, user.ID); err != nil {
			return nil, err
		}
	}

	if user.Role.CanManagePositions() {
		out.MyPositions, err = s.repos.PositionRepository.FindByCreator(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	if user.Role == models.RoleAdmin {
		if err := s.addAdminSections(ctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *DashboardService) addStudentSections(ctx context.Context, out *dto.Dashboard, userID int64) error {
	docs, err := s.repos.DocumentRepository.FindByUser(ctx, userID, nil)
	if err != nil {
		return err
	}
	for _, d := range docs {
		switch d.Type {
		case models.DocumentTypeCV:
			out.CVs = append(out.CVs, d)
		case models.DocumentTypeCoverLetter:
			out.CoverLetters = append(out.CoverLetters, d)
		}
	}

	out.Applications, err = s.repos.ApplicationRepository.ListByUser(ctx, userID)
	return err
}

func (s *DashboardService) addAdminSections(ctx context.Context, out *dto.Dashboard) error {
	users, _, err := s.repos.UserRepository.List(ctx, 0, 0)
	if err != nil {
		return err
	}
	out.AllUsers = dto.NewUserViews(users)

	out.AllApplications, _, err = s.repos.ApplicationRepository.ListAll(ctx, 0, 0)
	if err != nil {
		return err
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		return err
	}
	out.Counts = counts
	return nil
}

// Counts returns the site wide totals, served from cache when fresh
func (s *DashboardService) Counts(ctx context.Context) (*dto.DashboardCounts, error) {
	var counts dto.DashboardCounts
	if ok, err := s.cache.Get(ctx, dashboardCountsKey, &counts); err != nil {
		s.logger.Warn().Err(err).Msg("Dashboard counts cache read failed")
	} else if ok {
		return &counts, nil
	}

	var err error
	if counts.Users, err = s.repos.UserRepository.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Positions, err = s.repos.PositionRepository.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Applications, err = s.repos.ApplicationRepository.Count(ctx); err != nil {
		return nil, err
	}

	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, dashboardCountsKey, counts, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("Dashboard counts cache write failed")
		}
	}
	return &counts, nil
}
