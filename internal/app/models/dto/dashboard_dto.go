package dto

import "github.com/yigit/jobportal/internal/app/models"

// DashboardCounts are the admin aggregates
type DashboardCounts struct {
	Users        int64 `json:"users"`
	Positions    int64 `json:"positions"`
	Applications int64 `json:"applications"`
}

// Dashboard is the "min side" page. Sections are filled by role.
type Dashboard struct {
	Profile         UserView                    `json:"profile"`
	CVs             []*models.Document          `json:"cvs,omitempty"`
	CoverLetters    []*models.Document          `json:"coverLetters,omitempty"`
	Applications    []*models.ApplicationDetail `json:"applications,omitempty"`
	MyPositions     []*models.PositionListing   `json:"myPositions,omitempty"`
	AllUsers        []UserView                  `json:"allUsers,omitempty"`
	AllApplications []*models.ApplicationDetail `json:"allApplications,omitempty"`
	Counts          *DashboardCounts            `json:"counts,omitempty"`
}
