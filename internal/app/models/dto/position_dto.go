package dto

import "github.com/yigit/jobportal/internal/app/models"

// PositionRequest is the create/edit position form
type PositionRequest struct {
	Title       string `form:"title" json:"title" binding:"required,max=255"`
	Department  string `form:"department" json:"department" binding:"required,max=255"`
	Location    string `form:"location" json:"location" binding:"required,max=255"`
	Amount      int    `form:"amount" json:"amount" binding:"required,min=1,max=25"`
	Description string `form:"description" json:"description" binding:"omitempty,max=5000"`
	ResourceURL string `form:"resource_url" json:"resourceUrl" binding:"omitempty,url,max=2048"`
}

// PositionListPage lists positions newest first
type PositionListPage struct {
	Positions  []*models.PositionListing `json:"positions"`
	Pagination PaginationInfo            `json:"pagination"`
	CanCreate  bool                      `json:"canCreate"`
}

// PositionDetailPage is a single position with what the caller may do with it
type PositionDetailPage struct {
	Position   *models.PositionListing `json:"position"`
	CanManage  bool                    `json:"canManage"`
	CanApply   bool                    `json:"canApply"`
	HasApplied bool                    `json:"hasApplied"`
}

// PositionFormPage is the empty create form
type PositionFormPage struct {
	AmountMin int `json:"amountMin"`
	AmountMax int `json:"amountMax"`
}
