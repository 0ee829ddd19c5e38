package dto

// FlashView is a one-shot message shown on the next page
type FlashView struct {
	Kind    string `json:"kind" example:"success"`
	Message string `json:"message" example:"Application submitted"`
}

// PrincipalView describes the signed-in user
type PrincipalView struct {
	UserID   int64  `json:"userId" example:"1"`
	Username string `json:"username" example:"kari_nordmann"`
	Role     string `json:"role" example:"student"`
}

// PageResponse is the envelope of every GET page
type PageResponse struct {
	Flashes   []FlashView    `json:"flashes"`
	Principal *PrincipalView `json:"principal,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
}

// PaginationInfo describes one page of a listing
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"3"`
	PageSize    int   `json:"pageSize" example:"20"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// HomePage is the landing page
type HomePage struct {
	PositionCount int64 `json:"positionCount" example:"12"`
}
