package model

// ============================================
// Request/Response Models
// ============================================

type ErrorResponse struct {
	Code   int    `json:"code"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error"`
}

type RegisterRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// UpdateProfileRequest uses pointer fields so the transport can tell an
// absent key (leave unchanged) apart from an explicit empty string (clear).
type UpdateProfileRequest struct {
	DisplayName    *string `json:"displayName"`
	Description    *string `json:"description"`
	ProfilePicture *string `json:"profilePicture"`
}

type NewPostRequest struct {
	Text   string         `json:"text"`
	Media  []MediaItem    `json:"media"`
	Recipe []ContentChunk `json:"recipe"`
}

type PreviewRecipeRequest struct {
	Recipe []ContentChunk `json:"recipe"`
}

type NewReplyRequest struct {
	ParentReplyId *string `json:"parentReplyId"`
	Text          string  `json:"text"`
}

type EditTextRequest struct {
	Text string `json:"text"`
}

type ProfileListResponse struct {
	Users []ProfileSummary `json:"users"`
}

type ReadStatusRequest struct {
	PostIds []string `json:"postIds"`
	Read    bool     `json:"read"`
}

type ReadStatusResponse struct {
	PostIds []string `json:"postIds"`
	Status  []bool   `json:"status"`
}
