package handler

// messageResponse is the envelope for plain confirmations and errors.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	// RoleID falls back to the default role when omitted.
	RoleID int64 `json:"roleId"   validate:"omitempty,gt=0"`
}

// updateUserRequest fields are all optional; at least one must be present.
type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Password *string `json:"password" validate:"omitempty,min=1"`
	RoleID   *int64  `json:"roleId"   validate:"omitempty,gt=0"`
}

type roleRequest struct {
	Name string `json:"name" validate:"required"`
}
