package models

// ClientRequest validates client create/update payloads before they reach
// the repository. Records themselves travel as schemaless maps so local
// and remote storage share one shape.
type ClientRequest struct {
	Nome     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Telefone string `json:"telefone"`
}

// PageRequest validates landing-page create/update payloads. Template must
// be one of the fixed visual templates shipped with the builder.
type PageRequest struct {
	ClientID string         `json:"client_id" binding:"required"`
	Nome     string         `json:"nome" binding:"required"`
	Template string         `json:"template" binding:"required"`
	Status   string         `json:"status"`
	Config   map[string]any `json:"config"`
}

// LeadRequest validates lead/signup submissions from published pages.
type LeadRequest struct {
	LpID  string         `json:"lp_id" binding:"required"`
	Nome  string         `json:"nome" binding:"required"`
	Email string         `json:"email" binding:"omitempty,email"`
	Extra map[string]any `json:"extra"`
}

// LoginRequest is the POST /api/login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
