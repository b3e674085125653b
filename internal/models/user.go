package models

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Principal is the authenticated caller, taken from the access token.
type Principal struct {
	Subject   string   `json:"sub"` // access code id
	CompanyID string   `json:"company_id"`
	Role      UserRole `json:"role"`
}
