package constants

// Context keys
const (
	ContextKeyIdentity = "identity"
)

// Validation limits
const (
	MinPasswordLength    = 6
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
