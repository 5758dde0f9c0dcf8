package auth

const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeAnalysisRead  = "analysis:read"
	ScopeAnalysisWrite = "analysis:write"
)

// AllScopes is the full set of scopes requested at login.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeAnalysisRead,
	ScopeAnalysisWrite,
}
