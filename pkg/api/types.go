package api

// TokenTypeBearer is the only token type issued by the gateway.
const TokenTypeBearer = "bearer"

// LoginRequest carries the credentials of a login attempt. The HTTP adapter
// accepts it as JSON or as an OAuth2 password form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// ChatRequest is the body of a protected dispatch call. The field keeps the
// name used by existing clients.
type ChatRequest struct {
	Question string `json:"pergunta"`
}

// ChatResponse is the tenant-scoped result of a dispatch.
// OrganizationID is always set to the caller's tenant.
type ChatResponse struct {
	OrganizationID  string `json:"organization_id"`
	ToolUsed        string `json:"tool_used"`
	Query           string `json:"query,omitempty"`
	SimulatedResult string `json:"simulated_result"`
}

// ConnectionRequest registers a database connection whose password is
// encrypted before being echoed back.
type ConnectionRequest struct {
	DBType   string `json:"db_type"`
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ConnectionResponse confirms a registration and carries the ciphertext.
type ConnectionResponse struct {
	Message           string `json:"message"`
	EncryptedPassword string `json:"encrypted_password"`
}

// MessageResponse is a plain informational payload.
type MessageResponse struct {
	Message string `json:"message"`
}
