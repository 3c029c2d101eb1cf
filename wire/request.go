package wire

// Message is the set of documents the transport will put on the wire:
// LogEntry, LogBatch, PingRequest, and AuthRequest. Requests carry an
// action discriminant; entries and batches are recognized structurally.
type Message interface {
	message()
}

// Request actions.
const (
	ActionPing         = "ping"
	ActionAuthenticate = "authenticate"
)

// Response statuses.
const (
	StatusPong    = "pong"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusOK      = "ok"
)

// PingRequest asks the agent for a liveness probe; the agent answers
// {"status":"pong"}.
type PingRequest struct {
	Version string `json:"version,omitempty"`
	Action  string `json:"action"`
}

// NewPingRequest builds a ping request.
func NewPingRequest() *PingRequest {
	return &PingRequest{Version: ProtocolVersion, Action: ActionPing}
}

func (p *PingRequest) message() {}

// AuthRequest presents the shared secret on TCP transports. The agent
// answers {"status":"success"} or {"status":"error","message":...}.
type AuthRequest struct {
	Version      string `json:"version,omitempty"`
	Action       string `json:"action"`
	SharedSecret string `json:"shared_secret"`
}

// NewAuthRequest builds an authenticate request carrying secret.
func NewAuthRequest(secret string) *AuthRequest {
	return &AuthRequest{Version: ProtocolVersion, Action: ActionAuthenticate, SharedSecret: secret}
}

func (a *AuthRequest) message() {}

// Response is the single-document reply the agent sends for ping and
// authenticate requests.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
