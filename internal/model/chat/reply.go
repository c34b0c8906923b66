package chat

// Engine tags which generation path produced a reply.
type Engine string

const (
	EngineRemote Engine = "remote"
	EngineLocal  Engine = "local"
)

// ReplyResult is the outcome of one reply generation.
// Diagnostic is empty on a clean remote success.
type ReplyResult struct {
	Text       string `json:"text"`
	Engine     Engine `json:"engine"`
	Diagnostic string `json:"diagnostic,omitempty"`
}
