package model

// Action is a labeled button offered alongside a reply.
type Action struct {
	Label string
	Data  string // opaque callback payload, e.g. "confirm", "cancel"
}

// Reply is the abstract outbound message the core emits: text plus an
// optional list of actions. The chat transport decides how to render it.
type Reply struct {
	Text    string
	Actions []Action
}
