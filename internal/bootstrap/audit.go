package bootstrap

import "context"

// AuditLog is one operator-relevant event: a competency close, a run
// cancellation, a server shutdown. Audit entries are for humans reviewing
// what happened, structured logs are for machines.
type AuditLog struct {
	Action  string
	ActorID string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
