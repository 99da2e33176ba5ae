package observability

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

func ActorUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// EmitAudit writes one structured audit line for a state-changing operation.
// Extra key/value pairs are appended verbatim.
func EmitAudit(r *http.Request, input AuditInput, extra ...any) {
	attrs := []any{
		"audit_id", uuid.NewString(),
		"event", input.EventName,
		"actor_user_id", input.ActorUserID,
		"target_type", input.TargetType,
		"target_id", input.TargetID,
		"action", input.Action,
		"outcome", input.Outcome,
		"reason", input.Reason,
	}
	attrs = append(attrs, extra...)
	slog.Default().InfoContext(r.Context(), "audit", attrs...)
}
