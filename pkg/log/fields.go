package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID    = "user_id"
	FieldUsername  = "username"
	FieldProfileID = "profile_id"
	FieldActorID   = "actor_id"

	// Domain
	FieldTargetID  = "target_id"
	FieldDiaryID   = "diary_id"
	FieldSlug      = "slug"
	FieldCommentID = "comment_id"
	FieldVerb      = "verb"
	FieldKey       = "key"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
