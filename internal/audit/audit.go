package audit

import (
	"context"

	"github.com/omar-ramo/yawm/pkg/log"
)

// Audit actions.
const (
	ActionCreateProfile = "profile.create"
	ActionUpdateProfile = "profile.update"
	ActionUpdateAvatar  = "profile.update_avatar"
	ActionFollow        = "profile.follow"
	ActionUnfollow      = "profile.unfollow"
	ActionCreateDiary   = "diary.create"
	ActionUpdateDiary   = "diary.update"
	ActionDeleteDiary   = "diary.delete"
	ActionAddComment    = "comment.create"
	ActionDeleteComment = "comment.delete"
)

const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit entry through the context logger.
// The acting profile goes under actor_id so it never collides with the
// profile_id the request logger already carries.
func Log(ctx context.Context, action, actorID, targetID, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldActorID, actorID)
	if targetID != "" {
		evt = evt.Str(log.FieldTargetID, targetID)
	}
	evt.Msg(msg)
}

// LogWithDetail emits an audit entry with an extra detail field.
func LogWithDetail(ctx context.Context, action, actorID, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldActorID, actorID).
		Str(log.FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
