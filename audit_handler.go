package eventstream

import (
	"context"

	"github.com/coregx/eventstream/model"
	"github.com/coregx/eventstream/retry"
)

// securitySensitiveActions are audit actions that touch authentication or
// authorization state. Classification feeds future escalation hooks.
var securitySensitiveActions = map[string]struct{}{
	"LOGIN_SUCCESS":      {},
	"LOGIN_FAILURE":      {},
	"PASSWORD_CHANGE":    {},
	"PERMISSION_CHANGE":  {},
	"ACCOUNT_LOCKED":     {},
	"TOKEN_REVOKED":      {},
	"MFA_DISABLED":       {},
	"API_KEY_GENERATED":  {},
	"ROLE_ASSIGNED":      {},
	"DATA_EXPORT":        {},
	"ACCOUNT_DELETED":    {},
	"SESSION_HIJACK_SUS": {},
}

// immediateAlertActions are audit actions that warrant paging rather than a
// daily review.
var immediateAlertActions = map[string]struct{}{
	"ACCOUNT_LOCKED":     {},
	"SESSION_HIJACK_SUS": {},
	"MFA_DISABLED":       {},
	"DATA_EXPORT":        {},
}

// AuditEventHandler consumes USER_ACTIVITY events and writes the audit trail.
// It runs with 5 retry attempts because losing an audit record is treated as
// more costly than losing an ordinary event.
type AuditEventHandler struct {
	BaseHandler
}

// NewAuditEventHandler creates the audit handler. Pass retry.AuditPolicy()
// unless the deployment tunes the backoff base.
func NewAuditEventHandler(logger Logger, policy retry.Policy) *AuditEventHandler {
	return &AuditEventHandler{
		BaseHandler: NewBaseHandler("AuditEventHandler", logger, policy),
	}
}

// Channel implements EventHandler.
func (h *AuditEventHandler) Channel() string { return model.ChannelAudit }

// EventType implements EventHandler.
func (h *AuditEventHandler) EventType() model.EventType { return model.EventTypeUserActivity }

// Handle implements EventHandler.
func (h *AuditEventHandler) Handle(ctx context.Context, evt model.Event) error {
	return h.Execute(ctx, evt, func(context.Context) error {
		var p model.UserActivityPayload
		if err := evt.DecodePayload(&p); err != nil {
			return err
		}

		tag := "USER_ACTIVITY"
		if IsSecuritySensitive(p.Action) {
			tag = "SECURITY_AUDIT"
		}

		h.logger.Infof("[%s] audit:true, eventId=%s, eventType=%s, userId=%s, action=%s, timestamp=%s, correlationId=%s, metadata=%v",
			tag, evt.EventID, evt.EventType, p.UserID, p.Action,
			evt.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), evt.CorrelationID, p.Metadata)

		if RequiresImmediateAlert(p.Action) {
			h.logger.Warnf("[%s] action %s by user %s requires immediate attention (eventId=%s)",
				tag, p.Action, p.UserID, evt.EventID)
		}
		return nil
	})
}

// IsSecuritySensitive reports whether the audit action touches security
// state. Pure lookup against a fixed set.
func IsSecuritySensitive(action string) bool {
	_, ok := securitySensitiveActions[action]
	return ok
}

// RequiresImmediateAlert reports whether the audit action warrants immediate
// escalation. Pure lookup against a fixed set.
func RequiresImmediateAlert(action string) bool {
	_, ok := immediateAlertActions[action]
	return ok
}
