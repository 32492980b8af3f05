package audit

import (
	"time"

	id "entgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing per category.
type EventCategory string

const (
	// CategoryCompliance covers events with contractual significance:
	// entitlement grants and revocations change what a user is owed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: forbidden administrative attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and visibility.
	// Examples: quota resolutions falling back to the default plan.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Action    string
	Feature   string
	Decision  string
	Reason    string
	// ActorEmail tracks who performed the action when different from UserID.
	// Administrative grants are performed by staff on a user's behalf.
	ActorEmail string
	RequestID  string
}

type AuditEvent string

const (
	EventEntitlementGranted   AuditEvent = "entitlement_granted"
	EventEntitlementRevoked   AuditEvent = "entitlement_revoked"
	EventEntitlementForbidden AuditEvent = "entitlement_forbidden"
	EventEarlyAccessListed    AuditEvent = "early_access_listed"
	EventQuotaDefaulted       AuditEvent = "quota_defaulted"
)

// eventCategories is the single source of truth for action classification.
var eventCategories = map[AuditEvent]EventCategory{
	EventEntitlementGranted:   CategoryCompliance,
	EventEntitlementRevoked:   CategoryCompliance,
	EventEntitlementForbidden: CategorySecurity,
	EventEarlyAccessListed:    CategoryOperations,
	EventQuotaDefaulted:       CategoryOperations,
}

// Category returns the category for this event, defaulting to operations for
// unknown actions so nothing is silently dropped.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
