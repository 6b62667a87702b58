// Package analytics captures profile view and link click events and
// maintains the per-profile summary counters behind the dashboard.
package analytics

import (
	"fmt"

	"github.com/tipgrid/tipgrid/internal/model"
)

const (
	maxProfileIDLength = 64
	maxLinkTypeLength  = 50
	maxLinkURLLength   = 2048
	maxVisitorIDLength = 64
	maxMetaLength      = 500
)

// ValidateEventPayload validates event payload fields before they are
// accepted into the event log.
func ValidateEventPayload(payload EventPayload) error {
	if payload.ProfileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	if len(payload.ProfileID) > maxProfileIDLength {
		return fmt.Errorf("profile_id too long")
	}
	if !model.EventType(payload.Type).IsValid() {
		return fmt.Errorf("type must be %q or %q", model.EventProfileView, model.EventLinkClick)
	}
	if model.EventType(payload.Type) == model.EventLinkClick {
		if payload.LinkType == "" {
			return fmt.Errorf("link_type is required for link clicks")
		}
		if len(payload.LinkType) > maxLinkTypeLength {
			return fmt.Errorf("link_type too long")
		}
		if len(payload.LinkURL) > maxLinkURLLength {
			return fmt.Errorf("link_url too long")
		}
	}
	if payload.VisitorID == "" {
		return fmt.Errorf("visitor_id is required")
	}
	if len(payload.VisitorID) > maxVisitorIDLength {
		return fmt.Errorf("visitor_id too long")
	}
	if payload.AcceptedAt <= 0 {
		return fmt.Errorf("accepted_at must be set")
	}
	if len(payload.Referrer) > maxMetaLength {
		return fmt.Errorf("referrer too long")
	}
	if len(payload.UserAgent) > maxMetaLength {
		return fmt.Errorf("user_agent too long")
	}
	return nil
}
