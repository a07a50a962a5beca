// Package schedule decides when each subscribed chat's daily digest is due.
// The scheduler ticks on a coarse interval; this policy matches the current
// local hour of each subscription against its preferred delivery hour and
// uses the delivered watermark to make sure a digest goes out at most once
// per due hour, however often the tick recurs within it.
package schedule

import (
	"log/slog"
	"time"

	"github.com/ostapenko/digestbot/internal/database"
)

// Policy computes per-chat due state. It holds no mutable state of its own;
// the delivered watermark lives on the subscription record.
type Policy struct {
	defaultZone string
	log         *slog.Logger
}

// NewPolicy creates a scheduling policy. defaultZone is the IANA zone used
// for subscriptions that do not carry their own.
func NewPolicy(defaultZone string, log *slog.Logger) *Policy {
	if log == nil {
		log = slog.Default()
	}
	return &Policy{
		defaultZone: defaultZone,
		log:         log.With("component", "schedule_policy"),
	}
}

// Due reports whether the subscription's digest should be delivered now:
// the subscription is enabled, the current local hour equals its preferred
// delivery hour, and no digest has been delivered for this local hour yet.
func (p *Policy) Due(sub database.ChatSubscription, now time.Time) bool {
	if !sub.Enabled {
		return false
	}

	loc := p.location(sub.Timezone)
	local := now.In(loc)

	if local.Hour() != sub.DigestHour {
		return false
	}

	if sub.LastDigestAt > 0 {
		last := time.Unix(sub.LastDigestAt, 0).In(loc)
		if sameHour(last, local) {
			// Already delivered within this due hour.
			return false
		}
	}

	return true
}

// location resolves a subscription's zone, falling back to the default zone
// and finally UTC. A bad zone name is logged once per evaluation rather than
// failing the sweep.
func (p *Policy) location(name string) *time.Location {
	if name == "" {
		name = p.defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		p.log.Warn("Unknown time zone on subscription, falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// sameHour reports whether two instants fall in the same wall-clock hour of
// the same day. Both must already be in the same location.
func sameHour(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay() && a.Hour() == b.Hour()
}
