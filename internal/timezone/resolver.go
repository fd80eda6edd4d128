// Package timezone picks the IANA zone a plan is interpreted in.
package timezone

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teemow/textcal/internal/logging"
)

// Fallback is used when neither the caller nor the remote service supplies a zone.
const Fallback = "UTC"

// DefaultSource reports the user's stored default zone.
type DefaultSource interface {
	GetDefaultTimezone(ctx context.Context) (string, error)
}

// Resolver chooses between an explicit zone, the remote default and Fallback.
type Resolver struct {
	source DefaultSource
	logger *slog.Logger
}

// NewResolver creates a Resolver. source may be nil, in which case only
// explicit values and Fallback are used.
func NewResolver(source DefaultSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logging.WithComponent(logger, "timezone"),
	}
}

// Resolve returns explicit unchanged when it is non-empty. Otherwise it asks
// the remote service, and falls back to "UTC" on any error or empty answer.
// The explicit value is not validated.
func (r *Resolver) Resolve(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if r.source == nil {
		return Fallback
	}

	tz, err := r.source.GetDefaultTimezone(ctx)
	if err != nil {
		r.logger.Warn("failed to read default time zone, using fallback",
			logging.TimeZone(Fallback), logging.Err(err))
		return Fallback
	}
	tz = strings.TrimSpace(tz)
	if tz == "" {
		r.logger.Warn("remote default time zone is empty, using fallback",
			logging.TimeZone(Fallback))
		return Fallback
	}
	return tz
}
