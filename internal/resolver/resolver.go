package resolver

import (
	"context"
	"log/slog"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/logging"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/timeutil"
)

// Provider is the subset of the Cal.com client the resolver reads from.
type Provider interface {
	ListEventTypes(ctx context.Context) calcom.Result
	ListBookings(ctx context.Context, attendeeEmail string) calcom.Result
}

// Resolver fetches entities from a Provider and matches them against names.
type Resolver struct {
	provider Provider
	logger   *slog.Logger
}

// New creates a Resolver. A nil logger uses slog.Default().
func New(provider Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		provider: provider,
		logger:   logging.WithComponent(logger, "resolver"),
	}
}

// ResolveEventType lists the event type catalog and matches name against it.
func (r *Resolver) ResolveEventType(ctx context.Context, name string) outcome.Outcome {
	result := r.provider.ListEventTypes(ctx)

	var catalog []calcom.EventType
	if o, ok := r.decode(result, &catalog); !ok {
		return o
	}

	return FindEventTypeByName(name, catalog)
}

// ResolveBooking lists the upcoming bookings of email and finds the one
// titled name that starts at datetime. An unparseable datetime is reported
// before any request is made.
func (r *Resolver) ResolveBooking(ctx context.Context, email, name, datetime string) (outcome.Outcome, error) {
	if _, err := timeutil.ToUTC(datetime, ""); err != nil {
		return outcome.Outcome{}, err
	}

	result := r.provider.ListBookings(ctx, email)

	var bookings []calcom.Booking
	if o, ok := r.decode(result, &bookings); !ok {
		return o, nil
	}

	return FindBookingByNameAndTime(name, datetime, bookings, r.logger)
}

// decode unpacks the data of a listing. When the listing is unusable it
// returns the outcome to surface instead and false.
func (r *Resolver) decode(result calcom.Result, v any) (outcome.Outcome, bool) {
	if result.IsError() {
		r.logger.Error("Cal.com API request failed", slog.String("message", result.ErrorMessage()))
		return outcome.Error(outcome.CodeCalcomAPIRequestFailed, "Request to Cal.com API failed", result.ErrorDetail()), false
	}

	if !result.HasData() {
		r.logger.Error("unexpected response format", slog.String("status", result.Status))
		return outcome.Error(outcome.CodeUnexpectedResponseFormat, "Unexpected response format from Cal.com API", result), false
	}

	if err := result.DecodeData(v); err != nil {
		r.logger.Error("unexpected response format", logging.Err(err))
		return outcome.Error(outcome.CodeUnexpectedResponseFormat, "Unexpected response format from Cal.com API", result), false
	}

	return outcome.Outcome{}, true
}
