package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/resolver"
	"github.com/teemow/calbooker/internal/timeutil"
)

// Provider is the subset of the Cal.com client the service uses.
type Provider interface {
	resolver.Provider
	ListSlots(ctx context.Context, eventTypeID int64, start, end string) calcom.Result
	CreateBooking(ctx context.Context, params calcom.CreateBookingParams) calcom.Result
	CancelBooking(ctx context.Context, uid string) calcom.Result
}

// Service runs booking operations against a Provider.
type Service struct {
	provider Provider
	resolver *resolver.Resolver
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records an outcome metric per operation.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a booking service.
func NewService(provider Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = resolver.New(provider, s.logger)
	s.logger = logging.WithComponent(s.logger, "booking")
	return s
}

// CreateRequest holds the inputs of a booking creation.
type CreateRequest struct {
	EventName     string
	DatetimeStart string
	Timezone      string
	Reason        string
	UserEmail     string
	UserName      string
}

// CancelRequest holds the inputs of a cancellation.
type CancelRequest struct {
	UserEmail     string
	BookingName   string
	DatetimeStart string
}

// BookingInfo is one entry of a booking listing.
type BookingInfo struct {
	UID       string          `json:"uid"`
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime"`
	Status    string          `json:"status"`
	Attendees json.RawMessage `json:"attendees"`
}

// CancelledData is the data of a successful cancellation.
type CancelledData struct {
	CancelledBooking     resolver.BookingMatch `json:"cancelled_booking"`
	CancellationResponse calcom.Result         `json:"cancellation_response"`
}

// CancelFailedData is the data of a cancellation the provider refused.
type CancelFailedData struct {
	FoundBooking      resolver.BookingMatch `json:"found_booking"`
	CancellationError calcom.Result         `json:"cancellation_error"`
}

// Create books EventName at DatetimeStart if that exact instant is an
// available slot. A naive DatetimeStart is read in Timezone.
func (s *Service) Create(ctx context.Context, req CreateRequest) (outcome.Outcome, error) {
	o, err := s.create(ctx, req)
	if err == nil {
		s.record(ctx, instrumentation.BookingCreate, o)
	}
	return o, err
}

func (s *Service) create(ctx context.Context, req CreateRequest) (outcome.Outcome, error) {
	logger := s.logger.With(logging.Operation(instrumentation.BookingCreate), logging.UserHash(req.UserEmail))

	resolved := s.resolver.ResolveEventType(ctx, req.EventName)
	if !resolved.IsSuccess() {
		logger.Debug("event type lookup failed", logging.Code(resolved.Code))
		return resolved, nil
	}

	match, ok := resolved.Data.(resolver.EventTypeMatch)
	if !ok {
		return s.unknownCreate(resolved), nil
	}

	start, err := timeutil.ToUTC(req.DatetimeStart, req.Timezone)
	if err != nil {
		return outcome.Outcome{}, err
	}

	window, err := timeutil.DayRangeUTC(start)
	if err != nil {
		return outcome.Outcome{}, err
	}

	logger.Debug("checking availability",
		slog.Int64("event_type_id", match.ID),
		slog.String("window_start", window.Start),
		slog.String("window_end", window.End))

	slots := s.provider.ListSlots(ctx, match.ID, window.Start, window.End)
	if slots.IsError() {
		logger.Error("failed to get available slots", slog.String("message", slots.ErrorMessage()))
		return outcome.Error(outcome.CodeSlotsRequestFailed, "Failed to retrieve available time slots", slots.ErrorDetail()), nil
	}
	if !slots.IsSuccess() {
		return s.unknownCreate(slots), nil
	}

	var available calcom.Slots
	if err := slots.DecodeData(&available); err != nil {
		logger.Error("unexpected slots response", logging.Err(err))
		return outcome.Error(outcome.CodeUnexpectedResponseFormat, "Unexpected response format from Cal.com API", slots), nil
	}

	for _, slot := range available[window.Date()] {
		if slot.Start != start {
			continue
		}

		created := s.provider.CreateBooking(ctx, calcom.CreateBookingParams{
			Start:       start,
			EventTypeID: match.ID,
			Attendee: calcom.Attendee{
				Name:     req.UserName,
				Email:    req.UserEmail,
				TimeZone: attendeeZone(req.Timezone),
			},
			Notes: req.Reason,
		})
		if created.IsError() {
			logger.Error("booking creation failed", slog.String("message", created.ErrorMessage()))
			return outcome.Error(outcome.CodeCalcomAPIRequestFailed, "Request to Cal.com API failed", created.ErrorDetail()), nil
		}

		logger.Info("booking created", slog.Int64("event_type_id", match.ID), slog.String("start", start))
		return outcome.Success(outcome.CodeAllMatched,
			fmt.Sprintf("Booking created for '%s' at %s.", req.EventName, start), created.Data), nil
	}

	logger.Debug("no exact slot match", slog.String("start", start))
	return outcome.Error(outcome.CodeAvailabilityNoExactMatch,
		fmt.Sprintf("No exact match found for '%s' at %s.", req.EventName, start), slots.Data), nil
}

func (s *Service) unknownCreate(data any) outcome.Outcome {
	return outcome.Error(outcome.CodeUnknown, "Unknown error from `create_a_cal_booking`", data)
}

func attendeeZone(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

// List returns the upcoming bookings of email.
func (s *Service) List(ctx context.Context, email string) outcome.Outcome {
	o := s.list(ctx, email)
	s.record(ctx, instrumentation.BookingList, o)
	return o
}

func (s *Service) list(ctx context.Context, email string) outcome.Outcome {
	result := s.provider.ListBookings(ctx, email)
	if !result.IsSuccess() {
		return outcome.Error(outcome.CodeUnknown, "Unknown error from `list_all_cal_bookings`", result)
	}

	var bookings []calcom.Booking
	if result.HasData() {
		if err := result.DecodeData(&bookings); err != nil {
			s.logger.Error("unexpected bookings response", logging.Err(err))
			return outcome.Error(outcome.CodeUnexpectedResponseFormat, "Unexpected response format from Cal.com API", result)
		}
	}

	if len(bookings) == 0 {
		s.logger.Debug("no bookings found", logging.UserHash(email))
		return outcome.Success(outcome.CodeListBookingsEmpty, fmt.Sprintf("No bookings found for %s", email), []BookingInfo{})
	}

	infos := make([]BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		attendees := b.Attendees
		if len(attendees) == 0 || string(attendees) == "null" {
			attendees = json.RawMessage(`[]`)
		}
		infos = append(infos, BookingInfo{
			UID:       b.UID,
			ID:        b.ID,
			Title:     b.Title,
			StartTime: b.Start,
			EndTime:   b.End,
			Status:    b.Status,
			Attendees: attendees,
		})
	}

	return outcome.Success(outcome.CodeListBookingsSuccess,
		fmt.Sprintf("Successfully retrived a list of bookings relevant to %s", email), infos)
}

// Cancel cancels the booking of UserEmail titled BookingName that starts at
// DatetimeStart. A naive DatetimeStart is read as UTC.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (outcome.Outcome, error) {
	o, err := s.cancel(ctx, req)
	if err == nil {
		s.record(ctx, instrumentation.BookingCancel, o)
	}
	return o, err
}

func (s *Service) cancel(ctx context.Context, req CancelRequest) (outcome.Outcome, error) {
	logger := s.logger.With(logging.Operation(instrumentation.BookingCancel), logging.UserHash(req.UserEmail))

	found, err := s.resolver.ResolveBooking(ctx, req.UserEmail, req.BookingName, req.DatetimeStart)
	if err != nil {
		return outcome.Outcome{}, err
	}
	if !found.IsSuccess() {
		logger.Debug("booking lookup failed", logging.Code(found.Code))
		return found, nil
	}

	match, ok := found.Data.(resolver.BookingMatch)
	if !ok {
		return outcome.Error(outcome.CodeUnknown, "Unknown error from `cancel_a_booking`", found), nil
	}

	result := s.provider.CancelBooking(ctx, match.UID)
	if result.IsSuccess() {
		logger.Info("booking cancelled", slog.String("booking_uid", match.UID))
		return outcome.Success(outcome.CodeBookingFoundAndCancelled,
			fmt.Sprintf("Booking cancelled '%s' at %s", req.BookingName, req.DatetimeStart),
			CancelledData{CancelledBooking: match, CancellationResponse: result}), nil
	}

	logger.Error("failed to cancel booking", slog.String("booking_uid", match.UID), slog.String("message", result.Message()))
	return outcome.Error(outcome.CodeBookingCancellationFailed,
		fmt.Sprintf("Failed to cancel: %s", result.Message()),
		CancelFailedData{FoundBooking: match, CancellationError: result}), nil
}

func (s *Service) record(ctx context.Context, operation string, o outcome.Outcome) {
	s.metrics.RecordBookingOutcome(ctx, operation, o.Code.String())
}
