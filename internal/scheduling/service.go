package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/availability"
	"github.com/carelane/hospital-platform/internal/observability/metrics"
	"github.com/carelane/hospital-platform/pkg/logging"
)

var tracer = otel.Tracer("hospital.internal.scheduling")

// slotStepMinutes is the fixed slot granularity. Appointment duration is not
// modeled beyond this step.
const slotStepMinutes = 30

// DateLayout is the wire format for dates throughout the booking API.
const DateLayout = "2006-01-02"

// Service derives bookable slots and commits bookings against the ledger.
// The slot list is an optimistic preview; Create on the ledger is the
// authoritative gate.
type Service struct {
	windows availability.Store
	ledger  appointments.Ledger
	cache   *SlotCache
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs a scheduling service. cache and m may be nil.
func NewService(windows availability.Store, ledger appointments.Ledger, cache *SlotCache, loc *time.Location, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if windows == nil {
		panic("scheduling: availability store required")
	}
	if ledger == nil {
		panic("scheduling: appointment ledger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		windows: windows,
		ledger:  ledger,
		cache:   cache,
		metrics: m,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// ParseDate parses a YYYY-MM-DD string in the clinic timezone.
func (s *Service) ParseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// AvailableSlots returns the bookable "HH:MM" start times for (doctor, date)
// in ascending order. A doctor with no window on that weekday yields an
// empty list, not an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, span := tracer.Start(ctx, "scheduling.available_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("hospital.doctor_id", doctorID.String()),
		attribute.String("hospital.date", date.Format(DateLayout)),
	)

	started := s.now()
	dateKey := date.Format(DateLayout)
	if cached, ok := s.cache.Get(ctx, doctorID, dateKey); ok {
		s.metrics.ObserveSlotQuery(time.Since(started).Seconds(), true)
		s.metrics.ObserveSlotsReturned(len(cached))
		return cached, nil
	}

	slots, err := s.computeSlots(ctx, doctorID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.cache.Set(ctx, doctorID, dateKey, slots)
	s.metrics.ObserveSlotQuery(time.Since(started).Seconds(), false)
	s.metrics.ObserveSlotsReturned(len(slots))
	return slots, nil
}

func (s *Service) computeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	window, err := s.windows.Get(ctx, doctorID, date.Weekday())
	if err != nil {
		if errors.Is(err, availability.ErrNoWindow) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("scheduling: fetch window: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	booked, err := s.ledger.BookedTimes(ctx, doctorID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("scheduling: fetch booked times: %w", err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, at := range booked {
		taken[at.In(s.loc).Format("15:04")] = struct{}{}
	}

	now := s.now()
	slots := []string{}
	for t := window.Start; t < window.End; t += slotStepMinutes {
		if _, occupied := taken[t.String()]; occupied {
			continue
		}
		if !t.At(date, s.loc).After(now) {
			continue
		}
		slots = append(slots, t.String())
	}
	return slots, nil
}

// Book validates the requested slot and commits it. The conflict check is
// re-run inside the ledger at commit time; a stale preview surfaces as
// appointments.ErrSlotTaken, never as a silent double booking.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, timeOfDay string) (*appointments.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("hospital.patient_id", patientID.String()),
		attribute.String("hospital.doctor_id", doctorID.String()),
		attribute.String("hospital.slot", timeOfDay),
	)

	tod, err := availability.ParseTimeOfDay(timeOfDay)
	if err != nil || int(tod)%slotStepMinutes != 0 {
		s.metrics.ObserveBooking("invalid")
		return nil, ErrInvalidSlot
	}

	window, err := s.windows.Get(ctx, doctorID, date.Weekday())
	if err != nil {
		if errors.Is(err, availability.ErrNoWindow) {
			s.metrics.ObserveBooking("invalid")
			return nil, ErrInvalidSlot
		}
		s.metrics.ObserveBooking("error")
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: fetch window: %w", err)
	}
	if tod < window.Start || tod >= window.End {
		s.metrics.ObserveBooking("invalid")
		return nil, ErrInvalidSlot
	}

	at := tod.At(date, s.loc)
	if !at.After(s.now()) {
		s.metrics.ObserveBooking("invalid")
		return nil, ErrInvalidSlot
	}

	appt, err := s.ledger.Create(ctx, patientID, doctorID, at.UTC())
	if err != nil {
		if errors.Is(err, appointments.ErrSlotTaken) {
			s.metrics.ObserveBooking("conflict")
			return nil, err
		}
		s.metrics.ObserveBooking("error")
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveBooking("committed")
	s.cache.Invalidate(ctx, doctorID, date.Format(DateLayout))
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", patientID,
		"doctor_id", doctorID,
		"scheduled_at", appt.ScheduledAt,
	)
	return appt, nil
}

// InvalidateDay drops the cached slot list covering at for the doctor.
// Wired to cancellation so freed slots reappear without waiting out the TTL.
func (s *Service) InvalidateDay(ctx context.Context, doctorID uuid.UUID, at time.Time) {
	s.cache.Invalidate(ctx, doctorID, at.In(s.loc).Format(DateLayout))
}
