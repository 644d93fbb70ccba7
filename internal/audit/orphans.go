package audit

import (
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
	"context"
	"fmt"
)

// Report lists booked seats on one bus that no confirmed booking accounts for.
type Report struct {
	BusID       string `json:"busId"`
	BusName     string `json:"busName"`
	Date        string `json:"date"`
	OrphanSeats []int  `json:"orphanSeats"`
}

type BusSource interface {
	FindWithBookedSeats(ctx context.Context) ([]*model.Bus, error)
}

type BookingSource interface {
	FindConfirmedByBus(ctx context.Context, busID string) ([]*model.Booking, error)
}

type Auditor struct {
	buses    BusSource
	bookings BookingSource
	log      *logger.Logger
}

func NewAuditor(buses BusSource, bookings BookingSource, log *logger.Logger) *Auditor {
	return &Auditor{buses: buses, bookings: bookings, log: log}
}

// FindOrphans is read-only. Seats are orphaned when a confirm succeeded but
// the booking record was never written.
func (a *Auditor) FindOrphans(ctx context.Context) ([]Report, error) {
	buses, err := a.buses.FindWithBookedSeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}

	reports := []Report{}
	for _, bus := range buses {
		bookings, err := a.bookings.FindConfirmedByBus(ctx, bus.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings for bus %s: %w", bus.ID, err)
		}

		accounted := []int{}
		for _, b := range bookings {
			accounted = sanitizer.MergeSeats(accounted, b.Seats)
		}

		orphans := sanitizer.RemoveSeats(bus.SeatsBooked, accounted)
		if len(orphans) == 0 {
			continue
		}
		a.log.Warn("Orphan seats found", "bus_id", bus.ID, "date", bus.Date, "seats", orphans)
		reports = append(reports, Report{
			BusID:       bus.ID,
			BusName:     bus.BusName,
			Date:        bus.Date,
			OrphanSeats: sanitizer.NormalizeSeats(orphans),
		})
	}

	a.log.Info("Orphan audit finished", "buses_checked", len(buses), "buses_with_orphans", len(reports))
	return reports, nil
}
