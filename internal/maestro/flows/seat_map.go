package flows

import (
	maestro "busbook/internal/maestro/core"
	"busbook/pkg/model"
	"errors"
	"sync"
	"time"
)

type SeatMap struct {
	BusID      string `json:"busId"`
	BusName    string `json:"busName"`
	Date       string `json:"date"`
	TotalSeats int    `json:"totalSeats"`
	Booked     []int  `json:"booked"`
	Locked     []int  `json:"locked"`
	Available  []int  `json:"available"`
}

// SeatMapFlow fetches one or more buses and reports which seats are free.
func SeatMapFlow(now func() time.Time) maestro.Flow {
	return maestro.NewFlow(SeatMapFlowName,
		maestro.NewStep("fetch_seat_maps", func(ctx *maestro.MaestroContext) error {
			return FetchSeatMaps(ctx, now())
		}),
	)
}

// FetchSeatMaps accepts bus_id or bus_ids and fetches the buses concurrently.
func FetchSeatMaps(ctx *maestro.MaestroContext, now time.Time) error {
	ids, err := busIDs(ctx)
	if err != nil {
		return err
	}

	maps := make([]*SeatMap, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			maestro.RunWithRateLimitedConcurrency(func() {
				bus, err := ctx.API.Buses.GetByID(ctx.Ctx, id)
				if err != nil {
					errs[i] = err
					return
				}
				maps[i] = BuildSeatMap(bus, now)
			})
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	ctx.Output[SEAT_MAPS] = maps
	return nil
}

func busIDs(ctx *maestro.MaestroContext) ([]string, error) {
	if _, ok := ctx.Input[BUS_IDS]; ok {
		ids, err := ctx.ExtractStringList(BUS_IDS)
		if err != nil {
			return nil, err
		}
		if len(ids) > MaxBusesPerSeatMap {
			return nil, maestro.InvalidParamErr(BUS_IDS, "has too many entries")
		}
		return ids, nil
	}
	id, err := ctx.ExtractString(BUS_ID)
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

// BuildSeatMap computes available = totalSeats - booked - live locks.
func BuildSeatMap(bus *model.Bus, now time.Time) *SeatMap {
	locked := []int{}
	for seat := 1; seat <= bus.TotalSeats; seat++ {
		if !bus.IsBooked(seat) && bus.LiveLock(seat, now) != nil {
			locked = append(locked, seat)
		}
	}
	booked := bus.SeatsBooked
	if booked == nil {
		booked = []int{}
	}
	return &SeatMap{
		BusID:      bus.ID,
		BusName:    bus.BusName,
		Date:       bus.Date,
		TotalSeats: bus.TotalSeats,
		Booked:     booked,
		Locked:     locked,
		Available:  bus.AvailableSeats(now),
	}
}
