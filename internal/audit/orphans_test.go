package audit

import (
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuses struct {
	buses []*model.Bus
	err   error
}

func (f fakeBuses) FindWithBookedSeats(context.Context) ([]*model.Bus, error) {
	return f.buses, f.err
}

type fakeBookings map[string][]*model.Booking

func (f fakeBookings) FindConfirmedByBus(_ context.Context, busID string) ([]*model.Booking, error) {
	if busID == "broken" {
		return nil, errors.New("boom")
	}
	return f[busID], nil
}

func TestFindOrphans(t *testing.T) {
	buses := fakeBuses{buses: []*model.Bus{
		{ID: "a", BusName: "Alpha", Date: "2026-03-12", SeatsBooked: []int{1, 2, 3, 7}},
		{ID: "b", Date: "2026-03-12", SeatsBooked: []int{5}},
	}}
	bookings := fakeBookings{
		"a": {{Seats: []int{1, 2}}, {Seats: []int{3}}},
		"b": {{Seats: []int{5}}},
	}

	reports, err := NewAuditor(buses, bookings, logger.Discard()).FindOrphans(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, Report{BusID: "a", BusName: "Alpha", Date: "2026-03-12", OrphanSeats: []int{7}}, reports[0])
}

func TestFindOrphans_Clean(t *testing.T) {
	reports, err := NewAuditor(fakeBuses{}, fakeBookings{}, logger.Discard()).FindOrphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.NotNil(t, reports)
}

func TestFindOrphans_Errors(t *testing.T) {
	_, err := NewAuditor(fakeBuses{err: errors.New("down")}, fakeBookings{}, logger.Discard()).FindOrphans(context.Background())
	assert.ErrorContains(t, err, "failed to list buses")

	broken := fakeBuses{buses: []*model.Bus{{ID: "broken", SeatsBooked: []int{1}}}}
	_, err = NewAuditor(broken, fakeBookings{}, logger.Discard()).FindOrphans(context.Background())
	assert.ErrorContains(t, err, "bus broken")
}
