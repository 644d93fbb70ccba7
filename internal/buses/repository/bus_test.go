package repository

import (
	"busbook/pkg/model"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildSearchFilter_Empty(t *testing.T) {
	if got := buildSearchFilter(model.BusSearchFilter{}); len(got) != 0 {
		t.Errorf("expected empty filter, got %v", got)
	}
}

func TestBuildSearchFilter_AllFields(t *testing.T) {
	got := buildSearchFilter(model.BusSearchFilter{Source: "Pune", Destination: "Goa", Date: "2026-04-01"})

	src, ok := got["source"].(primitive.Regex)
	if !ok {
		t.Fatalf("source filter = %T, want primitive.Regex", got["source"])
	}
	if src.Pattern != "^Pune$" || src.Options != "i" {
		t.Errorf("source regex = %+v", src)
	}
	if got["date"] != "2026-04-01" {
		t.Errorf("date filter = %v", got["date"])
	}
}

func TestExactCaseInsensitive_EscapesMeta(t *testing.T) {
	re := exactCaseInsensitive("St. Louis (MO)")
	if re.Pattern != `^St\. Louis \(MO\)$` {
		t.Errorf("pattern = %q", re.Pattern)
	}
}

func TestBusDocument_BSONFieldNames(t *testing.T) {
	raw, err := bson.Marshal(model.Bus{BusName: "X", SeatsBooked: []int{1}, Version: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"bus_name", "seats_booked", "seat_locks", "version", "total_seats"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("expected bson key %q in %v", key, doc)
		}
	}
	if _, ok := doc["_id"]; ok {
		t.Error("empty id must be omitted so Mongo generates one")
	}
}

func TestSeatStateSet_NeverWritesNullArrays(t *testing.T) {
	tests := []struct {
		name string
		bus  *model.Bus
	}{
		{name: "fresh bus", bus: &model.Bus{}},
		{name: "locks only", bus: &model.Bus{SeatLocks: []model.SeatLock{{SeatNumber: 2}}}},
		{name: "confirmed", bus: &model.Bus{
			SeatsBooked:   []int{1},
			Confirmations: []model.Confirmation{{TransactionID: "TXN_1", Seats: []int{1}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(seatStateSet(tt.bus))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			for _, key := range []string{"seats_booked", "seat_locks", "confirmations"} {
				val, err := bson.Raw(raw).LookupErr(key)
				if err != nil {
					t.Fatalf("missing %q: %v", key, err)
				}
				if val.Type != bsontype.Array {
					t.Errorf("%s encodes as %s, want array", key, val.Type)
				}
			}
		})
	}
}
