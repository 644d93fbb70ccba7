package repository

import (
	buserrors "busbook/internal/buses/errors"
	"busbook/pkg/config"
	mongotx "busbook/pkg/db/mongo"
	"busbook/pkg/model"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Buses"
)

type BusRepository interface {
	Create(ctx context.Context, bus *model.Bus) error
	FindByID(ctx context.Context, id string) (*model.Bus, error)
	Search(ctx context.Context, filter model.BusSearchFilter) ([]*model.Bus, error)
	// SaveSeatState writes seats_booked, seat_locks and confirmations only if
	// the stored version still equals bus.Version, then bumps the version.
	SaveSeatState(ctx context.Context, bus *model.Bus) error
	DeleteDatedBefore(ctx context.Context, date string) (int64, error)
	FindWithBookedSeats(ctx context.Context) ([]*model.Bus, error)
}

type mongoBusRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBusRepository(cfg *config.Config) BusRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBusRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBusRepository) Create(ctx context.Context, bus *model.Bus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bus.CreatedAt = now
	bus.UpdatedAt = now
	bus.Version = 0

	result, err := r.collection.InsertOne(ctx, bus)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bus.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBusRepository) FindByID(ctx context.Context, id string) (*model.Bus, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", buserrors.ErrInvalidID, id)
	}

	var bus model.Bus
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bus)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, buserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bus: %w", err)
	}

	return &bus, nil
}

func (r *mongoBusRepository) Search(ctx context.Context, filter model.BusSearchFilter) ([]*model.Bus, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "departure_time", Value: 1}}).
		SetProjection(bson.M{"confirmations": 0})

	cursor, err := r.collection.Find(ctx, buildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search buses: %w", err)
	}
	defer cursor.Close(ctx)

	buses := []*model.Bus{}
	if err = cursor.All(ctx, &buses); err != nil {
		return nil, fmt.Errorf("failed to decode buses: %w", err)
	}

	return buses, nil
}

func buildSearchFilter(filter model.BusSearchFilter) bson.M {
	query := bson.M{}
	if filter.Source != "" {
		query["source"] = exactCaseInsensitive(filter.Source)
	}
	if filter.Destination != "" {
		query["destination"] = exactCaseInsensitive(filter.Destination)
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	return query
}

func exactCaseInsensitive(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

func (r *mongoBusRepository) SaveSeatState(ctx context.Context, bus *model.Bus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bus.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", buserrors.ErrInvalidID, bus.ID)
	}

	filter := bson.M{"_id": objectID, "version": bus.Version}
	if bus.Version == 0 {
		// documents inserted before versioning have no version field
		filter = bson.M{
			"_id": objectID,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}

	update := bson.M{
		"$set": seatStateSet(bus),
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save seat state: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check bus existence: %w", err)
		}
		if count == 0 {
			return buserrors.ErrNotFound
		}
		return buserrors.ErrVersionConflict
	}

	bus.Version++
	return nil
}

// seatStateSet builds the $set document for a seat-state write. Nil slices
// become empty arrays; the collection schema rejects null.
func seatStateSet(bus *model.Bus) bson.M {
	seatsBooked := bus.SeatsBooked
	if seatsBooked == nil {
		seatsBooked = []int{}
	}
	seatLocks := bus.SeatLocks
	if seatLocks == nil {
		seatLocks = []model.SeatLock{}
	}
	confirmations := bus.Confirmations
	if confirmations == nil {
		confirmations = []model.Confirmation{}
	}

	return bson.M{
		"seats_booked":  seatsBooked,
		"seat_locks":    seatLocks,
		"confirmations": confirmations,
		"updated_at":    bus.UpdatedAt,
	}
}

func (r *mongoBusRepository) DeleteDatedBefore(ctx context.Context, date string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": date}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired buses: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoBusRepository) FindWithBookedSeats(ctx context.Context) ([]*model.Bus, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetProjection(bson.M{"seat_locks": 0, "confirmations": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"seats_booked.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find buses with booked seats: %w", err)
	}
	defer cursor.Close(ctx)

	var buses []*model.Bus
	if err = cursor.All(ctx, &buses); err != nil {
		return nil, fmt.Errorf("failed to decode buses: %w", err)
	}
	return buses, nil
}
