package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// TxOptions mirrors the subset of sql.TxOptions the engine cares about.
// Writers are isolated from each other by LockUnits, not by the
// transaction isolation level.
type TxOptions struct {
	ReadOnly bool
}

// Store opens transactions.  Every read and write the engine performs goes
// through an explicit Tx handle; there is no ambient session.
type Store interface {
	BeginTx(ctx context.Context, opts TxOptions) (Tx, error)
}

// Tx is one unit of work against the catalog and the booking ledger.
type Tx interface {
	// RoomType loads a room type with its rooms in catalog order.
	RoomType(ctx context.Context, id uint64) (*model.RoomType, error)
	// SeatedService loads a service with its fare classes and schedule.
	SeatedService(ctx context.Context, id uint64) (*model.SeatedService, error)

	// LockUnits takes exclusive locks on the given inventory keys, held
	// until commit or rollback.  Keys are acquired in sorted order.
	LockUnits(ctx context.Context, keys []string) error

	// CountRoomOverlaps counts active bookings of one room whose stay
	// overlaps [stay.CheckIn, stay.CheckOut).
	CountRoomOverlaps(ctx context.Context, roomTypeID uint64, room string, stay model.Stay) (int, error)
	// SeatsTaken sums the party sizes of active bookings for a fare class
	// on an exact date.
	SeatsTaken(ctx context.Context, mode model.ResourceType, serviceID uint64, class string, date time.Time) (int, error)

	InsertBooking(ctx context.Context, b *model.Booking) error
	Booking(ctx context.Context, id string) (*model.Booking, error)
	// BookingForUpdate loads a booking and locks its row until the
	// transaction ends.
	BookingForUpdate(ctx context.Context, id string) (*model.Booking, error)
	// UpdateBooking persists status, payment and cancellation fields.
	UpdateBooking(ctx context.Context, b *model.Booking) error
	BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)

	Commit() error
	Rollback() error
}

// RoomLockKey identifies one night of one physical room.
func RoomLockKey(roomTypeID uint64, room string, night time.Time) string {
	return fmt.Sprintf("room:%d:%s:%s", roomTypeID, room, model.DateOf(night).Format(model.DateLayout))
}

// SeatLockKey identifies one fare class of one service on one date.
func SeatLockKey(mode model.ResourceType, serviceID uint64, class string, date time.Time) string {
	return fmt.Sprintf("seat:%s:%d:%s:%s", mode, serviceID, class, model.DateOf(date).Format(model.DateLayout))
}

// BookingLockKey identifies a single ledger row.
func BookingLockKey(id string) string { return "booking:" + id }

// SortedKeys returns the keys deduplicated and in ascending order, the
// order every store acquires them in.
func SortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
