// Package memory is an in-process implementation of repository.Store.  It
// backs the engine tests and the STORE_DRIVER=memory development mode.
//
// Isolation: unit and booking locks are per-key and held until the
// transaction ends; writes are staged on the transaction and applied
// atomically on Commit.  Readers of a locked unit therefore see either
// the state before or after a conflicting writer, never a partial write.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// Store keeps the catalog and the booking ledger in maps.
type Store struct {
	mu        sync.RWMutex
	roomTypes map[uint64]model.RoomType
	services  map[uint64]model.SeatedService
	bookings  map[string]model.Booking

	locksMu  sync.Mutex
	locks    map[string]chan struct{}
	lockWait time.Duration
}

// New returns an empty store.  lockWait bounds how long a transaction
// waits for a key held by another transaction.
func New(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &Store{
		roomTypes: make(map[uint64]model.RoomType),
		services:  make(map[uint64]model.SeatedService),
		bookings:  make(map[string]model.Booking),
		locks:     make(map[string]chan struct{}),
		lockWait:  lockWait,
	}
}

// PutRoomType adds or replaces a room type in the catalog.
func (s *Store) PutRoomType(rt model.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomTypes[rt.ID] = cloneRoomType(rt)
}

// PutSeatedService adds or replaces a seated service in the catalog.
func (s *Store) PutSeatedService(svc model.SeatedService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = cloneService(svc)
}

// BeginTx starts a transaction.  The memory store has no isolation levels;
// ReadOnly only rejects writes.
func (s *Store) BeginTx(ctx context.Context, opts repository.TxOptions) (repository.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &tx{s: s, readOnly: opts.ReadOnly, held: map[string]bool{}, staged: map[string]model.Booking{}}, nil
}

func (s *Store) lockChan(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

func (s *Store) acquire(ctx context.Context, key string) error {
	ch := s.lockChan(key)
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return repository.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(key string) {
	<-s.lockChan(key)
}

type tx struct {
	s        *Store
	readOnly bool
	done     bool
	held     map[string]bool
	staged   map[string]model.Booking
}

func (t *tx) lock(ctx context.Context, keys []string) error {
	for _, k := range repository.SortedKeys(keys) {
		if t.held[k] {
			continue
		}
		if err := t.s.acquire(ctx, k); err != nil {
			return err
		}
		t.held[k] = true
	}
	return nil
}

func (t *tx) end() {
	t.done = true
	for k := range t.held {
		t.s.release(k)
	}
	t.held = map[string]bool{}
	t.staged = map[string]model.Booking{}
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.s.mu.Lock()
	for id, b := range t.staged {
		t.s.bookings[id] = b
	}
	t.s.mu.Unlock()
	t.end()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.end()
	return nil
}

func (t *tx) LockUnits(ctx context.Context, keys []string) error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	return t.lock(ctx, keys)
}

func (t *tx) RoomType(_ context.Context, id uint64) (*model.RoomType, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	rt, ok := t.s.roomTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneRoomType(rt)
	return &out, nil
}

func (t *tx) SeatedService(_ context.Context, id uint64) (*model.SeatedService, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	svc, ok := t.s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneService(svc)
	return &out, nil
}

// view returns committed bookings overlaid with this transaction's staged writes.
func (t *tx) view() []model.Booking {
	t.s.mu.RLock()
	out := make([]model.Booking, 0, len(t.s.bookings)+len(t.staged))
	for id, b := range t.s.bookings {
		if _, ok := t.staged[id]; ok {
			continue
		}
		out = append(out, b)
	}
	t.s.mu.RUnlock()
	for _, b := range t.staged {
		out = append(out, b)
	}
	return out
}

func (t *tx) CountRoomOverlaps(_ context.Context, roomTypeID uint64, room string, stay model.Stay) (int, error) {
	n := 0
	for _, b := range t.view() {
		if b.ResourceType != model.ResourceHotel || b.ResourceID != roomTypeID || b.Unit != room {
			continue
		}
		if b.Status.Consumes() && stay.Overlaps(b.StartDate, b.EndDate) {
			n++
		}
	}
	return n, nil
}

func (t *tx) SeatsTaken(_ context.Context, mode model.ResourceType, serviceID uint64, class string, date time.Time) (int, error) {
	date = model.DateOf(date)
	n := 0
	for _, b := range t.view() {
		if b.ResourceType != mode || b.ResourceID != serviceID || b.Unit != class {
			continue
		}
		if b.Status.Consumes() && model.DateOf(b.StartDate).Equal(date) {
			n += b.PartySize
		}
	}
	return n, nil
}

func (t *tx) InsertBooking(_ context.Context, b *model.Booking) error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	if _, ok := t.staged[b.ID]; ok {
		return repository.ErrConflict
	}
	t.s.mu.RLock()
	_, exists := t.s.bookings[b.ID]
	t.s.mu.RUnlock()
	if exists {
		return repository.ErrConflict
	}
	t.staged[b.ID] = cloneBooking(*b)
	return nil
}

func (t *tx) Booking(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := t.staged[id]; ok {
		out := cloneBooking(b)
		return &out, nil
	}
	t.s.mu.RLock()
	b, ok := t.s.bookings[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneBooking(b)
	return &out, nil
}

func (t *tx) BookingForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	if t.readOnly {
		return nil, repository.ErrReadOnly
	}
	if err := t.lock(ctx, []string{repository.BookingLockKey(id)}); err != nil {
		return nil, err
	}
	return t.Booking(ctx, id)
}

func (t *tx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	if _, err := t.Booking(ctx, b.ID); err != nil {
		return err
	}
	t.staged[b.ID] = cloneBooking(*b)
	return nil
}

func (t *tx) BookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.view() {
		if b.UserID == userID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneRoomType(rt model.RoomType) model.RoomType {
	rooms := make([]model.PhysicalRoom, len(rt.Rooms))
	for i, r := range rt.Rooms {
		rooms[i] = model.PhysicalRoom{Number: r.Number, UnavailableDates: append([]time.Time(nil), r.UnavailableDates...)}
	}
	rt.Rooms = rooms
	return rt
}

func cloneService(svc model.SeatedService) model.SeatedService {
	svc.FareClasses = append([]model.FareClass(nil), svc.FareClasses...)
	svc.Schedule.OperatingDays = append([]time.Weekday(nil), svc.Schedule.OperatingDays...)
	return svc
}

func cloneBooking(b model.Booking) model.Booking {
	b.Passengers = append([]model.Passenger(nil), b.Passengers...)
	b.Pricing.AddOns = append([]model.AddOn(nil), b.Pricing.AddOns...)
	if b.Cancellation.CancelledAt != nil {
		at := *b.Cancellation.CancelledAt
		b.Cancellation.CancelledAt = &at
	}
	return b
}
