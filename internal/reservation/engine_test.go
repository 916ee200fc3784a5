package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-reservation/internal/availability"
	"github.com/iliyamo/travel-reservation/internal/cancellation"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
	"github.com/iliyamo/travel-reservation/internal/repository/memory"
	"github.com/iliyamo/travel-reservation/internal/reservation"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
)

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType
	}
	return out
}

// mapCache keeps results per resource generation like the Redis cache does.
type mapCache struct {
	mu          sync.Mutex
	gens        map[string]int64
	entries     map[string]availability.Result
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{gens: map[string]int64{}, entries: map[string]availability.Result{}}
}

func (c *mapCache) key(rt model.ResourceType, id uint64, gen int64, variant string) string {
	return fmt.Sprintf("%s:%d:g%d:%s", rt, id, gen, variant)
}

func (c *mapCache) Get(_ context.Context, rt model.ResourceType, id uint64, variant string) (availability.Result, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[fmt.Sprintf("%s:%d", rt, id)]
	res, ok := c.entries[c.key(rt, id, gen, variant)]
	return res, gen, ok
}

func (c *mapCache) Set(_ context.Context, rt model.ResourceType, id uint64, gen int64, variant string, res availability.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(rt, id, gen, variant)] = res
}

func (c *mapCache) Invalidate(_ context.Context, rt model.ResourceType, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[fmt.Sprintf("%s:%d", rt, id)]++
	c.invalidated++
}

// hookedStore runs afterRead once, right after the next read-only
// transaction has ended.
type hookedStore struct {
	repository.Store
	mu        sync.Mutex
	afterRead func()
}

func (s *hookedStore) BeginTx(ctx context.Context, opts repository.TxOptions) (repository.Tx, error) {
	tx, err := s.Store.BeginTx(ctx, opts)
	if err != nil || !opts.ReadOnly {
		return tx, err
	}
	s.mu.Lock()
	hook := s.afterRead
	s.afterRead = nil
	s.mu.Unlock()
	if hook == nil {
		return tx, nil
	}
	return &hookedTx{Tx: tx, after: hook}, nil
}

type hookedTx struct {
	repository.Tx
	after func()
}

func (t *hookedTx) Rollback() error {
	err := t.Tx.Rollback()
	t.after()
	return err
}

func deluxe() model.RoomType {
	return model.RoomType{
		ID:            1,
		Name:          "Deluxe",
		PricePerNight: 2000,
		MaxOccupancy:  2,
		Currency:      "INR",
		CheckInTime:   "14:00",
		Refundable:    true,
		Rooms:         []model.PhysicalRoom{{Number: "101"}, {Number: "102"}},
	}
}

func express() model.SeatedService {
	return model.SeatedService{
		ID:       7,
		Mode:     model.ResourceTrain,
		Code:     "EXP-7",
		Name:     "Express",
		Currency: "INR",
		FareClasses: []model.FareClass{
			{Code: "EC", Name: "Economy", BasePrice: 500, Taxes: 50, TaxMode: model.TaxPerPassenger, TotalSeats: 2, Refundable: true},
			{Code: "SV", Name: "Saver", BasePrice: 300, TotalSeats: 40, Refundable: false},
			{Code: "BIG", Name: "Sleeper", BasePrice: 800, TotalSeats: 5, Refundable: true},
		},
		Schedule: model.Schedule{
			ValidFrom:     day("2030-01-01"),
			ValidTo:       day("2030-12-31"),
			Frequency:     model.FrequencyDaily,
			DepartureTime: "08:30",
		},
	}
}

type fixture struct {
	store     *memory.Store
	clock     *clock
	publisher *recordingPublisher
	cache     *mapCache
	engine    *reservation.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(2 * time.Second)
	store.PutRoomType(deluxe())
	store.PutSeatedService(express())
	f := &fixture{
		store:     store,
		clock:     &clock{now: time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
		cache:     newMapCache(),
	}
	f.engine = reservation.New(store, reservation.Config{
		Policy: cancellation.NewPolicy(cancellation.DefaultFlatFee),
		Now:    f.clock.Now,
	}, reservation.WithPublisher(f.publisher), reservation.WithAvailabilityCache(f.cache))
	return f
}

func roomRequest(user uint64, room, in, out string, party int) reservation.CreateRequest {
	return reservation.CreateRequest{
		UserID:       user,
		ResourceType: model.ResourceHotel,
		ResourceID:   1,
		Unit:         room,
		CheckIn:      day(in),
		CheckOut:     day(out),
		PartySize:    party,
		Payment:      reservation.PaymentInfo{Method: "card", TransactionID: "txn-1"},
	}
}

func seatRequest(user uint64, class, date string, party int) reservation.CreateRequest {
	return reservation.CreateRequest{
		UserID:       user,
		ResourceType: model.ResourceTrain,
		ResourceID:   7,
		Unit:         class,
		Date:         day(date),
		PartySize:    party,
		Payment:      reservation.PaymentInfo{Method: "card", TransactionID: "txn-2"},
	}
}

func requireKind(t *testing.T, err error, kind reservation.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, reservation.KindOf(err), err.Error())
}

func TestCreateBooking_RoomScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(4000), b.Pricing.BasePrice)
	assert.Equal(t, int64(4000), b.Pricing.Total)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, model.PaymentCompleted, b.Payment.Status)
	assert.Equal(t, time.Date(2030, 3, 10, 14, 0, 0, 0, time.UTC), b.DepartureAt)
	assert.NotEmpty(t, b.ID)

	_, err = f.engine.CreateBooking(ctx, roomRequest(bob, "101", "2030-03-11", "2030-03-13", 1))
	requireKind(t, err, reservation.KindConflict)
	assert.True(t, reservation.Retryable(err))

	_, err = f.engine.CreateBooking(ctx, roomRequest(bob, "101", "2030-03-12", "2030-03-14", 1))
	require.NoError(t, err, "stay starting on the previous check-out day does not overlap")
}

func TestCreateBooking_AutoAssignsFirstFreeRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.engine.CreateBooking(ctx, roomRequest(alice, "", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)
	assert.Equal(t, "101", first.Unit)

	second, err := f.engine.CreateBooking(ctx, roomRequest(bob, "", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)
	assert.Equal(t, "102", second.Unit)

	_, err = f.engine.CreateBooking(ctx, roomRequest(bob, "", "2030-03-11", "2030-03-12", 1))
	requireKind(t, err, reservation.KindConflict)
}

func TestCreateBooking_ConcurrentLastSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CreateBooking(ctx, seatRequest(uint64(i+1), "EC", "2030-03-05", 2))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, reservation.KindConflict, reservation.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	res, err := f.engine.CheckAvailability(ctx, reservation.AvailabilityQuery{
		ResourceType: model.ResourceTrain, ResourceID: 7, Unit: "EC", Date: day("2030-03-05"), PartySize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingUnits, "exactly two seats consumed")
}

func TestCreateBooking_NeverOversells(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.CreateBooking(ctx, seatRequest(uint64(i+1), "BIG", "2030-03-06", 1))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
}

func TestCreateBooking_SeatPricing(t *testing.T) {
	f := newFixture(t)

	b, err := f.engine.CreateBooking(context.Background(), reservation.CreateRequest{
		UserID:       alice,
		ResourceType: model.ResourceTrain,
		ResourceID:   7,
		Unit:         "ec",
		Date:         day("2030-03-05"),
		PartySize:    2,
		Passengers:   []model.Passenger{{Name: "A"}, {Name: "B"}},
		AddOns:       []model.AddOn{{Name: "meal", Price: 120}},
		Discount:     20,
	})
	require.NoError(t, err)
	assert.Equal(t, "EC", b.Unit)
	assert.Equal(t, int64(1000), b.Pricing.BasePrice)
	assert.Equal(t, int64(100), b.Pricing.Taxes)
	assert.Equal(t, int64(1000+100+120-20), b.Pricing.Total)
	assert.Equal(t, model.StatusPending, b.Status, "no captured payment")
	assert.Equal(t, time.Date(2030, 3, 5, 8, 30, 0, 0, time.UTC), b.DepartureAt)
	assert.Equal(t, day("2030-03-06"), b.EndDate)
}

func TestCreateBooking_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		req  reservation.CreateRequest
		kind reservation.Kind
	}{
		{"zero party", roomRequest(alice, "101", "2030-03-10", "2030-03-12", 0), reservation.KindInvalidInput},
		{"inverted stay", roomRequest(alice, "101", "2030-03-12", "2030-03-10", 1), reservation.KindInvalidInput},
		{"past check-in", roomRequest(alice, "101", "2030-02-10", "2030-02-12", 1), reservation.KindInvalidInput},
		{"over occupancy", roomRequest(alice, "101", "2030-03-10", "2030-03-12", 3), reservation.KindCapacityExceeded},
		{"unknown room", roomRequest(alice, "999", "2030-03-10", "2030-03-12", 1), reservation.KindNotFound},
		{"unknown room before occupancy", roomRequest(alice, "999", "2030-03-10", "2030-03-12", 3), reservation.KindNotFound},
		{"stay over the night limit", roomRequest(alice, "101", "2030-03-10", "2030-04-10", 1), reservation.KindInvalidInput},
		{"open-ended stay", roomRequest(alice, "101", "2030-03-10", "9999-12-31", 1), reservation.KindInvalidInput},
		{"unknown class", seatRequest(alice, "1A", "2030-03-05", 1), reservation.KindNotFound},
		{"more than class capacity", seatRequest(alice, "EC", "2030-03-05", 3), reservation.KindCapacityExceeded},
		{"outside schedule", seatRequest(alice, "EC", "2031-01-05", 1), reservation.KindInvalidInput},
		{"departed", seatRequest(alice, "EC", "2030-03-01", 1), reservation.KindInvalidInput},
		{"missing class", seatRequest(alice, "", "2030-03-05", 1), reservation.KindInvalidInput},
		{"anonymous", roomRequest(0, "101", "2030-03-10", "2030-03-12", 1), reservation.KindUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateBooking(ctx, tc.req)
			requireKind(t, err, tc.kind)
		})
	}

	missing := roomRequest(alice, "101", "2030-03-10", "2030-03-12", 1)
	missing.ResourceID = 42
	_, err := f.engine.CreateBooking(ctx, missing)
	requireKind(t, err, reservation.KindNotFound)

	wrongMode := seatRequest(alice, "EC", "2030-03-05", 1)
	wrongMode.ResourceType = model.ResourceFlight
	_, err = f.engine.CreateBooking(ctx, wrongMode)
	requireKind(t, err, reservation.KindNotFound)
}

func TestCreateBooking_MaxStayNights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-04-09", 1))
	require.NoError(t, err, "exactly the default limit")
	assert.Equal(t, int64(reservation.DefaultMaxStayNights*2000), b.Pricing.BasePrice)

	short := reservation.New(f.store, reservation.Config{
		Policy:        cancellation.NewPolicy(cancellation.DefaultFlatFee),
		Now:           f.clock.Now,
		MaxStayNights: 3,
	})
	_, err = short.CreateBooking(ctx, roomRequest(alice, "102", "2030-03-10", "2030-03-14", 1))
	requireKind(t, err, reservation.KindInvalidInput)
	_, err = short.CheckAvailability(ctx, reservation.AvailabilityQuery{
		ResourceType: model.ResourceHotel, ResourceID: 1,
		CheckIn: day("2030-03-10"), CheckOut: day("9999-12-31"), PartySize: 1,
	})
	requireKind(t, err, reservation.KindInvalidInput)
	_, err = short.CreateBooking(ctx, roomRequest(alice, "102", "2030-03-10", "2030-03-13", 1))
	require.NoError(t, err)
}

func TestCancelBooking_Schedule(t *testing.T) {
	ctx := context.Background()
	departure := time.Date(2030, 3, 5, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		hours  int
		charge int64
		refund int64
	}{
		{1, 1100, 0},
		{10, 550, 550},
		{50, 275, 825},
		{100, 1100, 0},
	}
	for _, tc := range cases {
		f := newFixture(t)
		b, err := f.engine.CreateBooking(ctx, seatRequest(alice, "EC", "2030-03-05", 2))
		require.NoError(t, err)
		require.Equal(t, int64(1100), b.Pricing.Total)

		f.clock.Set(departure.Add(-time.Duration(tc.hours) * time.Hour))
		res, err := f.engine.CancelBooking(ctx, reservation.CancelRequest{
			BookingID: b.ID,
			Requester: reservation.Requester{UserID: alice, Role: "CUSTOMER"},
			Reason:    "plans changed",
		})
		require.NoError(t, err)
		assert.Equal(t, tc.charge, res.Charge, "hours=%d", tc.hours)
		assert.Equal(t, tc.refund, res.Refund, "hours=%d", tc.hours)
		assert.Equal(t, model.StatusCancelled, res.Booking.Status)
		assert.Equal(t, "plans changed", res.Booking.Cancellation.Reason)
		require.NotNil(t, res.Booking.Cancellation.CancelledAt)
		if tc.refund > 0 {
			assert.Equal(t, model.PaymentRefundPending, res.Booking.Payment.Status)
		} else {
			assert.Equal(t, model.PaymentCompleted, res.Booking.Payment.Status)
		}
	}
}

func TestCancelBooking_ReleasesInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 2))
	require.NoError(t, err)
	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: b.ID, Requester: reservation.Requester{UserID: alice}})
	require.NoError(t, err)

	again, err := f.engine.CreateBooking(ctx, roomRequest(bob, "101", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)
	assert.Equal(t, "101", again.Unit)

	stored, err := f.engine.GetBooking(ctx, b.ID, reservation.Requester{UserID: alice})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status, "cancelled rows stay in the ledger")
}

func TestCancelBooking_StateErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := reservation.Requester{UserID: alice, Role: "CUSTOMER"}

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: b.ID, Requester: reservation.Requester{UserID: bob, Role: "CUSTOMER"}})
	requireKind(t, err, reservation.KindUnauthorized)

	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: b.ID, Requester: owner})
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: b.ID, Requester: owner})
	requireKind(t, err, reservation.KindInvalidState)
	assert.False(t, reservation.Retryable(err))

	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: "missing", Requester: owner})
	requireKind(t, err, reservation.KindNotFound)

	saver, err := f.engine.CreateBooking(ctx, seatRequest(alice, "SV", "2030-03-05", 1))
	require.NoError(t, err)
	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: saver.ID, Requester: owner})
	requireKind(t, err, reservation.KindNotCancellable)
}

func TestCancelBooking_AdminMayCancelAnyBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "102", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)

	res, err := f.engine.CancelBooking(ctx, reservation.CancelRequest{
		BookingID: b.ID,
		Requester: reservation.Requester{UserID: 99, Role: reservation.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, cancellation.TierFlat, res.Tier, "check-in is 220 hours away")
	assert.Equal(t, int64(4000), res.Charge, "flat fee is clamped to the total")
	assert.Zero(t, res.Refund)
}

func TestGetBooking_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 2))
	require.NoError(t, err)

	pricier := deluxe()
	pricier.PricePerNight = 9000
	f.store.PutRoomType(pricier)

	stored, err := f.engine.GetBooking(ctx, b.ID, reservation.Requester{UserID: alice})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), stored.Pricing.Total)

	_, err = f.engine.GetBooking(ctx, b.ID, reservation.Requester{UserID: bob})
	requireKind(t, err, reservation.KindUnauthorized)
}

func TestListBookings_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)
	f.clock.Set(f.clock.Now().Add(time.Minute))
	second, err := f.engine.CreateBooking(ctx, seatRequest(alice, "EC", "2030-03-05", 1))
	require.NoError(t, err)
	_, err = f.engine.CreateBooking(ctx, roomRequest(bob, "102", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)

	list, err := f.engine.ListBookings(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSideEffects_EventsAndCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := reservation.AvailabilityQuery{
		ResourceType: model.ResourceHotel, ResourceID: 1, Unit: "101",
		CheckIn: day("2030-03-10"), CheckOut: day("2030-03-12"), PartySize: 1,
	}

	before, err := f.engine.CheckAvailability(ctx, q)
	require.NoError(t, err)
	assert.True(t, before.IsAvailable)
	_, _, cached := f.cache.Get(ctx, q.ResourceType, q.ResourceID, "101:2030-03-10:2030-03-12:1")
	assert.True(t, cached)

	b, err := f.engine.CreateBooking(ctx, roomRequest(alice, "101", "2030-03-10", "2030-03-12", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.invalidated)

	after, err := f.engine.CheckAvailability(ctx, q)
	require.NoError(t, err)
	assert.False(t, after.IsAvailable, "cache entry was dropped by the booking")

	_, err = f.engine.CancelBooking(ctx, reservation.CancelRequest{BookingID: b.ID, Requester: reservation.Requester{UserID: alice}})
	require.NoError(t, err)

	assert.Equal(t, []string{queue.EventBookingConfirmed, queue.EventBookingCancelled}, f.publisher.types())
	payload, err := queue.DecodePayload[queue.BookingCancelledPayload](f.publisher.events[1].Payload)
	require.NoError(t, err)
	assert.Equal(t, b.ID, payload.BookingID)
	assert.Equal(t, int64(4000)-payload.Charge, payload.Refund)
}

func TestCheckAvailability_BookingDuringReadIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hooked := &hookedStore{Store: f.store}
	reader := reservation.New(hooked, reservation.Config{
		Policy: cancellation.NewPolicy(cancellation.DefaultFlatFee),
		Now:    f.clock.Now,
	}, reservation.WithAvailabilityCache(f.cache))
	q := reservation.AvailabilityQuery{
		ResourceType: model.ResourceTrain, ResourceID: 7, Unit: "EC", Date: day("2030-03-05"), PartySize: 1,
	}

	hooked.afterRead = func() {
		_, err := f.engine.CreateBooking(ctx, seatRequest(bob, "EC", "2030-03-05", 2))
		require.NoError(t, err)
	}
	first, err := reader.CheckAvailability(ctx, q)
	require.NoError(t, err)
	assert.True(t, first.IsAvailable, "read happened before the booking committed")
	assert.Equal(t, 1, f.cache.invalidated)

	later, err := reader.CheckAvailability(ctx, q)
	require.NoError(t, err)
	require.False(t, later.IsAvailable)
	assert.Equal(t, 0, later.RemainingUnits)
}

func TestCheckAvailability_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CheckAvailability(context.Background(), reservation.AvailabilityQuery{
		ResourceType: model.ResourceHotel, ResourceID: 1, CheckIn: day("2030-03-10"), CheckOut: day("2030-03-12"),
	})
	requireKind(t, err, reservation.KindInvalidInput)

	_, err = f.engine.CheckAvailability(context.Background(), reservation.AvailabilityQuery{
		ResourceType: "ferry", ResourceID: 1, PartySize: 1,
	})
	requireKind(t, err, reservation.KindInvalidInput)

	_, err = f.engine.CheckAvailability(context.Background(), reservation.AvailabilityQuery{
		ResourceType: model.ResourceBus, ResourceID: 7, Date: day("2030-03-05"), PartySize: 1,
	})
	requireKind(t, err, reservation.KindNotFound)
}
