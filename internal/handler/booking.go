package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/cache"
	"github.com/iliyamo/travel-reservation/internal/logger"
	"github.com/iliyamo/travel-reservation/internal/middleware"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/reservation"
)

// HeaderIdempotencyKey lets clients retry POST /v1/bookings safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// BookingHandler exposes the reservation engine over HTTP.  Protected
// methods assume JWTAuth and RequireRole already ran.
type BookingHandler struct {
	Engine      *reservation.Engine
	Idempotency *cache.Idempotency // optional
}

// NewBookingHandler constructs a BookingHandler.  idem may be nil.
func NewBookingHandler(engine *reservation.Engine, idem *cache.Idempotency) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, Idempotency: idem}
}

func requester(c echo.Context) (reservation.Requester, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return reservation.Requester{}, false
	}
	return reservation.Requester{UserID: uid, Role: middleware.Role(c)}, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// parseOptionalDate parses YYYY-MM-DD, treating "" as the zero time.
func parseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}

// Availability handles GET /v1/availability.  Query parameters:
// resource_type, resource_id, unit (optional), party_size (default 1),
// date for seated services, check_in and check_out for hotels.
func (h *BookingHandler) Availability(c echo.Context) error {
	rt, ok := model.ParseResourceType(c.QueryParam("resource_type"))
	if !ok {
		return badRequest(c, "resource_type must be one of hotel, flight, train, bus")
	}
	id, err := strconv.ParseUint(c.QueryParam("resource_id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid resource_id")
	}
	party := 1
	if s := c.QueryParam("party_size"); s != "" {
		if party, err = strconv.Atoi(s); err != nil {
			return badRequest(c, "invalid party_size")
		}
	}
	q := reservation.AvailabilityQuery{ResourceType: rt, ResourceID: id, Unit: c.QueryParam("unit"), PartySize: party}
	if q.Date, err = parseOptionalDate(c.QueryParam("date")); err != nil {
		return badRequest(c, "invalid date, expected YYYY-MM-DD")
	}
	if q.CheckIn, err = parseOptionalDate(c.QueryParam("check_in")); err != nil {
		return badRequest(c, "invalid check_in, expected YYYY-MM-DD")
	}
	if q.CheckOut, err = parseOptionalDate(c.QueryParam("check_out")); err != nil {
		return badRequest(c, "invalid check_out, expected YYYY-MM-DD")
	}

	res, err := h.Engine.CheckAvailability(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type createBookingBody struct {
	ResourceType string            `json:"resource_type"`
	ResourceID   uint64            `json:"resource_id"`
	Unit         string            `json:"unit"`
	CheckIn      string            `json:"check_in"`
	CheckOut     string            `json:"check_out"`
	Date         string            `json:"date"`
	PartySize    int               `json:"party_size"`
	Passengers   []model.Passenger `json:"passengers"`
	AddOns       []model.AddOn     `json:"add_ons"`
	Discount     int64             `json:"discount"`
	Payment      struct {
		Method        string `json:"method"`
		TransactionID string `json:"transaction_id"`
	} `json:"payment"`
}

func (b createBookingBody) toRequest(userID uint64) (reservation.CreateRequest, string) {
	rt, ok := model.ParseResourceType(b.ResourceType)
	if !ok {
		return reservation.CreateRequest{}, "resource_type must be one of hotel, flight, train, bus"
	}
	req := reservation.CreateRequest{
		UserID:       userID,
		ResourceType: rt,
		ResourceID:   b.ResourceID,
		Unit:         strings.TrimSpace(b.Unit),
		PartySize:    b.PartySize,
		Passengers:   b.Passengers,
		AddOns:       b.AddOns,
		Discount:     b.Discount,
		Payment:      reservation.PaymentInfo{Method: b.Payment.Method, TransactionID: b.Payment.TransactionID},
	}
	var err error
	if req.CheckIn, err = parseOptionalDate(b.CheckIn); err != nil {
		return req, "invalid check_in, expected YYYY-MM-DD"
	}
	if req.CheckOut, err = parseOptionalDate(b.CheckOut); err != nil {
		return req, "invalid check_out, expected YYYY-MM-DD"
	}
	if req.Date, err = parseOptionalDate(b.Date); err != nil {
		return req, "invalid date, expected YYYY-MM-DD"
	}
	return req, ""
}

// Create handles POST /v1/bookings.  With an Idempotency-Key header a
// repeated request returns the booking created by the first one.
func (h *BookingHandler) Create(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	var body createBookingBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req, msg := body.toRequest(who.UserID)
	if msg != "" {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	fingerprint, err := cache.Fingerprint(body)
	if err != nil {
		return badRequest(c, "invalid request body")
	}
	state, existing := h.Idempotency.Claim(ctx, who.UserID, key, fingerprint)
	switch state {
	case cache.ClaimDone:
		b, err := h.Engine.GetBooking(ctx, existing, who)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	case cache.ClaimInFlight:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     reservation.KindConflict,
			"message":   "a request with this Idempotency-Key is still in progress",
			"retryable": true,
		})
	case cache.ClaimMismatch:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     reservation.KindConflict,
			"message":   "Idempotency-Key was already used with a different request body",
			"retryable": false,
		})
	}

	b, err := h.Engine.CreateBooking(ctx, req)
	if err != nil {
		if state == cache.ClaimAcquired {
			if rerr := h.Idempotency.Release(ctx, who.UserID, key); rerr != nil {
				logger.FromContext(ctx).WithError(rerr).Warn("releasing idempotency key failed")
			}
		}
		return writeError(c, err)
	}
	if state == cache.ClaimAcquired {
		if cerr := h.Idempotency.Complete(ctx, who.UserID, key, fingerprint, b.ID); cerr != nil {
			logger.FromContext(ctx).WithError(cerr).Warn("storing idempotency key failed")
		}
	}
	return c.JSON(http.StatusCreated, b)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Engine.GetBooking(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// List handles GET /v1/my-bookings.
func (h *BookingHandler) List(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	items, err := h.Engine.ListBookings(c.Request().Context(), who.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Cancel handles POST /v1/bookings/:id/cancel.  The body is optional and
// may carry a "reason".
func (h *BookingHandler) Cancel(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	res, err := h.Engine.CancelBooking(c.Request().Context(), reservation.CancelRequest{
		BookingID: c.Param("id"),
		Requester: who,
		Reason:    body.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
