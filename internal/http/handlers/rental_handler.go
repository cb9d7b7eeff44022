// Rental ledger handlers.
//
//   - POST /rentals               (authenticated; movie_id, user_id query)
//   - POST /rentals/return/{id}   (administrator)
//   - GET  /admin/rentals         (administrator)
//   - GET  /my-rentals            (authenticated)
//
// Idempotency:
// POST /rentals honours the Idempotency-Key header. A retry with a key whose
// rental already exists returns that rental with `Idempotency-Replayed: true`
// instead of opening a second one.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/http/middleware"
	"github.com/tbourn/go-video-rental/internal/services"
)

// BorrowResponse confirms an opened rental.
type BorrowResponse struct {
	Message string         `json:"message" example:"rental created"`
	DueDate time.Time      `json:"due_date"`
	Rental  *domain.Rental `json:"rental"`
}

// ReturnResponse confirms a closed rental.
type ReturnResponse struct {
	Message string         `json:"message" example:"return accepted"`
	Rental  *domain.Rental `json:"rental"`
}

// Borrow godoc
// @ID          borrow
// @Summary     Rent a movie
// @Description Opens a rental due in 48 hours. Administrators may pass user_id to rent on behalf
// @Description of another identity; for anyone else user_id is ignored.
// @Description Supports idempotency via the Idempotency-Key header (same key → same rental).
// @Tags        Rentals
// @Produce     json
// @Security    BearerAuth
//
// @Param       movie_id         query   string  true  "Movie ID (UUID)"  format(uuid)
// @Param       user_id          query   string  false "Target user ID (administrators only)"  format(uuid)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
//
// @Success     201  {object}  handlers.BorrowResponse
// @Header      201  {string}  Idempotency-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "User or movie not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Limit exceeded or out of stock"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rentals [post]
func (h *Handlers) Borrow(c *gin.Context) {
	movieID := strings.TrimSpace(c.Query("movie_id"))
	if _, err := uuid.Parse(movieID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "movie_id must be a UUID")
		return
	}
	targetID := strings.TrimSpace(c.Query("user_id"))
	if targetID != "" {
		if _, err := uuid.Parse(targetID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id must be a UUID")
			return
		}
	}
	idemKey, _ := middleware.GetIdempotencyKey(c)

	res, err := h.rentals.Borrow(c.Request.Context(), middleware.IdentityFrom(c), services.BorrowRequest{
		MovieID:        movieID,
		TargetUserID:   targetID,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, BorrowResponse{
		Message: "rental created",
		DueDate: res.Rental.DueDate,
		Rental:  res.Rental,
	})
}

// ReturnRental godoc
// @ID          returnRental
// @Summary     Accept a returned movie
// @Description Closes an open rental and puts the copy back on the shelf.
// @Tags        Rentals
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Rental ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ReturnResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     409  {object}  handlers.ErrorResponse  "Rental missing, malformed id, or already returned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rentals/return/{id} [post]
func (h *Handlers) ReturnRental(c *gin.Context) {
	// A malformed id cannot name an open rental.
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		failErr(c, services.ErrInvalidRentalState)
		return
	}
	r, err := h.rentals.Return(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReturnResponse{Message: "return accepted", Rental: r})
}

// ListRentals godoc
// @ID          listRentals
// @Summary     List all rentals
// @Description Returns up to 200 rentals, newest first.
// @Tags        Rentals
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Rental
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/rentals [get]
func (h *Handlers) ListRentals(c *gin.Context) {
	items, err := h.rentals.ListAll(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// MyRentals godoc
// @ID          myRentals
// @Summary     List the caller's rentals
// @Description Returns up to 50 of the caller's rentals, newest first.
// @Tags        Rentals
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Rental
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /my-rentals [get]
func (h *Handlers) MyRentals(c *gin.Context) {
	uid := middleware.UserIDFrom(c)
	if uid == "" {
		failErr(c, services.ErrUnauthenticated)
		return
	}
	items, err := h.rentals.ListForUser(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}
