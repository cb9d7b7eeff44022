// Catalog HTTP handlers.
//
//   - GET    /movies       (public; search, sort_by; weak ETag support)
//   - POST   /movies       (administrator)
//   - PUT    /movies/{id}  (administrator; partial update)
//   - DELETE /movies/{id}  (administrator; refused while rented out)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-video-rental/internal/services"
)

// MovieRequest is the JSON payload for creating a catalog entry.
type MovieRequest struct {
	Title           string   `json:"title"            binding:"required" example:"The Matrix"`
	Genre           string   `json:"genre"            binding:"required" example:"Sci-Fi"`
	Director        string   `json:"director"         binding:"required" example:"Lana Wachowski, Lilly Wachowski"`
	DurationMinutes int      `json:"duration_minutes" binding:"required" example:"136"`
	Rating          float64  `json:"rating"           example:"8.7"`
	Description     string   `json:"description"      example:"A hacker learns the truth about his reality."`
	Actors          []string `json:"actors"`
	// TotalCopies defaults to 1.
	TotalCopies *int `json:"total_copies" example:"3"`
}

// MovieUpdateRequest is a partial update. Omitted fields are unchanged; an
// id in the body is ignored.
type MovieUpdateRequest struct {
	Title           *string   `json:"title"`
	Genre           *string   `json:"genre"`
	Director        *string   `json:"director"`
	DurationMinutes *int      `json:"duration_minutes"`
	Rating          *float64  `json:"rating"`
	Description     *string   `json:"description"`
	Actors          *[]string `json:"actors"`
	TotalCopies     *int      `json:"total_copies"`
	// AvailableCopies is owned by the rental ledger and rejected here.
	AvailableCopies *int `json:"available_copies" swaggerignore:"true"`
}

// ListMovies godoc
// @ID          listMovies
// @Summary     List the catalog
// @Description Returns up to 100 movies whose title or genre contains `search` (case-insensitive).
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Movies
// @Produce     json
//
// @Param       search         query   string  false "Substring of title or genre"  example(sci)
// @Param       sort_by        query   string  false "Sort order"  Enums(title, rating) default(title)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.Movie
// @Header      200  {string}  ETag  "Weak ETag for the catalog state"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /movies [get]
func (h *Handlers) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, maxTS, err := h.catalog.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"movies:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.catalog.List(ctx, c.Query("search"), c.Query("sort_by"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateMovie godoc
// @ID          createMovie
// @Summary     Add a catalog entry
// @Tags        Movies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.MovieRequest  true  "Catalog entry"
//
// @Success     201  {object}  domain.Movie
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /movies [post]
func (h *Handlers) CreateMovie(c *gin.Context) {
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title, genre, director and duration_minutes are required")
		return
	}
	m, err := h.catalog.Create(c.Request.Context(), services.MovieInput{
		Title:           req.Title,
		Genre:           req.Genre,
		Director:        req.Director,
		DurationMinutes: req.DurationMinutes,
		Rating:          req.Rating,
		Description:     req.Description,
		Actors:          req.Actors,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// UpdateMovie godoc
// @ID          updateMovie
// @Summary     Edit a catalog entry
// @Description Applies only the supplied fields. Changing total_copies moves available_copies by the same amount.
// @Tags        Movies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                          true  "Movie ID (UUID)"  format(uuid)
// @Param       body  body  handlers.MovieUpdateRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.Movie
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     404  {object}  handlers.ErrorResponse  "Movie not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Copies in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /movies/{id} [put]
func (h *Handlers) UpdateMovie(c *gin.Context) {
	id, good := pathUUID(c, "movie")
	if !good {
		return
	}
	var req MovieUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.AvailableCopies != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "available_copies is managed by rentals; change total_copies instead")
		return
	}
	m, err := h.catalog.Update(c.Request.Context(), id, services.MovieUpdate{
		Title:           req.Title,
		Genre:           req.Genre,
		Director:        req.Director,
		DurationMinutes: req.DurationMinutes,
		Rating:          req.Rating,
		Description:     req.Description,
		Actors:          req.Actors,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMovie godoc
// @ID          deleteMovie
// @Summary     Remove a catalog entry
// @Description Refused while any copy is rented out. Rental history is kept.
// @Tags        Movies
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Movie ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     404  {object}  handlers.ErrorResponse  "Movie not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Movie is rented out"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /movies/{id} [delete]
func (h *Handlers) DeleteMovie(c *gin.Context) {
	id, good := pathUUID(c, "movie")
	if !good {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// pathUUID reads the :id parameter and answers 400 when it is not a UUID.
func pathUUID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a UUID")
		return "", false
	}
	return id, true
}
