// Identity administration handlers (administrator only).
//
//   - GET    /users
//   - PUT    /users/{id}  (partial; password is not editable)
//   - DELETE /users/{id}  (refused while the user has unreturned movies)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-video-rental/internal/services"
)

// UserUpdateRequest is a partial identity update. Omitted fields are
// unchanged; id and password in the body are ignored.
type UserUpdateRequest struct {
	Email       *string `json:"email"        binding:"omitempty,email" example:"ada@example.com"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role" example:"customer" enums:"customer,administrator"`
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List identities
// @Description Returns up to 100 identities in registration order.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	items, err := h.users.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Edit an identity
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                        true  "User ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UserUpdateRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, good := pathUUID(c, "user")
	if !good {
		return
	}
	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body or email")
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, services.UserUpdate{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Remove an identity
// @Description Refused while the identity has unreturned movies. Rental history is kept.
// @Tags        Users
// @Security    BearerAuth
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator role required"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "User has unreturned movies"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, good := pathUUID(c, "user")
	if !good {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
