// Authentication HTTP handlers.
//
//   - POST /register  (JSON body, public)
//   - POST /login     (form-encoded username/password, public)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/services"
)

// RegisterRequest is the JSON payload for creating an identity.
type RegisterRequest struct {
	Email       string `json:"email"        binding:"required,email" example:"ada@example.com"`
	Password    string `json:"password"     binding:"required"       example:"correct horse battery staple"`
	FirstName   string `json:"first_name"   binding:"required"       example:"Ada"`
	LastName    string `json:"last_name"    binding:"required"       example:"Lovelace"`
	Address     string `json:"address"      binding:"required"       example:"12 St James's Square, London"`
	PhoneNumber string `json:"phone_number" binding:"required"       example:"+44 20 7946 0000"`
}

// LoginRequest is the form-encoded login payload. Username is the email.
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// LoginResponse carries the bearer credential.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type" example:"bearer"`
	UserID      string      `json:"user_id"`
	Role        domain.Role `json:"role" example:"customer"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Register godoc
// @ID          register
// @Summary     Register an identity
// @Description Creates an identity. The first identity ever registered becomes an administrator.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "New identity"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, password, first_name, last_name, address and phone_number are required; email must be valid")
		return
	}
	u, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Obtain a bearer token
// @Description Exchanges email (as username) and password for a short-lived bearer token.
// @Tags        Auth
// @Accept      x-www-form-urlencoded
// @Produce     json
//
// @Param       username  formData  string  true  "Email"
// @Param       password  formData  string  true  "Password"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		UserID:      res.UserID,
		Role:        res.Role,
		ExpiresAt:   res.ExpiresAt,
	})
}
