package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"taskcalendar/internal/auth"
	"taskcalendar/internal/model"
	"taskcalendar/internal/repository"
)

type UserHandler struct {
	repo   repository.UserRepositoryInterface
	tokens *auth.TokenManager
	log    *logrus.Entry
}

func NewUserHandler(repo repository.UserRepositoryInterface, tokens *auth.TokenManager, log *logrus.Entry) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens, log: log}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName" binding:"required,min=2"`
	Password    string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// Register godoc
// @Summary  Create an account
// @Tags     Users
// @Accept   json
// @Produce  json
// @Param    body  body      RegisterRequest  true  "Account"
// @Success  201   {object}  AuthResponse
// @Failure  409   {object}  map[string]string
// @Router   /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	const op = "handler.UserHandler.Register"
	log := h.log.WithField("operation", op)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	req.Email = model.NormalizeEmail(req.Email)

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.WithError(err).Error("lookup by email failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		HashedPassword: string(hash),
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		log.WithError(err).Error("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		log.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}

	log.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(user)})
}

// Login godoc
// @Summary  Sign in
// @Tags     Users
// @Accept   json
// @Produce  json
// @Param    body  body      LoginRequest  true  "Credentials"
// @Success  200   {object}  AuthResponse
// @Failure  401   {object}  map[string]string
// @Router   /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	const op = "handler.UserHandler.Login"
	log := h.log.WithField("operation", op)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.WithError(err).Error("lookup by email failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		log.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

// Profile godoc
// @Summary  Current user
// @Tags     Users
// @Produce  json
// @Success  200  {object}  UserResponse
// @Security BearerAuth
// @Router   /profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	const op = "handler.UserHandler.Profile"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
