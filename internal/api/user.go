package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/service"
)

// UserHandler exposes the users resource: registration, profiles and the
// follow relation.
type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewUserHandler(users *service.UserService, auth *service.AuthService) *UserHandler {
	return &UserHandler{
		users: users,
		auth:  auth,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	authRequired := middleware.AuthMiddleware(h.auth)
	authOptional := middleware.OptionalAuthMiddleware(h.auth)

	users := router.Group("/users")
	{
		users.GET("", authOptional, h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/me", authRequired, h.Me)
		users.POST("/set_password", authRequired, h.SetPassword)
		users.GET("/subscriptions", authRequired, h.Subscriptions)
		users.GET("/:id", authOptional, h.GetUser)
		users.DELETE("/:id", authRequired, h.DeleteUser)
		users.POST("/:id/subscribe", authRequired, h.Subscribe)
		users.DELETE("/:id/subscribe", authRequired, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	viewerID := viewerFromContext(c)
	p := pageFromQuery(c)

	users, count, err := h.users.List(viewerID, p.Limit, p.offset())
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, newUserResponse(u))
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, count, p, results))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	user, err := h.auth.Register(service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(*user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}

	user, err := h.users.Get(viewerFromContext(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

// DeleteUser intentionally does nothing: self-service account deletion is
// disabled, but the route stays for API compatibility.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.users.Get(&userID, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	if err := h.auth.SetPassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	p := pageFromQuery(c)
	recipesLimit := recipesLimitFromQuery(c)

	users, count, err := h.users.Subscriptions(userID, p.Limit, p.offset())
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(users))
	for _, u := range users {
		results = append(results, newSubscriptionResponse(u, recipesLimit))
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, count, p, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	targetID, ok := idFromPath(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := h.users.Subscribe(userID, targetID); err != nil {
		abortWithError(c, err)
		return
	}

	target, err := h.users.GetWithRecipes(&userID, targetID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSubscriptionResponse(*target, recipesLimitFromQuery(c)))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	targetID, ok := idFromPath(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := h.users.Unsubscribe(userID, targetID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// viewerFromContext returns the authenticated caller's ID, or nil for
// anonymous requests.
func viewerFromContext(c *gin.Context) *uint {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id
	}
	return nil
}

// idFromPath parses the numeric path parameter, answering 404 itself when the
// value is not a number.
func idFromPath(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return 0, false
	}
	return uint(id), true
}

func recipesLimitFromQuery(c *gin.Context) int {
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v > 0 {
		return v
	}
	return 0
}
