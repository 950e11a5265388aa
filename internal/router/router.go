package router

import (
	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/api"
	"github.com/platefeed/backend/internal/middleware"
)

// Handlers collects the API handlers wired into the router.
type Handlers struct {
	Auth       *api.AuthHandler
	User       *api.UserHandler
	Tag        *api.TagHandler
	Ingredient *api.IngredientHandler
	Recipe     *api.RecipeHandler
}

// SetupRouter configures the application routes. MediaDir, when non-empty,
// is served under /media for locally stored recipe images.
func SetupRouter(h Handlers, mediaDir string) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	if mediaDir != "" {
		router.Static("/media", mediaDir)
	}

	// API routes
	root := router.Group("/api")

	h.Auth.RegisterRoutes(root)
	h.User.RegisterRoutes(root)
	h.Tag.RegisterRoutes(root)
	h.Ingredient.RegisterRoutes(root)
	h.Recipe.RegisterRoutes(root)

	return router
}
