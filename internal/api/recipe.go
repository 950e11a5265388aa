package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
)

// RecipeHandler exposes the recipes resource with its favorite, shopping-cart
// and shopping-list actions.
type RecipeHandler struct {
	recipes     *service.RecipeService
	auth        *service.AuthService
	writeLimits *middleware.RateLimiter
}

func NewRecipeHandler(recipes *service.RecipeService, auth *service.AuthService, writeLimits *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipes:     recipes,
		auth:        auth,
		writeLimits: writeLimits,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authRequired := middleware.AuthMiddleware(h.auth)
	authOptional := middleware.OptionalAuthMiddleware(h.auth)

	write := []gin.HandlerFunc{authRequired}
	if h.writeLimits != nil {
		write = append(write, h.writeLimits.RateLimitMiddleware())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", authOptional, h.ListRecipes)
		recipes.POST("", append(write, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart", authRequired, h.DownloadShoppingCart)
		recipes.GET("/:id", authOptional, h.GetRecipe)
		recipes.PATCH("/:id", append(write, h.UpdateRecipe)...)
		recipes.DELETE("/:id", append(write, h.DeleteRecipe)...)
		recipes.POST("/:id/favorite", authRequired, h.AddFavorite)
		recipes.DELETE("/:id/favorite", authRequired, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", authRequired, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", authRequired, h.RemoveFromShoppingCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	viewerID := viewerFromContext(c)
	p := pageFromQuery(c)

	recipes, count, err := h.recipes.List(viewerID, recipeFilterFromQuery(c), p.Limit, p.offset())
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		results = append(results, newRecipeResponse(r))
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, count, p, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(viewerFromContext(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(*recipe))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	recipe, err := h.recipes.Create(c.Request.Context(), userID, req.toInput())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(*recipe))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	userID, ok := h.requireAuthor(c, id)
	if !ok {
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), userID, id, req.toInput())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(*recipe))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	if _, ok := h.requireAuthor(c, id); !ok {
		return
	}

	if err := h.recipes.Delete(id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addRelation(c, h.recipes.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFromShoppingCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	items, err := h.recipes.ShoppingList(userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var b strings.Builder
	b.WriteString("Your shopping list:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s: %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}

	c.Header("Content-Disposition", `attachment; filename="shoppinglist.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}

// addRelation is the shared handler shape for favorite and shopping-cart
// adds: both answer with the minimized recipe representation.
func (h *RecipeHandler) addRelation(c *gin.Context, add func(userID, recipeID uint) (*models.Recipe, error)) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	recipe, err := add(userID, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeSummary(*recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(userID, recipeID uint) error) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := remove(userID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireAuthor enforces the instance-level rule: only the recipe's author
// may modify it.
func (h *RecipeHandler) requireAuthor(c *gin.Context, recipeID uint) (uint, bool) {
	userID, _ := middleware.CurrentUserID(c)

	recipe, err := h.recipes.Get(&userID, recipeID)
	if err != nil {
		abortWithError(c, err)
		return 0, false
	}
	if recipe.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "you do not have permission to perform this action"})
		return 0, false
	}
	return userID, true
}

func recipeFilterFromQuery(c *gin.Context) service.RecipeFilter {
	var f service.RecipeFilter
	if v, err := strconv.ParseUint(c.Query("author"), 10, 64); err == nil {
		author := uint(v)
		f.Author = &author
	}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		f.TagSlugs = tags
	}
	f.IsFavorited = isTruthy(c.Query("is_favorited"))
	f.IsInShoppingCart = isTruthy(c.Query("is_in_shopping_cart"))
	return f
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
