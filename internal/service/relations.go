package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// userRecipeRelation covers the relation models that share the add/remove
// shape over a (user, recipe) pair.
type userRecipeRelation interface {
	models.Favorite | models.ShoppingCartEntry
}

func newUserRecipeRelation[T userRecipeRelation](userID, recipeID uint) T {
	var rel T
	switch r := any(&rel).(type) {
	case *models.Favorite:
		r.UserID, r.RecipeID = userID, recipeID
	case *models.ShoppingCartEntry:
		r.UserID, r.RecipeID = userID, recipeID
	}
	return rel
}

// addUserRecipeRelation creates the relation row for (user, recipe).
// A recipe id that does not resolve is a validation error rather than a bare
// 404 so relation actions keep a uniform error envelope. A duplicate pair is
// decided by the uniqueness constraint, also surfaced as a validation error.
func addUserRecipeRelation[T userRecipeRelation](db *gorm.DB, label string, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError(label, "unrecognized recipe")
		}
		return nil, err
	}

	rel := newUserRecipeRelation[T](userID, recipeID)
	if err := db.Create(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError(label, "recipe is already in "+label)
		}
		return nil, err
	}
	return &recipe, nil
}

// removeUserRecipeRelation deletes the relation row for (user, recipe).
// A missing relation is a validation error naming the relation.
func removeUserRecipeRelation[T userRecipeRelation](db *gorm.DB, label string, userID, recipeID uint) error {
	var recipe models.Recipe
	if err := db.First(&recipe, recipeID).Error; err != nil {
		return err
	}

	var rel T
	res := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&rel)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewValidationError(label, "recipe is not in "+label)
	}
	return nil
}

// AddFavorite bookmarks a recipe for the user.
func (s *RecipeService) AddFavorite(userID, recipeID uint) (*models.Recipe, error) {
	return addUserRecipeRelation[models.Favorite](s.db, "favorites", userID, recipeID)
}

// RemoveFavorite removes the user's bookmark for a recipe.
func (s *RecipeService) RemoveFavorite(userID, recipeID uint) error {
	return removeUserRecipeRelation[models.Favorite](s.db, "favorites", userID, recipeID)
}

// AddToShoppingCart marks a recipe for the user's shopping list.
func (s *RecipeService) AddToShoppingCart(userID, recipeID uint) (*models.Recipe, error) {
	return addUserRecipeRelation[models.ShoppingCartEntry](s.db, "shopping cart", userID, recipeID)
}

// RemoveFromShoppingCart removes a recipe from the user's cart.
func (s *RecipeService) RemoveFromShoppingCart(userID, recipeID uint) error {
	return removeUserRecipeRelation[models.ShoppingCartEntry](s.db, "shopping cart", userID, recipeID)
}

// ShoppingListItem is one consolidated line of the downloadable list.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingList aggregates ingredient amounts across every recipe in the
// user's cart, grouped by (name, unit) and ordered by name.
func (s *RecipeService) ShoppingList(userID uint) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
