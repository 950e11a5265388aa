package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/testdb"
)

const testImage = "data:image/png;base64,aGVsbG8="

// stubImageStore keeps tests off the filesystem.
type stubImageStore struct{}

func (stubImageStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	return "/media/recipes/stub" + ext, nil
}

func newTestRecipeService(t *testing.T) (*gorm.DB, *RecipeService) {
	t.Helper()
	db := testdb.New(t)
	return db, NewRecipeService(db, NewImageService(stubImageStore{}))
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: slug, Color: "#49B64E", Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ing).Error)
	return &ing
}

// createTestRecipe seeds a recipe with one fresh tag and one fresh ingredient.
func createTestRecipe(t *testing.T, db *gorm.DB, svc *RecipeService, authorID uint, name string) *models.Recipe {
	t.Helper()
	tag := createTestTag(t, db, fmt.Sprintf("%s-tag", name))
	ing := createTestIngredient(t, db, fmt.Sprintf("%s-ingredient", name), "g")

	recipe, err := svc.Create(context.Background(), authorID, RecipeInput{
		Name:        name,
		Text:        "Cook it",
		CookingTime: 10,
		Image:       testImage,
		TagIDs:      []uint{tag.ID},
		Ingredients: []IngredientAmount{{ID: ing.ID, Amount: 100}},
	})
	require.NoError(t, err)
	return recipe
}
