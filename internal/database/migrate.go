package database

import (
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// AutoMigrate creates or updates the schema for every entity table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Follow{},
		&models.Favorite{},
		&models.ShoppingCartEntry{},
	)
}
