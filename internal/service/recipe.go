package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// RecipeService handles recipe reads, nested writes, favorites, the shopping
// cart and the consolidated shopping list.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
	}
}

// RecipeFilter narrows recipe listings. The boolean filters are no-ops for
// anonymous viewers.
type RecipeFilter struct {
	Author           *uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// annotated builds the base recipe queryset with viewer-relative flags
// computed in the database and all associations preloaded.
func (s *RecipeService) annotated(viewerID *uint) *gorm.DB {
	q := s.db.Model(&models.Recipe{}).
		Preload("Author", userSubscriptionSelect(viewerID)).
		Preload("Tags").
		Preload("Ingredients.Ingredient")

	if viewerID != nil {
		q = q.Select("recipes.*, "+
			"EXISTS(SELECT 1 FROM favorites WHERE favorites.user_id = ? AND favorites.recipe_id = recipes.id) AS is_favorited, "+
			"EXISTS(SELECT 1 FROM shopping_cart_entries WHERE shopping_cart_entries.user_id = ? AND shopping_cart_entries.recipe_id = recipes.id) AS is_in_shopping_cart",
			*viewerID, *viewerID)
	}
	return q
}

// filtered applies caller-supplied filters on top of any recipe queryset.
func filtered(q *gorm.DB, viewerID *uint, f RecipeFilter) *gorm.DB {
	if f.Author != nil {
		q = q.Where("recipes.author_id = ?", *f.Author)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where(
			"recipes.id IN (SELECT recipe_tags.recipe_id FROM recipe_tags JOIN tags ON tags.id = recipe_tags.tag_id WHERE tags.slug IN ?)",
			f.TagSlugs,
		)
	}
	if viewerID != nil {
		if f.IsFavorited {
			q = q.Where("EXISTS(SELECT 1 FROM favorites WHERE favorites.user_id = ? AND favorites.recipe_id = recipes.id)", *viewerID)
		}
		if f.IsInShoppingCart {
			q = q.Where("EXISTS(SELECT 1 FROM shopping_cart_entries WHERE shopping_cart_entries.user_id = ? AND shopping_cart_entries.recipe_id = recipes.id)", *viewerID)
		}
	}
	return q
}

// List returns recipes for the viewer, newest first, with the total count of
// matching rows.
func (s *RecipeService) List(viewerID *uint, f RecipeFilter, limit, offset int) ([]models.Recipe, int64, error) {
	var count int64
	if err := filtered(s.db.Model(&models.Recipe{}), viewerID, f).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q := filtered(s.annotated(viewerID), viewerID, f).
		Order("recipes.created_at DESC, recipes.id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

// Get returns one recipe with viewer-relative flags.
func (s *RecipeService) Get(viewerID *uint, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.annotated(viewerID).Where("recipes.id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// IngredientAmount references an ingredient by id with a quantity.
type IngredientAmount struct {
	ID     uint
	Amount int
}

// RecipeInput carries everything a recipe write replaces in one request:
// scalar fields, the ingredient list and the tag list. Image is a base64
// data URL; on update an empty image keeps the stored one.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	TagIDs      []uint
	Ingredients []IngredientAmount
}

func validateRecipeInput(input RecipeInput) error {
	if len(input.Ingredients) == 0 {
		return NewValidationError("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uint]bool, len(input.Ingredients))
	for _, item := range input.Ingredients {
		if item.Amount < 1 {
			return NewValidationError("amount", "ingredient amount must be at least 1")
		}
		if seen[item.ID] {
			return NewValidationError("ingredients", "ingredients cannot repeat")
		}
		seen[item.ID] = true
	}

	if len(input.TagIDs) == 0 {
		return NewValidationError("tags", "at least one tag is required")
	}
	seenTags := make(map[uint]bool, len(input.TagIDs))
	for _, id := range input.TagIDs {
		if seenTags[id] {
			return NewValidationError("tags", "tags cannot repeat")
		}
		seenTags[id] = true
	}

	if input.CookingTime < 1 {
		return NewValidationError("cooking_time", "cooking time must be at least 1")
	}
	return nil
}

// resolveTags loads the referenced tags, rejecting unknown ids.
func resolveTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Find(&tags, ids).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, NewValidationError("tags", "unrecognized tag")
	}
	return tags, nil
}

// checkIngredientIDs rejects references to ingredients that do not exist.
func checkIngredientIDs(tx *gorm.DB, items []IngredientAmount) error {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	var n int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return NewValidationError("ingredients", "unrecognized ingredient")
	}
	return nil
}

// createRecipeIngredients bulk-inserts the join rows for a recipe.
func createRecipeIngredients(tx *gorm.DB, recipeID uint, items []IngredientAmount) error {
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return NewValidationError("ingredients", "ingredients cannot repeat")
		}
		return err
	}
	return nil
}

// Create persists a recipe with its ingredient and tag associations in one
// transaction and re-reads it through the annotation layer.
func (s *RecipeService) Create(ctx context.Context, authorID uint, input RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeInput(input); err != nil {
		return nil, err
	}
	if input.Image == "" {
		return nil, NewValidationError("image", "image is required")
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientIDs(tx, input.Ingredients); err != nil {
			return err
		}

		// Store the image only once every reference has resolved so a
		// rejected request leaves no orphaned object behind.
		if recipe.Image, err = s.images.SaveDataURL(ctx, input.Image); err != nil {
			return err
		}

		if err := tx.Omit("Tags").Create(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(&tags); err != nil {
			return err
		}
		return createRecipeIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(&authorID, recipe.ID)
}

// Update replaces a recipe's scalar fields, ingredient list and tag list in
// one transaction. The old ingredient associations are cleared before the new
// set is inserted; a failure rolls back to the prior association set.
func (s *RecipeService) Update(ctx context.Context, viewerID, recipeID uint, input RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeInput(input); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientIDs(tx, input.Ingredients); err != nil {
			return err
		}

		imageURL := recipe.Image
		if input.Image != "" {
			if imageURL, err = s.images.SaveDataURL(ctx, input.Image); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"name":         input.Name,
			"image":        imageURL,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(&tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return createRecipeIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(&viewerID, recipe.ID)
}

// Delete removes a recipe together with its associations and relation rows.
func (s *RecipeService) Delete(id uint) error {
	var recipe models.Recipe
	if err := s.db.First(&recipe, id).Error; err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.RecipeIngredient{},
			&models.Favorite{},
			&models.ShoppingCartEntry{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&recipe).Error
	})
}
