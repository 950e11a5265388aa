package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// UserService handles user listings and the follow relation.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

const (
	subscribedExpr   = "EXISTS(SELECT 1 FROM follows WHERE follows.user_id = ? AND follows.following_id = users.id) AS is_subscribed"
	recipesCountExpr = "(SELECT COUNT(*) FROM recipes WHERE recipes.author_id = users.id) AS recipes_count"
)

// userSubscriptionSelect annotates a preloaded user queryset with the
// viewer's is_subscribed flag. Anonymous viewers keep the zero value.
func userSubscriptionSelect(viewerID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == nil {
			return db
		}
		return db.Select("users.*, "+subscribedExpr, *viewerID)
	}
}

// annotated builds the base user queryset with is_subscribed computed in the
// database for the viewer.
func (s *UserService) annotated(viewerID *uint) *gorm.DB {
	q := s.db.Model(&models.User{})
	if viewerID != nil {
		q = q.Select("users.*, "+subscribedExpr, *viewerID)
	}
	return q
}

// annotatedWithRecipes additionally counts the user's recipes and preloads
// them newest first for embedded recipe summaries.
func (s *UserService) annotatedWithRecipes(viewerID *uint) *gorm.DB {
	q := s.db.Model(&models.User{}).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipes.created_at DESC, recipes.id DESC")
		})
	if viewerID != nil {
		q = q.Select("users.*, "+subscribedExpr+", "+recipesCountExpr, *viewerID)
	} else {
		q = q.Select("users.*, " + recipesCountExpr)
	}
	return q
}

// List returns users ordered by username with the total count.
func (s *UserService) List(viewerID *uint, limit, offset int) ([]models.User, int64, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q := s.annotated(viewerID).Order("users.username")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// Get returns one user with the viewer's is_subscribed flag.
func (s *UserService) Get(viewerID *uint, id uint) (*models.User, error) {
	var user models.User
	if err := s.annotated(viewerID).Where("users.id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWithRecipes returns one user with embedded recipes and recipe count.
func (s *UserService) GetWithRecipes(viewerID *uint, id uint) (*models.User, error) {
	var user models.User
	if err := s.annotatedWithRecipes(viewerID).Where("users.id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Subscriptions lists the users the viewer follows, each with embedded
// recipes and recipe count, ordered by username.
func (s *UserService) Subscriptions(viewerID uint, limit, offset int) ([]models.User, int64, error) {
	followed := "EXISTS(SELECT 1 FROM follows WHERE follows.user_id = ? AND follows.following_id = users.id)"

	var count int64
	if err := s.db.Model(&models.User{}).Where(followed, viewerID).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q := s.annotatedWithRecipes(&viewerID).
		Where(followed, viewerID).
		Order("users.username")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// Subscribe creates a follow from the viewer to the target user.
// Self-follow and duplicate subscriptions are validation errors.
func (s *UserService) Subscribe(userID, targetID uint) error {
	if userID == targetID {
		return NewValidationError("following", "you cannot follow yourself")
	}

	var target models.User
	if err := s.db.First(&target, targetID).Error; err != nil {
		return err
	}

	follow := models.Follow{UserID: userID, FollowingID: targetID}
	if err := s.db.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return NewValidationError("following", "you are already subscribed to this user")
		}
		return err
	}
	return nil
}

// Unsubscribe removes the follow from the viewer to the target user.
// A missing subscription is a validation error.
func (s *UserService) Unsubscribe(userID, targetID uint) error {
	var target models.User
	if err := s.db.First(&target, targetID).Error; err != nil {
		return err
	}

	res := s.db.Where("user_id = ? AND following_id = ?", userID, targetID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewValidationError("following", "subscription does not exist")
	}
	return nil
}
