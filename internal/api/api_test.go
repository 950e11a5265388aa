package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testdb"
)

const testImage = "data:image/png;base64,aGVsbG8="

type stubImageStore struct{}

func (stubImageStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	return "/media/recipes/stub" + ext, nil
}

// setupTestRouter builds the full route tree against an in-memory database.
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.New(t)
	auth := service.NewAuthService(db, "test-secret")
	users := service.NewUserService(db)
	recipes := service.NewRecipeService(db, service.NewImageService(stubImageStore{}))

	engine := gin.New()
	root := engine.Group("/api")
	NewAuthHandler(auth).RegisterRoutes(root)
	NewUserHandler(users, auth).RegisterRoutes(root)
	NewTagHandler(db).RegisterRoutes(root)
	NewIngredientHandler(db).RegisterRoutes(root)
	NewRecipeHandler(recipes, auth, nil).RegisterRoutes(root)

	return engine, db
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates an account over the API and returns its token.
func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	w := doJSON(t, router, "POST", "/api/users", "", map[string]interface{}{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "sturdy-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    username + "@example.com",
		"password": "sturdy-password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeJSON(t, w)["auth_token"].(string)
}

func seedTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: slug, Color: "#E26C2D", Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ing).Error)
	return &ing
}

// createRecipeViaAPI posts a minimal valid recipe and returns its id.
func createRecipeViaAPI(t *testing.T, router *gin.Engine, db *gorm.DB, token, name string) uint {
	t.Helper()
	tag := seedTag(t, db, fmt.Sprintf("%s-tag", name))
	ing := seedIngredient(t, db, fmt.Sprintf("%s-ingredient", name), "g")

	w := doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
		"name":         name,
		"text":         "Cook it",
		"cooking_time": 10,
		"image":        testImage,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]interface{}{{"id": ing.ID, "amount": 100}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decodeJSON(t, w)["id"].(float64))
}
