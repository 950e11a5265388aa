package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecipe(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerAndLogin(t, router, "author")

	tag := seedTag(t, db, "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	w := doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Mix and fry",
		"cooking_time": 15,
		"image":        testImage,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 300}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeJSON(t, w)
	assert.Equal(t, "Pancakes", resp["name"])
	assert.Equal(t, false, resp["is_favorited"])
	assert.Equal(t, false, resp["is_in_shopping_cart"])
	assert.NotNil(t, resp["image"])

	author := resp["author"].(map[string]interface{})
	assert.Equal(t, "author", author["username"])

	ingredients := resp["ingredients"].([]interface{})
	require.Len(t, ingredients, 1)
	first := ingredients[0].(map[string]interface{})
	assert.Equal(t, "flour", first["name"])
	assert.Equal(t, "g", first["measurement_unit"])
	assert.EqualValues(t, 300, first["amount"])
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/recipes", "", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationShape(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerAndLogin(t, router, "author")
	flour := seedIngredient(t, db, "flour", "g")

	// Unknown tag comes back keyed by field with a message list.
	w := doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
		"name":         "Broken",
		"text":         "Broken",
		"cooking_time": 5,
		"image":        testImage,
		"tags":         []uint{9999},
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 10}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeJSON(t, w)
	messages, ok := resp["tags"].([]interface{})
	require.True(t, ok, w.Body.String())
	assert.NotEmpty(t, messages)

	// A zero cooking time is a field-keyed validation error too, not a
	// generic binding failure.
	tag := seedTag(t, db, "valid")
	w = doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
		"name":         "Raw",
		"text":         "Raw",
		"cooking_time": 0,
		"image":        testImage,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 10}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeJSON(t, w), "cooking_time", w.Body.String())

	// Same envelope for a zero ingredient amount.
	w = doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
		"name":         "Raw",
		"text":         "Raw",
		"cooking_time": 5,
		"image":        testImage,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]interface{}{{"id": flour.ID, "amount": 0}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeJSON(t, w), "amount", w.Body.String())
}

func TestUpdateRecipePermissions(t *testing.T) {
	router, db := setupTestRouter(t)
	authorToken := registerAndLogin(t, router, "author")
	otherToken := registerAndLogin(t, router, "other")

	recipeID := createRecipeViaAPI(t, router, db, authorToken, "pie")
	tag := seedTag(t, db, "updated")
	sugar := seedIngredient(t, db, "sugar", "g")

	patch := map[string]interface{}{
		"name":         "Renamed pie",
		"text":         "Better",
		"cooking_time": 20,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]interface{}{{"id": sugar.ID, "amount": 50}},
	}

	// Someone else cannot touch it.
	w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/recipes/%d", recipeID), otherToken, patch)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/recipes/%d", recipeID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The author can.
	w = doJSON(t, router, "PATCH", fmt.Sprintf("/api/recipes/%d", recipeID), authorToken, patch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed pie", decodeJSON(t, w)["name"])

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/recipes/%d", recipeID), authorToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/recipes/%d", recipeID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipesAnonymous(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerAndLogin(t, router, "author")
	createRecipeViaAPI(t, router, db, token, "soup")

	w := doJSON(t, router, "GET", "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJSON(t, w)
	assert.EqualValues(t, 1, resp["count"])
	results := resp["results"].([]interface{})
	require.Len(t, results, 1)

	recipe := results[0].(map[string]interface{})
	assert.Equal(t, false, recipe["is_favorited"])
	assert.Equal(t, false, recipe["is_in_shopping_cart"])
}

func TestFavoriteFlow(t *testing.T) {
	router, db := setupTestRouter(t)
	authorToken := registerAndLogin(t, router, "author")
	fanToken := registerAndLogin(t, router, "fan")
	recipeID := createRecipeViaAPI(t, router, db, authorToken, "cake")

	// Adding answers with the minimized representation.
	w := doJSON(t, router, "POST", fmt.Sprintf("/api/recipes/%d/favorite", recipeID), fanToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeJSON(t, w)
	assert.Equal(t, "cake", resp["name"])
	assert.NotContains(t, resp, "text")

	// Twice is a validation error.
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/recipes/%d/favorite", recipeID), fanToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The flag follows the viewer.
	w = doJSON(t, router, "GET", fmt.Sprintf("/api/recipes/%d", recipeID), fanToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["is_favorited"])

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/recipes/%d", recipeID), authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeJSON(t, w)["is_favorited"])

	// Favorited listings are viewer-relative too.
	w = doJSON(t, router, "GET", "/api/recipes?is_favorited=1", fanToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeJSON(t, w)["count"])

	w = doJSON(t, router, "GET", "/api/recipes?is_favorited=1", authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeJSON(t, w)["count"])

	// Remove, then removing again fails.
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/recipes/%d/favorite", recipeID), fanToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/recipes/%d/favorite", recipeID), fanToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeTagFilter(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerAndLogin(t, router, "author")
	createRecipeViaAPI(t, router, db, token, "first")
	createRecipeViaAPI(t, router, db, token, "second")

	w := doJSON(t, router, "GET", "/api/recipes?tags=first-tag", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeJSON(t, w)["count"])

	w = doJSON(t, router, "GET", "/api/recipes?tags=first-tag&tags=second-tag", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeJSON(t, w)["count"])
}

func TestDownloadShoppingCart(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerAndLogin(t, router, "shopper")

	tag := seedTag(t, db, "baking")
	flour := seedIngredient(t, db, "flour", "g")
	egg := seedIngredient(t, db, "egg", "pcs")

	var recipeIDs []uint
	for _, r := range []struct {
		name   string
		amount int
		extra  bool
	}{
		{"pancakes", 200, true},
		{"bread", 100, false},
	} {
		ingredients := []map[string]interface{}{{"id": flour.ID, "amount": r.amount}}
		if r.extra {
			ingredients = append(ingredients, map[string]interface{}{"id": egg.ID, "amount": 2})
		}
		w := doJSON(t, router, "POST", "/api/recipes", token, map[string]interface{}{
			"name":         r.name,
			"text":         "Bake",
			"cooking_time": 30,
			"image":        testImage,
			"tags":         []uint{tag.ID},
			"ingredients":  ingredients,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		recipeIDs = append(recipeIDs, uint(decodeJSON(t, w)["id"].(float64)))
	}

	for _, id := range recipeIDs {
		w := doJSON(t, router, "POST", fmt.Sprintf("/api/recipes/%d/shopping_cart", id), token, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, router, "GET", "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shoppinglist.txt")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Equal(t, "Your shopping list:\negg: 2 pcs\nflour: 300 g\n", body)

	// Anonymous callers cannot download.
	w = doJSON(t, router, "GET", "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := registerAndLogin(t, router, "author")

	w := doJSON(t, router, "GET", "/api/recipes/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", "/api/recipes/9999/favorite", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "DELETE", "/api/recipes/9999/favorite", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
