package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tektongeo/backend/config"
	"tektongeo/backend/models"
	"tektongeo/backend/routes"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	superAdminEmail    = "root@tekton.local"
	superAdminPassword = "rootpassword1"
)

// newTestApp wires the full route surface over a fresh in-memory database.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "testsecret",
		Environment:        "development",
		SuperAdminEmail:    superAdminEmail,
		SuperAdminPassword: superAdminPassword,
	}
	require.NoError(t, utils.SeedSuperAdmin(db, cfg))

	logger := utils.InitLogger("development")
	logger.SetOutput(io.Discard)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler(cfg, logger)})
	routes.SetupRoutes(app, db, cfg, logger)

	return app, db, cfg
}

func createUser(t *testing.T, db *gorm.DB, email, password, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		FullName:     "Test " + role,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func disableUser(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()
	require.NoError(t, db.Model(user).Update("enabled", false).Error)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func userPath(id uint) string {
	return fmt.Sprintf("/api/admin/users/%d", id)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func loginToken(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]interface{})
	return data["token"].(string)
}
