package controllers_test

import (
	"io"
	"testing"

	"tektongeo/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsersExcludesSuperAdminAndPasswords(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	createUser(t, db, "res@x.com", "Aa1!aaaa", "researcher")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "GET", "/api/admin/users", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotContains(t, string(raw), superAdminEmail)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$") // bcrypt hashes
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "res@x.com", "Aa1!aaaa", "researcher")
	createUser(t, db, "enc@x.com", "Aa1!aaaa", "encoder")

	for _, email := range []string{"res@x.com", "enc@x.com"} {
		token := loginToken(t, app, email, "Aa1!aaaa")
		resp := doJSON(t, app, "GET", "/api/admin/users", token, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}

func TestSetRole(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	target := createUser(t, db, "res@x.com", "Aa1!aaaa", "researcher")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "PUT", userPath(target.ID)+"/role", token, fiber.Map{"role": "encoder"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.Equal(t, "encoder", reloaded.Role)

	// Neither the super-admin role nor unknown roles are assignable.
	resp = doJSON(t, app, "PUT", userPath(target.ID)+"/role", token, fiber.Map{"role": "super-admin"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp = doJSON(t, app, "PUT", userPath(target.ID)+"/role", token, fiber.Map{"role": "owner"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestToggleStatusLocksOutTarget(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	target := createUser(t, db, "res@x.com", "Aa1!aaaa", "researcher")
	adminToken := loginToken(t, app, "adm@x.com", "Aa1!aaaa")
	targetToken := loginToken(t, app, "res@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "PUT", userPath(target.ID)+"/toggle-status", adminToken, fiber.Map{"enabled": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/profile", targetToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Re-enable and the same token works again.
	resp = doJSON(t, app, "PUT", userPath(target.ID)+"/toggle-status", adminToken, fiber.Map{"enabled": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, "GET", "/api/profile", targetToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	target := createUser(t, db, "one@x.com", "Aa1!aaaa", "researcher")
	createUser(t, db, "two@x.com", "Aa1!aaaa", "researcher")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "PUT", userPath(target.ID), token, fiber.Map{"email": "two@x.com"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, "PUT", userPath(target.ID), token, fiber.Map{
		"email":    "One.Renamed@X.com",
		"fullname": "Renamed One",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.Equal(t, "one.renamed@x.com", reloaded.Email)
	assert.Equal(t, "Renamed One", reloaded.FullName)
}

func TestDeleteUser(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	target := createUser(t, db, "gone@x.com", "Aa1!aaaa", "researcher")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "DELETE", userPath(target.ID), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", userPath(target.ID), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeletedUserEmailCanSignUpAgain(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	target := createUser(t, db, "gone@x.com", "Aa1!aaaa", "researcher")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "DELETE", userPath(target.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The email is released along with the account.
	resp = doJSON(t, app, "POST", "/api/signup", "", fiber.Map{
		"email":    "gone@x.com",
		"fullname": "Gone Returns",
		"password": "Bb2!bbbb",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSuperAdminImmunity(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	var root models.User
	require.NoError(t, db.Where("email = ?", superAdminEmail).First(&root).Error)

	cases := []struct {
		method string
		path   string
		body   fiber.Map
	}{
		{"PUT", userPath(root.ID) + "/role", fiber.Map{"role": "researcher"}},
		{"PUT", userPath(root.ID) + "/toggle-status", fiber.Map{"enabled": false}},
		{"PUT", userPath(root.ID), fiber.Map{"fullname": "Hijacked"}},
		{"DELETE", userPath(root.ID), nil},
	}
	for _, tc := range cases {
		resp := doJSON(t, app, tc.method, tc.path, token, tc.body)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "%s %s", tc.method, tc.path)
	}

	// Nothing changed.
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, root.ID).Error)
	assert.Equal(t, root.Role, reloaded.Role)
	assert.True(t, reloaded.Enabled)
	assert.Equal(t, root.FullName, reloaded.FullName)
}

func TestSuperAdminCanManageUsers(t *testing.T) {
	app, db, _ := newTestApp(t)
	target := createUser(t, db, "res@x.com", "Aa1!aaaa", "researcher")
	rootToken := loginToken(t, app, superAdminEmail, superAdminPassword)

	resp := doJSON(t, app, "PUT", userPath(target.ID)+"/role", rootToken, fiber.Map{"role": "admin"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminTargetNotFound(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "adm@x.com", "Aa1!aaaa", "admin")
	token := loginToken(t, app, "adm@x.com", "Aa1!aaaa")

	resp := doJSON(t, app, "PUT", "/api/admin/users/99999/role", token, fiber.Map{"role": "encoder"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
