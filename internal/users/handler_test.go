package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	"github.com/agrohub/agrohub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) router() http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(f.identity))
		identity.NewHandler(f.identity).RegisterProtectedRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RoleAdmin))
			NewHandler(f.users).RegisterAdminRoutes(r)
		})
	})
	return r
}

func tokenFor(u *domain.User) string {
	return u.ID + "|" + string(u.Role)
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHandler_AdminGate(t *testing.T) {
	f := newFixture(t)
	router := f.router()
	farmer := f.farmer(t, "a@x.com")

	code, _ := call(t, router, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := call(t, router, http.MethodGet, "/users", tokenFor(farmer), "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["success"])

	code, _ = call(t, router, http.MethodDelete, "/users/"+f.admin.ID, tokenFor(farmer), "")
	assert.Equal(t, http.StatusForbidden, code)
	_, err := f.users.GetUser(t.Context(), f.admin.ID)
	assert.NoError(t, err)
}

func TestHandler_ProfileAliasNotShadowed(t *testing.T) {
	f := newFixture(t)
	farmer := f.farmer(t, "a@x.com")

	code, body := call(t, f.router(), http.MethodGet, "/users/profile", tokenFor(farmer), "")
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, farmer.ID, user["id"])
}

func TestHandler_ListUsers(t *testing.T) {
	f := newFixture(t)
	f.farmer(t, "a@x.com")

	code, body := call(t, f.router(), http.MethodGet, "/users", tokenFor(f.admin), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["count"])
	assert.Len(t, body["users"], 2)
	assert.NotContains(t, body, "passwordHash")
}

func TestHandler_CreateUser(t *testing.T) {
	f := newFixture(t)
	router := f.router()

	code, body := call(t, router, http.MethodPost, "/users", tokenFor(f.admin),
		`{"name":"Mira","email":"mira@x.com","password":"secret1","role":"expert"}`)
	require.Equal(t, http.StatusCreated, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "expert", user["role"])
	assert.NotContains(t, body, "token")

	code, body = call(t, router, http.MethodPost, "/users", tokenFor(f.admin),
		`{"name":"Mira","email":"mira@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User already exists", body["message"])

	code, body = call(t, router, http.MethodPost, "/users", tokenFor(f.admin), `{"name":"Mira"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please provide name, email, and password", body["message"])
}

func TestHandler_UpdateUserRole(t *testing.T) {
	f := newFixture(t)
	router := f.router()
	farmer := f.farmer(t, "a@x.com")

	code, body := call(t, router, http.MethodPut, "/users/"+farmer.ID+"/role", tokenFor(f.admin), `{"role":"expert"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "expert", body["user"].(map[string]interface{})["role"])

	code, body = call(t, router, http.MethodPut, "/users/"+farmer.ID+"/role", tokenFor(f.admin), `{"role":"boss"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Valid role (admin, farmer, expert) is required", body["message"])

	code, body = call(t, router, http.MethodPut, "/users/"+f.admin.ID+"/role", tokenFor(f.admin), `{"role":"farmer"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot change your own role", body["message"])

	code, body = call(t, router, http.MethodPut, "/users/"+uuid.NewString()+"/role", tokenFor(f.admin), `{"role":"farmer"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])
}

func TestHandler_UpdateUserProfile(t *testing.T) {
	f := newFixture(t)
	farmer := f.farmer(t, "a@x.com")

	code, body := call(t, f.router(), http.MethodPut, "/users/"+farmer.ID+"/profile", tokenFor(f.admin),
		`{"phone":"+1 555","address":{"street":"1 Field Rd","city":"Ames"}}`)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "+1 555", user["phone"])
	assert.Equal(t, "1 Field Rd, Ames", user["fullAddress"])
}

func TestHandler_DeleteUser(t *testing.T) {
	f := newFixture(t)
	router := f.router()
	farmer := f.farmer(t, "a@x.com")

	code, body := call(t, router, http.MethodDelete, "/users/"+f.admin.ID, tokenFor(f.admin), "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot delete your own account", body["message"])

	code, body = call(t, router, http.MethodDelete, "/users/"+farmer.ID, tokenFor(f.admin), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = call(t, router, http.MethodDelete, "/users/"+farmer.ID, tokenFor(f.admin), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, router, http.MethodGet, "/users/"+farmer.ID, tokenFor(f.admin), "")
	assert.Equal(t, http.StatusNotFound, code)
}
