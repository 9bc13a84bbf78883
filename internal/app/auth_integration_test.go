//go:build integration

package app

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/agrohub/agrohub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userBody struct {
	Success bool `json:"success"`
	User    struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		Role           string `json:"role"`
		ProfilePicture string `json:"profilePicture"`
		Bio            string `json:"bio"`
		Phone          string `json:"phone"`
		FullAddress    string `json:"fullAddress"`
	} `json:"user"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func TestAuth_RegisterLoginProfile(t *testing.T) {
	client := newTestClient(t)
	email := testutil.RandomEmail()

	resp, err := client.POST("/api/auth/register", map[string]string{
		"name":     "Jane",
		"email":    strings.ToUpper(email),
		"password": "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw := testutil.ReadBody(t, resp)
	assert.NotContains(t, raw, "secret1")
	assert.NotContains(t, raw, "password")

	login := client.LoginAs(t, email, "secret1")
	assert.Equal(t, "farmer", login.User.Role)

	resp, err = client.GET("/api/auth/profile")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile userBody
	testutil.DecodeJSON(t, resp, &profile)
	assert.Equal(t, email, profile.User.Email)
	assert.Contains(t, profile.User.ProfilePicture, "ui-avatars.com")
}

func TestAuth_PasswordStoredHashed(t *testing.T) {
	client := newTestClient(t)
	email := testutil.RandomEmail()
	client.Register(t, "Hash Check", email, "secret1", "")

	var hash string
	err := testDB.QueryRow(context.Background(),
		`SELECT password_hash FROM users WHERE email = $1`, email).Scan(&hash)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))
}

func TestAuth_RegisterRejectsAdminRole(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/auth/register", map[string]string{
		"name":     "Mallory",
		"email":    testutil.RandomEmail(),
		"password": "secret1",
		"role":     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.False(t, body.Success)
}

func TestAuth_DuplicateEmail(t *testing.T) {
	client := newTestClient(t)
	email := testutil.RandomEmail()
	client.Register(t, "First", email, "secret1", "")

	resp, err := client.POST("/api/auth/register", map[string]string{
		"name":     "Second",
		"email":    email,
		"password": "secret2",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body errorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "User already exists", body.Message)
}

func TestAuth_ConcurrentRegistrationSameEmail(t *testing.T) {
	email := testutil.RandomEmail()

	const attempts = 8
	statuses := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := testutil.NewClient(testServer.URL)
			resp, err := client.POST("/api/auth/register", map[string]string{
				"name": "Racer", "email": email, "password": "secret1",
			})
			if err != nil {
				return
			}
			_ = resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		if s == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, s)
		}
	}
	assert.Equal(t, 1, created)
}

func TestAuth_LoginFailuresAreIndistinguishable(t *testing.T) {
	client := newTestClient(t)
	email := testutil.RandomEmail()
	client.Register(t, "Jane", email, "secret1", "")

	for _, creds := range []map[string]string{
		{"email": email, "password": "wrong-pass"},
		{"email": testutil.RandomEmail(), "password": "secret1"},
	} {
		resp, err := client.POST("/api/auth/login", creds)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body errorBody
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "Invalid credentials", body.Message)
	}
}

func TestAuth_ProfileRequiresToken(t *testing.T) {
	client := newTestClient(t)

	for _, token := range []string{"", "not-a-jwt"} {
		resp, err := client.WithToken(token).GET("/api/auth/profile")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestAuth_UpdateProfile(t *testing.T) {
	client := newTestClient(t)
	email := testutil.RandomEmail()
	reg := client.Register(t, "Jane", email, "secret1", "expert")
	client = client.WithToken(reg.Token)

	// The alias shares a path prefix with /api/users/{id}, which the
	// OpenAPI router cannot disambiguate.
	resp, err := client.WithoutValidation().PUT("/api/users/profile", map[string]interface{}{
		"bio":     "Soil scientist",
		"phone":   "+254 700",
		"address": map[string]string{"city": "Nakuru", "country": "Kenya"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body userBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "Soil scientist", body.User.Bio)
	assert.Equal(t, "Nakuru, Kenya", body.User.FullAddress)
	assert.Equal(t, "expert", body.User.Role)

	resp, err = client.PUT("/api/auth/profile", map[string]string{"bio": ""})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &body)
	assert.Empty(t, body.User.Bio)
	assert.Equal(t, "+254 700", body.User.Phone)

	resp, err = client.PUT("/api/auth/profile", map[string]string{"bio": strings.Repeat("x", 501)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAuth_UpdateProfileEmailConflict(t *testing.T) {
	client := newTestClient(t)
	taken := testutil.RandomEmail()
	client.Register(t, "Owner", taken, "secret1", "")
	reg := client.Register(t, "Other", testutil.RandomEmail(), "secret1", "")

	resp, err := client.WithToken(reg.Token).PUT("/api/auth/profile", map[string]string{"email": taken})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}
