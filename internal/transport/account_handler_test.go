package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRouter(accounts *fakeAccountService, userID int64) http.Handler {
	return routerFor(userID, NewAccountHandler(accounts, testLogger).RegisterRoutes)
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Name:                 "Taro",
		Email:                "taro@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}
}

// Feature: flea-market, Property 17: Invalid registration data is rejected
func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration with an invalid field returns 400 naming that field", prop.ForAll(
		func(invalidCase int) bool {
			accounts := newFakeAccountService()
			router := newAccountRouter(accounts, 0)

			req := validRegistration()
			var field string
			switch invalidCase {
			case 0:
				req.Email, field = "", "email"
			case 1:
				req.Email, field = "not-an-email", "email"
			case 2:
				req.Password, req.PasswordConfirmation, field = "short", "short", "password"
			case 3:
				req.Name, field = "", "name"
			case 4:
				req.Name, field = "abcdefghijklmnopqrstu", "name"
			default:
				req.PasswordConfirmation, field = "different1", "password_confirmation"
			}

			rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", req))
			if rec.Code != http.StatusBadRequest {
				t.Logf("FAIL: case %d returned %d", invalidCase, rec.Code)
				return false
			}
			if len(accounts.users) != 0 {
				t.Logf("FAIL: case %d created an account", invalidCase)
				return false
			}

			fields := validationFields(t, errorBody(t, rec))
			for _, f := range fields {
				if f == field {
					return true
				}
			}
			t.Logf("FAIL: case %d fields %v missing %s", invalidCase, fields, field)
			return false
		},
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: flea-market, Property 18: Valid login returns both tokens
func TestProperty_ValidLoginReturnsBothTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("login with registered credentials returns access and refresh tokens", prop.ForAll(
		func(n int) bool {
			accounts := newFakeAccountService()
			router := newAccountRouter(accounts, 0)

			email := fmt.Sprintf("user%d@example.com", n)
			req := validRegistration()
			req.Email = email
			if rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", req)); rec.Code != http.StatusCreated {
				t.Logf("FAIL: register returned %d", rec.Code)
				return false
			}

			rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/login", LoginRequest{Email: email, Password: req.Password}))
			if rec.Code != http.StatusOK {
				t.Logf("FAIL: login returned %d", rec.Code)
				return false
			}

			var resp LoginResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Logf("FAIL: decode: %v", err)
				return false
			}
			return resp.AccessToken != "" && resp.RefreshToken != "" && resp.User.Email == email
		},
		gen.IntRange(1, 10000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_ReturnsProfile(t *testing.T) {
	router := newAccountRouter(newFakeAccountService(), 0)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))
	require.Equal(t, http.StatusCreated, rec.Code)

	var profile UserProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, "Taro", profile.Name)
	assert.Equal(t, "taro@example.com", profile.Email)
	assert.Equal(t, "user", profile.Role)
	assert.False(t, profile.EmailVerified)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	router := newAccountRouter(newFakeAccountService(), 0)

	serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))
	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_MalformedBody(t *testing.T) {
	router := newAccountRouter(newFakeAccountService(), 0)

	req := jsonRequest(t, http.MethodPost, "/api/users/register", "not an object")
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	accounts := newFakeAccountService()
	router := newAccountRouter(accounts, 0)
	serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/login", LoginRequest{Email: "taro@example.com", Password: "wrong-password"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", errorBody(t, rec).Message)
}

func TestRefresh(t *testing.T) {
	accounts := newFakeAccountService()
	router := newAccountRouter(accounts, 0)
	serve(router, jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/users/refresh", RefreshRequest{RefreshToken: "refresh-taro@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RefreshResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "access-taro@example.com", resp.AccessToken)

	rec = serve(router, jsonRequest(t, http.MethodPost, "/api/users/refresh", RefreshRequest{RefreshToken: "bogus"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	accounts := newFakeAccountService()
	serve(newAccountRouter(accounts, 0), jsonRequest(t, http.MethodPost, "/api/users/register", validRegistration()))

	rec := serve(newAccountRouter(accounts, 1), jsonRequest(t, http.MethodGet, "/api/users/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var profile UserProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, int64(1), profile.ID)

	rec = serve(newAccountRouter(accounts, 0), jsonRequest(t, http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(newAccountRouter(accounts, 42), jsonRequest(t, http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
