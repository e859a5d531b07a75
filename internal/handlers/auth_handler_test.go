package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/logger"
	"esarbank/internal/middleware"
	"esarbank/internal/models"
	"esarbank/internal/services"
	"esarbank/internal/validator"
)

const (
	testUserID = "0192b1a4-9c1e-7000-8000-000000000001"
	testEmail  = "asha@example.com"
)

// --- mock services ---

type mockUserService struct {
	signupFn       func(input services.SignupInput) (*models.User, *models.AccountDetails, error)
	authenticateFn func(email, password string) (*models.User, error)
}

func (m *mockUserService) Signup(_ context.Context, input services.SignupInput) (*models.User, *models.AccountDetails, error) {
	if m.signupFn != nil {
		return m.signupFn(input)
	}
	return &models.User{}, &models.AccountDetails{}, nil
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return &models.User{Email: email}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user := &models.User{}
	user.ID = id
	return user, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool { return true }

func (m *mockUserService) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{Email: email}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type mockLoginService struct {
	recordLoginFn  func(email string) (*models.LoginDetail, error)
	getLastLoginFn func(email string) (time.Time, error)
	recorded       []string
}

func (m *mockLoginService) RecordLogin(_ context.Context, email string) (*models.LoginDetail, error) {
	m.recorded = append(m.recorded, email)
	if m.recordLoginFn != nil {
		return m.recordLoginFn(email)
	}
	return &models.LoginDetail{Email: email, LoginAttempts: 1}, nil
}

func (m *mockLoginService) GetLastLogin(_ context.Context, email string) (time.Time, error) {
	if m.getLastLoginFn != nil {
		return m.getLastLoginFn(email)
	}
	return time.Time{}, apperrors.ErrLoginDetailsNotFound
}

var _ services.LoginServicer = (*mockLoginService)(nil)

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testTokens() *middleware.TokenManager {
	return middleware.NewTokenManager("handler-test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/signup", handler.Signup)
	r.POST("/signin", handler.Signin)
	r.POST("/confirm-account", handler.ConfirmAccount)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uid)
		c.Set(middleware.ContextEmail, testEmail)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
	if result["message"] != errObj["message"] {
		t.Errorf("expected top-level message to mirror error.message, got %v", result["message"])
	}
}

func newTestAuthHandler(users *mockUserService, accounts *mockAccountService, logins *mockLoginService, audit *mockAuditService) *AuthHandler {
	return NewAuthHandler(users, accounts, logins, audit, testTokens())
}

// --- tests ---

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("returns 201 with account details", func(t *testing.T) {
		var got services.SignupInput
		users := &mockUserService{
			signupFn: func(input services.SignupInput) (*models.User, *models.AccountDetails, error) {
				got = input
				user := &models.User{Email: input.Email}
				user.ID = testUserID
				return user, &models.AccountDetails{IFSC: "ESARPUN123", AccountNumber: "227100000000001", CustomerID: "42"}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(newTestAuthHandler(users, &mockAccountService{}, &mockLoginService{}, audit))

		rec := doRequest(r, "POST", "/signup",
			`{"firstName":"Asha","lastName":"Rao","email":"asha@example.com","password":"password123","city":"Pune","aadhar":"123412341234"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["userId"] != testUserID {
			t.Errorf("expected userId %s, got %v", testUserID, result["userId"])
		}
		details := result["accountDetails"].(map[string]interface{})
		if details["IFSC"] != "ESARPUN123" || details["accountNumber"] != "227100000000001" {
			t.Errorf("unexpected account details %v", details)
		}
		if got.City != "Pune" || got.FirstName != "Asha" {
			t.Errorf("profile not passed through: %+v", got)
		}
		if len(audit.actions) != 1 || audit.actions[0] != services.AuditActionSignup {
			t.Errorf("expected signup audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns 400 on missing password", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signup", `{"email":"asha@example.com"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signup", `{"email":"asha@example.com","password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed aadhar", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signup", `{"email":"asha@example.com","password":"password123","aadhar":"12ab"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		users := &mockUserService{
			signupFn: func(services.SignupInput) (*models.User, *models.AccountDetails, error) {
				return nil, nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(newTestAuthHandler(users, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signup", `{"email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("hides internal errors", func(t *testing.T) {
		users := &mockUserService{
			signupFn: func(services.SignupInput) (*models.User, *models.AccountDetails, error) {
				return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("connection reset"))
			},
		}
		r := setupAuthRouter(newTestAuthHandler(users, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signup", `{"email":"asha@example.com","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection reset") {
			t.Error("internal error leaked to the client")
		}
	})
}

func TestAuthHandler_Signin(t *testing.T) {
	t.Run("returns 200 with a valid token and records the login", func(t *testing.T) {
		users := &mockUserService{
			authenticateFn: func(email, _ string) (*models.User, error) {
				user := &models.User{Email: email, FirstName: "Asha", LastName: "Rao"}
				user.ID = testUserID
				return user, nil
			},
		}
		logins := &mockLoginService{}
		tokens := testTokens()
		r := setupAuthRouter(NewAuthHandler(users, &mockAccountService{}, logins, &mockAuditService{}, tokens))

		rec := doRequest(r, "POST", "/signin", `{"email":"asha@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		claims, err := tokens.Parse(token)
		if err != nil {
			t.Fatalf("token did not verify: %v", err)
		}
		if claims.UserID != testUserID || claims.Email != testEmail || claims.FirstName != "Asha" {
			t.Errorf("unexpected claims %+v", claims)
		}
		if len(logins.recorded) != 1 || logins.recorded[0] != testEmail {
			t.Errorf("expected login recorded for %s, got %v", testEmail, logins.recorded)
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		users := &mockUserService{
			authenticateFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		logins := &mockLoginService{}
		r := setupAuthRouter(newTestAuthHandler(users, &mockAccountService{}, logins, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signin", `{"email":"asha@example.com","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
		if len(logins.recorded) != 0 {
			t.Error("failed signin must not be recorded")
		}
	})

	t.Run("returns 500 when the login cannot be recorded", func(t *testing.T) {
		logins := &mockLoginService{
			recordLoginFn: func(string) (*models.LoginDetail, error) {
				return nil, fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, logins, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signin", `{"email":"asha@example.com","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/signin", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ConfirmAccount(t *testing.T) {
	valid := `{"userId":"` + testUserID + `","accountDetails":{"IFSC":"ESARPUN123","accountNumber":"227100000000001","customerId":"42"}}`

	t.Run("returns 201 on success", func(t *testing.T) {
		var gotUser string
		var gotDetails models.AccountDetails
		accounts := &mockAccountService{
			confirmSavingsAccountFn: func(userID string, details models.AccountDetails) (*models.Account, error) {
				gotUser, gotDetails = userID, details
				return &models.Account{UserID: userID, AccountNumber: details.AccountNumber, Type: models.AccountTypeSavings}, nil
			},
		}
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, accounts, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/confirm-account", valid)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUser != testUserID || gotDetails.CustomerID != "42" || gotDetails.IFSC != "ESARPUN123" {
			t.Errorf("unexpected service call: %s %+v", gotUser, gotDetails)
		}
		account := parseJSON(t, rec)["account"].(map[string]interface{})
		if account["accountType"] != "Savings" {
			t.Errorf("expected Savings account, got %v", account["accountType"])
		}
	})

	t.Run("returns 400 on malformed details", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, &mockAccountService{}, &mockLoginService{}, &mockAuditService{}))

		tests := []string{
			`{"userId":"` + testUserID + `","accountDetails":{"IFSC":"BANK0001","accountNumber":"227100000000001","customerId":"42"}}`,
			`{"userId":"` + testUserID + `","accountDetails":{"IFSC":"ESARPUN123","accountNumber":"12345","customerId":"42"}}`,
			`{"userId":"not-a-uuid","accountDetails":{"IFSC":"ESARPUN123","accountNumber":"227100000000001","customerId":"42"}}`,
			`{"userId":"` + testUserID + `"}`,
		}
		for _, body := range tests {
			rec := doRequest(r, "POST", "/confirm-account", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400 for %s, got %d", body, rec.Code)
			}
		}
	})

	t.Run("returns 404 when user not found", func(t *testing.T) {
		accounts := &mockAccountService{
			confirmSavingsAccountFn: func(string, models.AccountDetails) (*models.Account, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, accounts, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/confirm-account", valid)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})

	t.Run("returns 409 when savings account exists", func(t *testing.T) {
		accounts := &mockAccountService{
			confirmSavingsAccountFn: func(string, models.AccountDetails) (*models.Account, error) {
				return nil, apperrors.ErrAccountExists
			},
		}
		r := setupAuthRouter(newTestAuthHandler(&mockUserService{}, accounts, &mockLoginService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/confirm-account", valid)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}
