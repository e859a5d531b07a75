package router

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
	"gorm.io/gorm"

	"esarbank/internal/config"
	"esarbank/internal/logger"
	"esarbank/internal/models"
	"esarbank/internal/notify"
	"esarbank/internal/testutil"
	"esarbank/internal/validator"
)

const testAPIKey = "test-pipeline-key"

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// customer is a signed-up user with a confirmed savings account.
type customer struct {
	Email         string
	UserID        string
	Token         string
	AccountNumber string
	CustomerID    string
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWithNotifier(t, notify.Nop{})
}

// setupAppWithNotifier is setupApp with the given notifier.
func setupAppWithNotifier(t *testing.T, notifier notify.Notifier) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := &config.Config{
		JWTSecret:        "router-test-secret",
		JWTExpirationDur: time.Hour,
		PipelineAPIKey:   testAPIKey,
	}
	return &testApp{DB: db, Router: New(cfg, NewServices(db), notifier)}
}

// recordingNotifier hands every receipt to the test over a channel.
type recordingNotifier struct {
	transfers chan notify.TransferReceipt
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{transfers: make(chan notify.TransferReceipt, 4)}
}

func (n *recordingNotifier) TransferCompleted(_ context.Context, receipt notify.TransferReceipt) error {
	n.transfers <- receipt
	return nil
}

func (n *recordingNotifier) DepositWithdrawn(context.Context, notify.WithdrawalReceipt) error {
	return nil
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// parseJSONArray parses a response body that is a JSON array.
func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var result []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// signin logs in and returns the token.
func (app *testApp) signin(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, testutil.TestPassword)
	rec := app.request("POST", "/api/signin", body, "")
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["token"].(string)
}

// onboard runs signup, confirm-account and signin for email.
func (app *testApp) onboard(t *testing.T, email, city string) customer {
	t.Helper()

	body := fmt.Sprintf(`{"firstName":"Test","lastName":"User","email":%q,"password":%q,"city":%q}`,
		email, testutil.TestPassword, city)
	rec := app.request("POST", "/api/signup", body, "")
	expectStatus(t, rec, http.StatusCreated)
	signup := parseJSON(t, rec)
	userID := signup["userId"].(string)
	details := signup["accountDetails"].(map[string]interface{})

	confirm, err := json.Marshal(map[string]interface{}{"userId": userID, "accountDetails": details})
	if err != nil {
		t.Fatalf("marshal confirm body: %v", err)
	}
	rec = app.request("POST", "/api/confirm-account", string(confirm), "")
	expectStatus(t, rec, http.StatusCreated)

	return customer{
		Email:         email,
		UserID:        userID,
		Token:         app.signin(t, email),
		AccountNumber: details["accountNumber"].(string),
		CustomerID:    details["customerId"].(string),
	}
}

// fund sets an account balance directly; the API has no cash deposit.
func (app *testApp) fund(t *testing.T, accountNumber, balance string) {
	t.Helper()
	res := app.DB.Model(&models.Account{}).
		Where("account_number = ?", accountNumber).
		Update("balance", testutil.Money(t, balance))
	if res.Error != nil || res.RowsAffected != 1 {
		t.Fatalf("fund %s: rows=%d err=%v", accountNumber, res.RowsAffected, res.Error)
	}
}

// balance reads an account balance through the API.
func (app *testApp) balance(t *testing.T, c customer, accountNumber string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/accountsByEmail?email="+c.Email, "", c.Token)
	expectStatus(t, rec, http.StatusOK)
	for _, acct := range parseJSONArray(t, rec) {
		if acct["accountNumber"] == accountNumber {
			return acct["currentBalance"].(float64)
		}
	}
	t.Fatalf("account %s not listed for %s", accountNumber, c.Email)
	return 0
}
