package mercadopago

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	mp "github.com/ignaciojsoler/saas-boilerplate/mercadopago"
	"github.com/ignaciojsoler/saas-boilerplate/testutils"
)

func authStub(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func TestCreateCheckout_Success(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	provider := &fakeProvider{
		preapproval: &mp.Preapproval{
			ID:        "sub_new",
			Status:    "pending",
			InitPoint: "https://www.mercadopago.com/checkout/abc",
		},
	}
	handler := New(gormDB, provider, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.POST("/subscriptions/checkout", authStub("user-uuid-1"), handler.CreateCheckout)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 (.+)`).
		WithArgs("user-uuid-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("user-uuid-1", "a@x.com"))

	mock.ExpectQuery(`SELECT \* FROM "subscription_plans" WHERE id = \$1 AND is_active = \$2 (.+)`).
		WithArgs("pro", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "currency", "interval", "is_active"}).
			AddRow("pro", "Pro plan", 3000.0, "ARS", "monthly", true))

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE user_id = \$1 AND status IN (.+)`).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) ON CONFLICT (.+) DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sub-uuid-1"))
	mock.ExpectCommit()

	payload, _ := json.Marshal(map[string]string{"planId": "pro"})
	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/checkout", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var body map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &body)
	assert.Equal(t, "https://www.mercadopago.com/checkout/abc", body["initPoint"])
	assert.Equal(t, "sub_new", body["externalId"])

	if assert.NotNil(t, provider.createdRequest) {
		assert.Equal(t, "a@x.com", provider.createdRequest.PayerEmail)
		assert.Equal(t, "pro_user-uuid-1", provider.createdRequest.ExternalReference)
		assert.Equal(t, "Subscription Pro plan", provider.createdRequest.Reason)
		if assert.NotNil(t, provider.createdRequest.AutoRecurring) {
			assert.Equal(t, 3000.0, provider.createdRequest.AutoRecurring.TransactionAmount)
			assert.Equal(t, "months", provider.createdRequest.AutoRecurring.FrequencyType)
		}
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCheckout_ExistingSubscriptionConflicts(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	provider := &fakeProvider{}
	handler := New(gormDB, provider, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.POST("/subscriptions/checkout", authStub("user-uuid-1"), handler.CreateCheckout)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 (.+)`).
		WithArgs("user-uuid-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("user-uuid-1", "a@x.com"))

	mock.ExpectQuery(`SELECT \* FROM "subscription_plans" WHERE id = \$1 AND is_active = \$2 (.+)`).
		WithArgs("basic", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "currency"}).
			AddRow("basic", "Basic plan", 1000.0, "ARS"))

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE user_id = \$1 AND status IN (.+)`).
		WillReturnRows(subscriptionRow("sub-uuid-1", "user-uuid-1", "pro", "sub_123", "active"))

	payload, _ := json.Marshal(map[string]string{"planId": "basic"})
	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/checkout", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Nil(t, provider.createdRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutSuccess_AuthorizedPreapprovalRedirects(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	provider := &fakeProvider{
		preapproval: &mp.Preapproval{
			ID:                "sub_123",
			Status:            "authorized",
			PayerEmail:        "a@x.com",
			ExternalReference: "pro_999",
		},
	}
	handler := New(gormDB, provider, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.GET("/mercadopago/success", handler.CheckoutSuccess)

	expectUserByEmail(mock, "a@x.com", "user-uuid-1")
	expectSubscriptionByExternalID(mock, "sub_123", subscriptionRow("sub-uuid-1", "user-uuid-1", "pro", "sub_123", "pending"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, _ := http.NewRequest(http.MethodGet, "/mercadopago/success?preapproval_id=sub_123", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusTemporaryRedirect, resp.Code)
	assert.Contains(t, resp.Header().Get("Location"), "http://localhost:3000/billing?status=success")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutSuccess_MissingPreapprovalIDRedirectsWithError(t *testing.T) {
	gormDB, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	handler := New(gormDB, &fakeProvider{}, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.GET("/mercadopago/success", handler.CheckoutSuccess)

	req, _ := http.NewRequest(http.MethodGet, "/mercadopago/success", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusTemporaryRedirect, resp.Code)
	assert.Contains(t, resp.Header().Get("Location"), "status=error")
}

func TestCancelSubscription_Success(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	provider := &fakeProvider{}
	handler := New(gormDB, provider, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.POST("/subscriptions/:subscriptionId/cancel", authStub("user-uuid-1"), handler.CancelSubscription)

	subscriptionID := "a2f5e0bc-0f7e-4f1a-9b1a-111111111111"
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1 (.+)`).
		WithArgs(subscriptionID, 1).
		WillReturnRows(subscriptionRow(subscriptionID, "user-uuid-1", "pro", "sub_123", "active"))

	// cancelled_at, metadata, status, updated_at
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET (.+)`).
		WithArgs(
			sqlmock.AnyArg(),
			jsonHasKV{"cancelled_reason", "user_request"},
			"cancelled",
			sqlmock.AnyArg(),
			subscriptionID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "sub_123", provider.cancelledID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSubscription_NotOwnerForbidden(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	provider := &fakeProvider{}
	handler := New(gormDB, provider, "http://localhost:3000")

	r := testutils.SetupTestRouter()
	r.POST("/subscriptions/:subscriptionId/cancel", authStub("user-uuid-2"), handler.CancelSubscription)

	subscriptionID := "a2f5e0bc-0f7e-4f1a-9b1a-111111111111"
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1 (.+)`).
		WithArgs(subscriptionID, 1).
		WillReturnRows(subscriptionRow(subscriptionID, "user-uuid-1", "pro", "sub_123", "active"))

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, provider.cancelledID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
