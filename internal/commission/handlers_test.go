package commission

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"quota-backend/internal/holdings"
	"quota-backend/internal/middleware"
	"quota-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHandlersTest(t *testing.T, clientkey string) (*fiber.App, *Service, *holdings.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Holding{},
		&models.Commission{},
		&models.Provision{},
		&models.ProvisionLog{},
	))

	svc := &Service{DB: db}
	h := &Handlers{Service: svc}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("clientkey", clientkey)
		return c.Next()
	})
	app.Post("/api/v1/commissions/issue-commission", h.IssueCommission)
	app.Get("/api/v1/commissions/get-commission/:serial", h.GetCommission)
	app.Get("/api/v1/commissions/get-pending-commissions", h.GetPendingCommissions)
	app.Post("/api/v1/commissions/resolve-pending-commission", h.ResolvePendingCommission)
	app.Post("/api/v1/commissions/resolve-pending-commissions", h.ResolvePendingCommissions)

	return app, svc, &holdings.Service{DB: db}
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestIssueCommission_Created(t *testing.T) {
	app, _, hsvc := setupHandlersTest(t, "compute")
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(context.Background(), []holdings.QuotaEntry{{HoldingKey: k, Limit: 10}}))

	status, body := postJSON(t, app, "/api/v1/commissions/issue-commission", fiber.Map{
		"name": "spawn vm",
		"provisions": []fiber.Map{
			{"holder": "acct", "source": "proj", "resource": "vcpu", "quantity": 5},
		},
	})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["serial"])
}

func TestIssueCommission_FractionalQuantityRejected(t *testing.T) {
	app, _, hsvc := setupHandlersTest(t, "compute")
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(context.Background(), []holdings.QuotaEntry{{HoldingKey: k, Limit: 10}}))

	status, body := postJSON(t, app, "/api/v1/commissions/issue-commission", fiber.Map{
		"provisions": []fiber.Map{
			{"holder": "acct", "source": "proj", "resource": "vcpu", "quantity": 2.5},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "InvalidDataError", details["error"])
	assert.Equal(t, "2.5", details["value"])
}

func TestIssueCommission_NoCapacityDetails(t *testing.T) {
	app, _, hsvc := setupHandlersTest(t, "compute")
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(context.Background(), []holdings.QuotaEntry{{HoldingKey: k, Limit: 3}}))

	status, body := postJSON(t, app, "/api/v1/commissions/issue-commission", fiber.Map{
		"provisions": []fiber.Map{
			{"holder": "acct", "source": "proj", "resource": "vcpu", "quantity": 5},
		},
	})
	assert.Equal(t, fiber.StatusConflict, status)
	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "NoCapacityError", details["error"])
	assert.Equal(t, float64(0), details["usage"])
	assert.Equal(t, float64(3), details["limit"])
}

func TestGetCommission_NotFoundAndBadSerial(t *testing.T) {
	app, _, _ := setupHandlersTest(t, "compute")

	req := httptest.NewRequest("GET", "/api/v1/commissions/get-commission/999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/commissions/get-commission/not-a-number", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestResolvePendingCommissions_Partition(t *testing.T) {
	app, svc, hsvc := setupHandlersTest(t, "compute")
	ctx := context.Background()
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(ctx, []holdings.QuotaEntry{{HoldingKey: k, Limit: 100}}))

	var serials []int64
	for i := 0; i < 3; i++ {
		serial, err := svc.Issue(ctx, IssueInput{ClientKey: "compute", Provisions: []ProvisionInput{{HoldingKey: k, Quantity: 1}}})
		require.NoError(t, err)
		serials = append(serials, serial)
	}

	status, body := postJSON(t, app, "/api/v1/commissions/resolve-pending-commissions", fiber.Map{
		"accept": []int64{serials[0], serials[2]},
		"reject": []int64{serials[1], serials[2]},
		"reason": "batch review",
	})
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(serials[0])}, data["accepted"])
	assert.Equal(t, []interface{}{float64(serials[1])}, data["rejected"])
	assert.Equal(t, []interface{}{float64(serials[2])}, data["conflicting"])
	assert.Equal(t, []interface{}{}, data["not_found"])
}

func TestResolvePendingCommission_BoolResult(t *testing.T) {
	app, svc, hsvc := setupHandlersTest(t, "compute")
	ctx := context.Background()
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(ctx, []holdings.QuotaEntry{{HoldingKey: k, Limit: 10}}))

	serial, err := svc.Issue(ctx, IssueInput{ClientKey: "compute", Provisions: []ProvisionInput{{HoldingKey: k, Quantity: 5}}})
	require.NoError(t, err)

	status, body := postJSON(t, app, "/api/v1/commissions/resolve-pending-commission",
		fiber.Map{"serial": serial, "accept": true})
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["resolved"])

	// resolving again: false, not an error
	status, body = postJSON(t, app, "/api/v1/commissions/resolve-pending-commission",
		fiber.Map{"serial": serial, "accept": true})
	assert.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, false, data["resolved"])
}

func TestGetPendingCommissions_ScopedToClientKey(t *testing.T) {
	app, svc, hsvc := setupHandlersTest(t, "compute")
	ctx := context.Background()
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(ctx, []holdings.QuotaEntry{{HoldingKey: k, Limit: 100}}))

	serial, err := svc.Issue(ctx, IssueInput{ClientKey: "compute", Provisions: []ProvisionInput{{HoldingKey: k, Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueInput{ClientKey: "storage", Provisions: []ProvisionInput{{HoldingKey: k, Quantity: 1}}})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/commissions/get-pending-commissions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []interface{}{float64(serial)}, body["data"])
}

func TestIssueCommission_DuplicateKey(t *testing.T) {
	app, _, hsvc := setupHandlersTest(t, "compute")
	k := models.HoldingKey{Holder: "acct", Source: "proj", Resource: "vcpu"}
	require.NoError(t, hsvc.SetQuota(context.Background(), []holdings.QuotaEntry{{HoldingKey: k, Limit: 10}}))

	prov := fiber.Map{"holder": "acct", "source": "proj", "resource": "vcpu", "quantity": 1}
	status, body := postJSON(t, app, "/api/v1/commissions/issue-commission", fiber.Map{
		"provisions": []fiber.Map{prov, prov},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "DuplicateError", details["error"])
}
