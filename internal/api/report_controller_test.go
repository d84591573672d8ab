package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dutch3883/th-stray-sub000/internal/api"
	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// claimResolver resolves straight from the token claim, reporter by
// default, mirroring the production fallback without a database.
type claimResolver struct{}

func (claimResolver) Resolve(_ context.Context, subject, _ string, claimed auth.Role) (auth.Role, error) {
	if subject == "" {
		return "", auth.ErrUnauthenticated
	}
	if claimed.Valid() {
		return claimed, nil
	}
	return auth.RoleReporter, nil
}

// stubIdentity plays the part of the token middleware: it copies the
// test headers into the context keys the authorization gate reads.
func stubIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sub := c.GetHeader("X-Test-Subject"); sub != "" {
			c.Set(auth.ContextKeyUserID, sub)
			c.Set(auth.ContextKeyEmail, sub+"@example.com")
			c.Set(auth.ContextKeyRoleClaim, c.GetHeader("X-Test-Role"))
		}
		c.Next()
	}
}

type apiEnv struct {
	router *gin.Engine
	svc    service.ReportService
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ReportModel{}, &model.StatusChangeModel{}))

	reportRepo := repository.NewReportRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	reportSvc := service.NewReportService(reportRepo, historyRepo, nil, nil)
	querySvc := service.NewQueryService(reportRepo, historyRepo)

	reportController := api.NewReportController(reportSvc)
	queryController := api.NewQueryController(querySvc, service.NewStatisticsService(db))

	router := gin.New()
	router.Use(stubIdentity())

	resolver := claimResolver{}
	requireOp := func(op auth.Operation) gin.HandlerFunc {
		return auth.RequireOperation(op, resolver)
	}

	v1 := router.Group("/api/v1")
	reports := v1.Group("/reports")
	{
		reports.POST("", requireOp(auth.OpCreateReport), reportController.Create)
		reports.GET("", requireOp(auth.OpListReports), queryController.ListReports)
		reports.GET("/mine", requireOp(auth.OpListMyReports), queryController.ListMyReports)
		reports.GET("/count", requireOp(auth.OpCountAllReports), queryController.CountAllReports)
		reports.GET("/mine/count", requireOp(auth.OpCountMyReports), queryController.CountMyReports)
		reports.GET("/:id", requireOp(auth.OpGetReport), reportController.Get)
		reports.PUT("/:id", requireOp(auth.OpUpdateReport), reportController.Update)
		reports.GET("/:id/history", requireOp(auth.OpGetHistory), queryController.GetHistory)
		reports.POST("/:id/hold", requireOp(auth.OpPutOnHold), reportController.PutOnHold)
		reports.POST("/:id/resume", requireOp(auth.OpResume), reportController.Resume)
		reports.POST("/:id/complete", requireOp(auth.OpComplete), reportController.Complete)
		reports.POST("/:id/cancel", requireOp(auth.OpCancelReport), reportController.Cancel)
	}
	v1.GET("/me/role", requireOp(auth.OpGetUserRole), reportController.GetRole)

	return &apiEnv{router: router, svc: reportSvc}
}

func (env *apiEnv) do(t *testing.T, method, path, subject, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Test-Subject", subject)
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var createBody = map[string]interface{}{
	"number_of_cats": 2,
	"type":           "stray",
	"contact_phone":  "+66811234567",
	"description":    "two cats near the market",
	"location":       map[string]interface{}{"lat": 13.7563, "long": 100.5018, "description": "Chatuchak"},
}

func (env *apiEnv) createReport(t *testing.T, subject string) string {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/reports", subject, "reporter", createBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestAPI_MissingIdentityRejected(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/v1/reports", "", "", createBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNAUTHENTICATED", resp["reason"])
}

func TestAPI_ReporterDeniedGlobalListing(t *testing.T) {
	env := setupAPI(t)

	for _, path := range []string{"/api/v1/reports", "/api/v1/reports/count"} {
		w := env.do(t, http.MethodGet, path, "user-001", "reporter", nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PERMISSION_DENIED", resp["reason"])
	}

	// The same paths open up for a rescuer.
	w := env.do(t, http.MethodGet, "/api/v1/reports", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_CreateAndGetReport(t *testing.T) {
	env := setupAPI(t)

	id := env.createReport(t, "user-001")

	w := env.do(t, http.MethodGet, "/api/v1/reports/"+id, "user-001", "reporter", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ID     string `json:"id"`
			Owner  string `json:"owner_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.Data.ID)
	assert.Equal(t, "user-001", resp.Data.Owner)
	assert.Equal(t, "pending", resp.Data.Status)
}

func TestAPI_CreateValidation(t *testing.T) {
	env := setupAPI(t)

	// Binding failure: missing required fields.
	w := env.do(t, http.MethodPost, "/api/v1/reports", "user-001", "reporter", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Reason)

	// Domain failure: unknown type.
	bad := map[string]interface{}{
		"number_of_cats": 1,
		"type":           "dog",
		"contact_phone":  "+66811234567",
		"location":       map[string]interface{}{"lat": 1.0, "long": 2.0},
	}
	w = env.do(t, http.MethodPost, "/api/v1/reports", "user-001", "reporter", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Reason)
}

func TestAPI_TransitionFlow(t *testing.T) {
	env := setupAPI(t)
	id := env.createReport(t, "user-001")

	w := env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/hold", "rescuer-1", "rescuer",
		map[string]string{"remark": "vet closed"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/resume", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/complete", "rescuer-1", "rescuer",
		map[string]string{"remark": "rescued"})
	assert.Equal(t, http.StatusOK, w.Code)

	// History shows the full trail.
	w = env.do(t, http.MethodGet, "/api/v1/reports/"+id+"/history", "user-001", "reporter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Remark string `json:"remark"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "onHold", resp.Data[0].To)
	assert.Equal(t, "completed", resp.Data[2].To)
	assert.Equal(t, "rescued", resp.Data[2].Remark)
}

func TestAPI_InvalidTransitionIs422(t *testing.T) {
	env := setupAPI(t)
	id := env.createReport(t, "user-001")

	w := env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/complete", "rescuer-1", "rescuer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/complete", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, w).Reason)
}

func TestAPI_TransitionPermissions(t *testing.T) {
	env := setupAPI(t)
	id := env.createReport(t, "user-001")

	// Reporters may not hold/resume/complete.
	for _, action := range []string{"hold", "resume", "complete"} {
		w := env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/"+action, "user-001", "reporter", nil)
		assert.Equal(t, http.StatusForbidden, w.Code, action)
	}

	// A reporter may cancel their own report but not someone else's.
	w := env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/cancel", "user-002", "reporter", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", decodeError(t, w).Reason)

	w = env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/cancel", "user-001", "reporter", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_NotFoundIs404(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/reports/no-such-id", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Reason)
}

func TestAPI_MalformedIDRejected(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/reports/bad%20id", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Reason)
}

func TestAPI_UpdateDetails(t *testing.T) {
	env := setupAPI(t)
	id := env.createReport(t, "user-001")

	w := env.do(t, http.MethodPut, "/api/v1/reports/"+id, "user-001", "reporter",
		map[string]interface{}{"number_of_cats": 4})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Terminal reports are frozen.
	w = env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/cancel", "user-001", "reporter", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/reports/"+id, "user-001", "reporter",
		map[string]interface{}{"number_of_cats": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, w).Reason)
}

func TestAPI_ListMineScopedToCaller(t *testing.T) {
	env := setupAPI(t)
	env.createReport(t, "user-001")
	env.createReport(t, "user-001")
	env.createReport(t, "user-002")

	w := env.do(t, http.MethodGet, "/api/v1/reports/mine", "user-001", "reporter", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Owner string `json:"owner_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, item := range resp.Data {
		assert.Equal(t, "user-001", item.Owner)
	}

	w = env.do(t, http.MethodGet, "/api/v1/reports/mine/count", "user-002", "reporter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var countResp struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &countResp))
	assert.EqualValues(t, 1, countResp.Data.Count)
}

func TestAPI_ListFiltersAndSorts(t *testing.T) {
	env := setupAPI(t)
	env.createReport(t, "user-001")
	id := env.createReport(t, "user-002")

	w := env.do(t, http.MethodPost, "/api/v1/reports/"+id+"/complete", "rescuer-1", "rescuer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/reports?status=pending&type=stray", "rescuer-1", "rescuer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "pending", resp.Data[0].Status)

	// Bad query parameters surface as validation errors.
	w = env.do(t, http.MethodGet, "/api/v1/reports?sortBy=ownerId", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Reason)

	w = env.do(t, http.MethodGet, "/api/v1/reports?status=nonsense", "rescuer-1", "rescuer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetRoleReflectsResolvedRole(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/me/role", "user-001", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Role string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reporter", resp.Data.Role)

	w = env.do(t, http.MethodGet, "/api/v1/me/role", "rescuer-1", "rescuer", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rescuer", resp.Data.Role)
}
