package taxbracket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket"
	taxbracketerrors "github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func mustDecodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeBracketService struct {
	resolveFn    func(ctx context.Context, tenantID, taxType string, refDate time.Time) (taxbracket.Table, error)
	createFn     func(ctx context.Context, tenantID string, req taxbracket.CreateTaxBracketRequest) (taxbracket.TaxBracketResponse, error)
	getAllFn     func(ctx context.Context, tenantID, taxType string) ([]taxbracket.TaxBracketResponse, error)
	updateFn     func(ctx context.Context, tenantID, id string, req taxbracket.UpdateTaxBracketRequest) (taxbracket.TaxBracketResponse, error)
	deactivateFn func(ctx context.Context, tenantID, id string) error
}

func (f *fakeBracketService) Resolve(ctx context.Context, tenantID, taxType string, refDate time.Time) (taxbracket.Table, error) {
	return f.resolveFn(ctx, tenantID, taxType, refDate)
}

func (f *fakeBracketService) Create(ctx context.Context, tenantID string, req taxbracket.CreateTaxBracketRequest) (taxbracket.TaxBracketResponse, error) {
	return f.createFn(ctx, tenantID, req)
}

func (f *fakeBracketService) GetAll(ctx context.Context, tenantID, taxType string) ([]taxbracket.TaxBracketResponse, error) {
	return f.getAllFn(ctx, tenantID, taxType)
}

func (f *fakeBracketService) Update(ctx context.Context, tenantID, id string, req taxbracket.UpdateTaxBracketRequest) (taxbracket.TaxBracketResponse, error) {
	return f.updateFn(ctx, tenantID, id, req)
}

func (f *fakeBracketService) Deactivate(ctx context.Context, tenantID, id string) error {
	return f.deactivateFn(ctx, tenantID, id)
}

func TestTaxBracketHandler_Create(t *testing.T) {
	tenantID := uuid.New().String()

	svc := &fakeBracketService{
		createFn: func(ctx context.Context, tid string, req taxbracket.CreateTaxBracketRequest) (taxbracket.TaxBracketResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, taxbracket.TaxTypeINSS, req.TaxType)
			assert.Equal(t, 1, req.BracketOrder)
			return taxbracket.TaxBracketResponse{ID: uuid.New().String(), TaxType: req.TaxType, IsActive: true}, nil
		},
	}

	h := taxbracket.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"tax_type":"INSS","bracket_order":1,"min_value":"0","max_value":"2000","rate":"7.5","effective_from":"2025-01-01"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/tax-brackets", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", tenantID)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
}

func TestTaxBracketHandler_Create_InvalidRange(t *testing.T) {
	svc := &fakeBracketService{
		createFn: func(ctx context.Context, _ string, _ taxbracket.CreateTaxBracketRequest) (taxbracket.TaxBracketResponse, error) {
			return taxbracket.TaxBracketResponse{}, taxbracketerrors.ErrInvalidBracketRange
		},
	}

	h := taxbracket.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"tax_type":"INSS","bracket_order":1,"min_value":"2000","max_value":"100","rate":"7.5","effective_from":"2025-01-01"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/tax-brackets", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", uuid.New().String())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestTaxBracketHandler_GetAll(t *testing.T) {
	tenantID := uuid.New().String()

	svc := &fakeBracketService{
		getAllFn: func(ctx context.Context, tid, taxType string) ([]taxbracket.TaxBracketResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, taxbracket.TaxTypeIRRF, taxType)
			return []taxbracket.TaxBracketResponse{
				{ID: uuid.New().String(), TaxType: taxType, BracketOrder: 1},
				{ID: uuid.New().String(), TaxType: taxType, BracketOrder: 2},
			}, nil
		},
	}

	h := taxbracket.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/tax-brackets?tax_type=IRRF", nil)
	c.Set("tenant_id", tenantID)

	h.GetAll(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var brackets []taxbracket.TaxBracketResponse
	assert.NoError(t, json.Unmarshal(env.Data, &brackets))
	assert.Len(t, brackets, 2)
}

func TestTaxBracketHandler_Update_NotFound(t *testing.T) {
	svc := &fakeBracketService{
		updateFn: func(ctx context.Context, _, _ string, _ taxbracket.UpdateTaxBracketRequest) (taxbracket.TaxBracketResponse, error) {
			return taxbracket.TaxBracketResponse{}, taxbracketerrors.ErrBracketNotFound
		},
	}

	h := taxbracket.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"min_value":"0","rate":"5","effective_from":"2025-01-01","is_active":true}`
	id := uuid.New().String()
	c.Request = httptest.NewRequest(http.MethodPut, "/tax-brackets/"+id, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = []gin.Param{{Key: "id", Value: id}}
	c.Set("tenant_id", uuid.New().String())

	h.Update(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTaxBracketHandler_Deactivate(t *testing.T) {
	tenantID := uuid.New().String()
	id := uuid.New().String()

	deactivated := false
	svc := &fakeBracketService{
		deactivateFn: func(ctx context.Context, tid, gotID string) error {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, id, gotID)
			deactivated = true
			return nil
		},
	}

	h := taxbracket.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/tax-brackets/"+id, nil)
	c.Params = []gin.Param{{Key: "id", Value: id}}
	c.Set("tenant_id", tenantID)

	h.Deactivate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, deactivated)
}
