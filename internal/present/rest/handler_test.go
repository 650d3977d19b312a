package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/client"
	"github.com/yuzuhara/fieldwise/internal/domain"
	"github.com/yuzuhara/fieldwise/internal/infrastructure/repository"
	"github.com/yuzuhara/fieldwise/internal/present/rest/middleware"
	"github.com/yuzuhara/fieldwise/internal/service"
	"github.com/yuzuhara/fieldwise/internal/usecase"
)

// --- mocks ---

type mockGateway struct {
	field *fieldwise.FieldRecord

	updatedConfig *fieldwise.FieldConfig
	deletedID     string
}

func (m *mockGateway) GetField(ctx context.Context, creds usecase.VendorCredentials, fieldID string) (*fieldwise.FieldRecord, error) {
	return m.field, nil
}

func (m *mockGateway) ListFields(ctx context.Context, creds usecase.VendorCredentials) ([]fieldwise.FieldRecord, error) {
	if m.field == nil {
		return []fieldwise.FieldRecord{}, nil
	}
	return []fieldwise.FieldRecord{*m.field}, nil
}

func (m *mockGateway) CreateField(ctx context.Context, creds usecase.VendorCredentials, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	return &fieldwise.FieldRecord{
		FieldID:   "fld_new",
		FieldName: config.FieldName,
		Type:      config.Type,
		UIType:    config.UIType,
		Property:  config.Property,
	}, nil
}

func (m *mockGateway) UpdateField(ctx context.Context, creds usecase.VendorCredentials, fieldID string, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	m.updatedConfig = &config
	return &fieldwise.FieldRecord{
		FieldID:   fieldID,
		FieldName: config.FieldName,
		Type:      config.Type,
		UIType:    config.UIType,
		Property:  config.Property,
	}, nil
}

func (m *mockGateway) DeleteField(ctx context.Context, creds usecase.VendorCredentials, fieldID string) error {
	m.deletedID = fieldID
	return nil
}

func newTestServer(gateway usecase.VendorGateway) (*echo.Echo, usecase.HistoryRepository) {
	repo := repository.NewMemoryHistory()
	cl := client.New("http://vendor.invalid")
	conf := domain.Config{}

	h := NewHandler(
		conf,
		usecase.NewFieldUsecase(gateway, repo),
		usecase.NewHistoryUsecase(repo),
		usecase.NewRollbackUsecase(repo, gateway),
		service.NewAuthService(&conf, cl),
		service.NewTableService(cl),
		service.NewEventService(nil),
	)

	e := echo.New()
	mw := middleware.NewAuthMiddleware(conf)
	e.Use(mw.IdentifyRequester)
	h.RegisterRoutes(e)

	return e, repo
}

type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []string        `json:"details"`
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, payload any) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer tok")
	res := httptest.NewRecorder()

	e.ServeHTTP(res, req)

	var envelope responseEnvelope
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", res.Body.String(), err)
	}

	return res, envelope
}

// --- tests ---

func TestUpdatePreservesOptionsOverHTTP(t *testing.T) {
	gateway := &mockGateway{
		field: &fieldwise.FieldRecord{
			FieldID:   "fld1",
			FieldName: "Status",
			Type:      fieldwise.TypeSingleSelect,
			UIType:    "SingleSelect",
			Property: &fieldwise.FieldProperty{
				Options: []fieldwise.FieldOption{{Name: "Open", Color: 4}, {Name: "Done", Color: 0}},
			},
		},
	}
	e, _ := newTestServer(gateway)

	res, envelope := doJSON(t, e, http.MethodPut, "/api/v1/fields/fld1", map[string]any{
		"app_token": "app",
		"table_id":  "tbl",
		"user_id":   "u1",
		"field":     map[string]any{"field_name": "Status2"},
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("expected success, got %q", envelope.Error)
	}

	if gateway.updatedConfig == nil {
		t.Fatalf("expected a vendor write")
	}
	if len(gateway.updatedConfig.Property.Options) != 2 {
		t.Fatalf("rename must carry the existing options, got %+v", gateway.updatedConfig.Property)
	}

	var result usecase.WriteResult
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Entry == nil || result.Entry.Operation != fieldwise.OperationUpdate {
		t.Fatalf("expected an UPDATE ledger entry, got %+v", result.Entry)
	}
}

func TestValidationFailureReturns422(t *testing.T) {
	e, repo := newTestServer(&mockGateway{})

	res, envelope := doJSON(t, e, http.MethodPost, "/api/v1/fields", map[string]any{
		"app_token": "app",
		"table_id":  "tbl",
		"user_id":   "u1",
		"field": map[string]any{
			"field_name": "",
			"type":       fieldwise.TypeSingleSelect,
		},
	})

	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.Code, res.Body.String())
	}
	if len(envelope.Details) == 0 {
		t.Fatalf("expected violations to be listed")
	}

	entries, err := repo.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("a rejected write must not reach the ledger, got %d entries", len(entries))
	}
}

func TestRollbackUnknownEntryReturns404(t *testing.T) {
	e, _ := newTestServer(&mockGateway{})

	res, _ := doJSON(t, e, http.MethodPost, "/api/v1/history/hst_missing/rollback", map[string]any{
		"app_token": "app",
		"table_id":  "tbl",
	})

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.Code, res.Body.String())
	}
}

func TestRollbackIneligibleEntryReturns409(t *testing.T) {
	e, repo := newTestServer(&mockGateway{})

	entry, err := repo.Append(context.Background(), fieldwise.HistoryEntry{
		UserID:      "u1",
		Operation:   fieldwise.OperationUpdate,
		FieldID:     "fld1",
		CanRollback: false,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	res, _ := doJSON(t, e, http.MethodPost, "/api/v1/history/"+entry.ID+"/rollback", map[string]any{
		"app_token": "app",
		"table_id":  "tbl",
	})

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.Code, res.Body.String())
	}
}

func TestHistoryListRequiresUser(t *testing.T) {
	e, _ := newTestServer(&mockGateway{})

	res, _ := doJSON(t, e, http.MethodGet, "/api/v1/history", nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	res, envelope := doJSON(t, e, http.MethodGet, "/api/v1/history?user_id=u1", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var entries []fieldwise.HistoryEntry
	if err := json.Unmarshal(envelope.Data, &entries); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestDeleteRecordsRollbackableEntry(t *testing.T) {
	gateway := &mockGateway{
		field: &fieldwise.FieldRecord{FieldID: "fld1", FieldName: "Status", Type: fieldwise.TypeText},
	}
	e, repo := newTestServer(gateway)

	res, _ := doJSON(t, e, http.MethodDelete, "/api/v1/fields/fld1?app_token=app&table_id=tbl&user_id=u1", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	if gateway.deletedID != "fld1" {
		t.Fatalf("expected the vendor delete, got %q", gateway.deletedID)
	}

	entries, err := repo.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}
	if entries[0].Operation != fieldwise.OperationDelete || !entries[0].CanRollback {
		t.Fatalf("expected a rollbackable DELETE entry, got %+v", entries[0])
	}
}

func TestMissingBearerTokenReturns400(t *testing.T) {
	e, _ := newTestServer(&mockGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields?app_token=app&table_id=tbl", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a bearer token, got %d", res.Code)
	}
}
