package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appwf "github.com/httplouis/TraveLink-sub009/internal/application/workflow"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	domainwf "github.com/httplouis/TraveLink-sub009/internal/domain/workflow"
)

type mockEngine struct {
	submitFunc     func(ctx context.Context, req *entity.TravelRequest) (*appwf.ActionResult, error)
	actFunc        func(ctx context.Context, in appwf.ActionRequest) (*appwf.ActionResult, error)
	getRequestFunc func(ctx context.Context, code string) (*entity.TravelRequest, error)
}

func (m *mockEngine) Submit(ctx context.Context, req *entity.TravelRequest) (*appwf.ActionResult, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	req.ID = 1
	req.RequestCode = "TR-001"
	req.Status = domainwf.StatePendingHead.String()
	return &appwf.ActionResult{Request: req}, nil
}

func (m *mockEngine) Act(ctx context.Context, in appwf.ActionRequest) (*appwf.ActionResult, error) {
	if m.actFunc != nil {
		return m.actFunc(ctx, in)
	}
	return &appwf.ActionResult{Request: &entity.TravelRequest{ID: in.RequestID}}, nil
}

func (m *mockEngine) Complete(ctx context.Context, requestID int64, actorID string) (*appwf.ActionResult, error) {
	return &appwf.ActionResult{Request: &entity.TravelRequest{ID: requestID, Status: domainwf.StateCompleted.String()}}, nil
}

func (m *mockEngine) GetRequest(ctx context.Context, code string) (*entity.TravelRequest, error) {
	if m.getRequestFunc != nil {
		return m.getRequestFunc(ctx, code)
	}
	return &entity.TravelRequest{ID: 1, RequestCode: code, Status: domainwf.StatePendingHead.String()}, nil
}

func (m *mockEngine) GetHistory(ctx context.Context, requestID int64) ([]*entity.TravelHistory, error) {
	return []*entity.TravelHistory{{RequestID: requestID, Action: "submit"}}, nil
}

func (m *mockEngine) GetPendingFor(ctx context.Context, actorID string) ([]*entity.TravelRequest, error) {
	return nil, nil
}

type mockRoleRepo struct{}

func (m *mockRoleRepo) GetActiveByUser(ctx context.Context, userID string) ([]*entity.RoleAssignment, error) {
	return nil, nil
}
func (m *mockRoleRepo) GetActiveByRole(ctx context.Context, role entity.Role) ([]*entity.RoleAssignment, error) {
	return nil, nil
}
func (m *mockRoleRepo) CountActiveByRole(ctx context.Context, role entity.Role) (int, error) {
	return 0, nil
}
func (m *mockRoleRepo) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	return nil, nil
}
func (m *mockRoleRepo) Grant(ctx context.Context, assignment *entity.RoleAssignment) error {
	assignment.ID = 1
	return nil
}
func (m *mockRoleRepo) Revoke(ctx context.Context, id int64) error { return nil }

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(engine appwf.WorkflowEngine) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(DefaultServerConfig(), engine, &mockRoleRepo{}, nopLogger{})
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandlers_HealthCheck(t *testing.T) {
	w := doRequest(newTestServer(&mockEngine{}), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHandlers_SubmitRequest(t *testing.T) {
	w := doRequest(newTestServer(&mockEngine{}), http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"requester_id":  "alice",
		"department_id": "eng",
		"total_budget":  10000,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false, error = %s", resp.Error)
	}
}

func TestHandlers_SubmitRequestValidation(t *testing.T) {
	// requester_id is required
	w := doRequest(newTestServer(&mockEngine{}), http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"department_id": "eng",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandlers_ActOnRequest(t *testing.T) {
	engine := &mockEngine{
		actFunc: func(ctx context.Context, in appwf.ActionRequest) (*appwf.ActionResult, error) {
			if in.Action != domainwf.ActionApprove || in.ActorID != "head-eng" {
				t.Errorf("unexpected action input: %+v", in)
			}
			return &appwf.ActionResult{Request: &entity.TravelRequest{ID: in.RequestID, Status: "pending_admin"}}, nil
		},
	}

	w := doRequest(newTestServer(engine), http.MethodPost, "/api/v1/requests/TR-001/actions", map[string]interface{}{
		"actor_id": "head-eng",
		"action":   "approve",
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not authorized", domainwf.ErrNotAuthorized, http.StatusForbidden},
		{"invalid state", domainwf.ErrInvalidState, http.StatusConflict},
		{"missing comment", domainwf.ErrMissingComment, http.StatusBadRequest},
		{"stale state", domainwf.ErrStaleState, http.StatusConflict},
		{"unknown actor", domainwf.ErrUnknownActor, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{
				actFunc: func(ctx context.Context, in appwf.ActionRequest) (*appwf.ActionResult, error) {
					return nil, tt.err
				},
			}

			w := doRequest(newTestServer(engine), http.MethodPost, "/api/v1/requests/TR-001/actions", map[string]interface{}{
				"actor_id": "someone",
				"action":   "approve",
			})
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandlers_GetRequestNotFound(t *testing.T) {
	engine := &mockEngine{
		getRequestFunc: func(ctx context.Context, code string) (*entity.TravelRequest, error) {
			return nil, domainwf.ErrUnknownRequest
		},
	}

	w := doRequest(newTestServer(engine), http.MethodGet, "/api/v1/requests/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandlers_GrantRole(t *testing.T) {
	w := doRequest(newTestServer(&mockEngine{}), http.MethodPost, "/api/v1/roles", map[string]interface{}{
		"user_id": "carol",
		"role":    "head",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
}

func TestHandlers_RevokeRoleInvalidID(t *testing.T) {
	w := doRequest(newTestServer(&mockEngine{}), http.MethodDelete, "/api/v1/roles/not-a-number", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
