package applications_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/bootstrap"
	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/config"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:             "0",
		CORSAllowOrigin:  []string{"http://localhost:3000"},
		Env:              "dev",
		JWTSecret:        testSecret,
		FrontendURL:      "http://localhost:3000",
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		MaxUploadBatch:   10,
		MaxFileSizeBytes: 10 << 20,
		AllowedMimeTypes: []string{"application/pdf"},
		DocumentTypes:    []string{"invoice", "contract", "other"},
	}
}

func buildApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func bearerFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.SignJWT(testSecret, userID, role, userID, time.Hour)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestApplicationLifecycle(t *testing.T) {
	app := buildApp(t)
	router := app.Router

	salesman := http.Header{"Authorization": {bearerFor(t, "sales-1", auth.RoleSalesman)}}
	evaluator := http.Header{"Authorization": {bearerFor(t, "eval-1", auth.RoleEvaluator)}}

	// Salesman creates the application and receives the one-time credentials.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/applications", map[string]string{
		"clientName":  "Acme Trading",
		"companyName": "Acme Trading LLC",
		"email":       "client@acme.example",
	}, salesman)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Application struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"application"`
		ClientLink string `json:"clientLink"`
		Password   string `json:"applicationPassword"`
	}
	decode(t, resp, &created)
	if created.Application.Status != "pending" {
		t.Fatalf("expected pending, got %s", created.Application.Status)
	}
	if created.Password == "" {
		t.Fatal("expected one-time password")
	}
	idx := strings.LastIndex(created.ClientLink, "/")
	if idx < 0 {
		t.Fatalf("unexpected client link %q", created.ClientLink)
	}
	token := created.ClientLink[idx+1:]
	if len(token) != 64 {
		t.Fatalf("expected 64-char token, got %d chars", len(token))
	}
	appID := created.Application.ID
	clientHeader := http.Header{"X-Link-Token": {token}}

	// The anonymous client verifies the password.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/applications/verify-password", map[string]string{
		"token":    token,
		"password": created.Password,
	}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// A wrong password is rejected with the generic error.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/applications/verify-password", map[string]string{
		"token":    token,
		"password": "nope",
	}, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad verify: expected 401, got %d", resp.Code)
	}

	// The client loads the application through the tokenized link.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/token/"+token, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("token get: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// The first edit moves the application to in-progress.
	resp = doJSON(t, router, http.MethodPut, "/api/v1/applications/"+appID, map[string]any{
		"applicationData": map[string]any{
			"schemaVersion": 1,
			"businessInfo":  map[string]any{"businessType": "importer"},
		},
	}, clientHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated struct {
		Status string `json:"status"`
	}
	decode(t, resp, &updated)
	if updated.Status != "in-progress" {
		t.Fatalf("expected in-progress, got %s", updated.Status)
	}

	// The client submits.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/applications/"+appID+"/submit", nil, clientHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	decode(t, resp, &updated)
	if updated.Status != "submitted" {
		t.Fatalf("expected submitted, got %s", updated.Status)
	}

	// The evaluator sees it pending and opens the evaluation.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/evaluations/pending-applications", nil, evaluator)
	if resp.Code != http.StatusOK {
		t.Fatalf("pending: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var pending []struct {
		ID string `json:"id"`
	}
	decode(t, resp, &pending)
	if len(pending) != 1 || pending[0].ID != appID {
		t.Fatalf("expected %s pending, got %v", appID, pending)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/evaluations/application/"+appID, nil, evaluator)
	if resp.Code != http.StatusOK {
		t.Fatalf("open evaluation: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var eval struct {
		ID             string `json:"id"`
		OverallStatus  string `json:"overallStatus"`
		CompletedSteps int    `json:"completedSteps"`
	}
	decode(t, resp, &eval)
	if eval.OverallStatus != "pending" || eval.CompletedSteps != 0 {
		t.Fatalf("expected pristine evaluation, got %+v", eval)
	}

	// Opening the evaluation moved the application under review.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID, nil, evaluator)
	if resp.Code != http.StatusOK {
		t.Fatalf("get as evaluator: expected 200, got %d", resp.Code)
	}
	decode(t, resp, &updated)
	if updated.Status != "under-review" {
		t.Fatalf("expected under-review, got %s", updated.Status)
	}

	// All four checks approved finalizes evaluation and application.
	resp = doJSON(t, router, http.MethodPut, "/api/v1/evaluations/"+eval.ID, map[string]any{
		"creditScoring":       map[string]any{"status": "approved", "score": 72},
		"kyc":                 map[string]any{"status": "approved"},
		"aml":                 map[string]any{"status": "approved"},
		"riskAssessment":      map[string]any{"status": "approved", "riskLevel": "low"},
		"finalRecommendation": "Meets criteria",
	}, evaluator)
	if resp.Code != http.StatusOK {
		t.Fatalf("evaluate: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	decode(t, resp, &eval)
	if eval.OverallStatus != "approved" || eval.CompletedSteps != 4 {
		t.Fatalf("expected approved/4, got %+v", eval)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID, nil, salesman)
	if resp.Code != http.StatusOK {
		t.Fatalf("get as salesman: expected 200, got %d", resp.Code)
	}
	var final struct {
		Status   string `json:"status"`
		Timeline []struct {
			Action string `json:"action"`
		} `json:"timeline"`
	}
	decode(t, resp, &final)
	if final.Status != "approved" {
		t.Fatalf("expected approved, got %s", final.Status)
	}
	last := final.Timeline[len(final.Timeline)-1]
	if last.Action != "Application approved" {
		t.Fatalf("expected approval entry, got %q", last.Action)
	}

	// Terminal applications reject further edits.
	resp = doJSON(t, router, http.MethodPut, "/api/v1/applications/"+appID, map[string]any{
		"applicationData": map[string]any{"schemaVersion": 1},
	}, clientHeader)
	if resp.Code != http.StatusConflict {
		t.Fatalf("edit after approval: expected 409, got %d", resp.Code)
	}
}

func TestApplicationAccessControl(t *testing.T) {
	app := buildApp(t)
	router := app.Router

	salesman := http.Header{"Authorization": {bearerFor(t, "sales-1", auth.RoleSalesman)}}
	otherSalesman := http.Header{"Authorization": {bearerFor(t, "sales-2", auth.RoleSalesman)}}

	resp := doJSON(t, router, http.MethodPost, "/api/v1/applications", map[string]string{
		"clientName":  "Acme Trading",
		"companyName": "Acme Trading LLC",
	}, salesman)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.Code)
	}
	var created struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
	}
	decode(t, resp, &created)
	appID := created.Application.ID

	// No credentials at all.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID, nil, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous get: expected 401, got %d", resp.Code)
	}

	// A different salesman cannot see it.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID, nil, otherSalesman)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("other salesman get: expected 403, got %d", resp.Code)
	}

	// A bogus link token cannot either.
	bogus := http.Header{"X-Link-Token": {strings.Repeat("ab", 32)}}
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID, nil, bogus)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("bogus token get: expected 403, got %d", resp.Code)
	}

	// Evaluator routes are closed to salesmen.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/evaluations/pending-applications", nil, salesman)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("salesman pending: expected 403, got %d", resp.Code)
	}

	// Listing is scoped per salesman.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications", nil, otherSalesman)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	var listed []json.RawMessage
	decode(t, resp, &listed)
	if len(listed) != 0 {
		t.Fatalf("expected empty list for sales-2, got %d", len(listed))
	}
}

func TestDocumentUploadThroughAPI(t *testing.T) {
	app := buildApp(t)
	router := app.Router

	salesman := http.Header{"Authorization": {bearerFor(t, "sales-1", auth.RoleSalesman)}}
	resp := doJSON(t, router, http.MethodPost, "/api/v1/applications", map[string]string{
		"clientName":  "Acme Trading",
		"companyName": "Acme Trading LLC",
	}, salesman)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.Code)
	}
	var created struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
		ClientLink string `json:"clientLink"`
	}
	decode(t, resp, &created)
	appID := created.Application.ID
	token := created.ClientLink[strings.LastIndex(created.ClientLink, "/")+1:]

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range []string{"invoice.pdf", "contract.pdf"} {
		part, err := writer.CreatePart(map[string][]string{
			"Content-Disposition": {`form-data; name="documents"; filename="` + name + `"`},
			"Content-Type":        {"application/pdf"},
		})
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 test content")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.WriteField("documentType", "invoice"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+appID+"/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Link-Token", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var uploaded struct {
		Documents []struct {
			ID           string `json:"id"`
			DocumentType string `json:"documentType"`
			UploadedBy   string `json:"uploadedBy"`
		} `json:"documents"`
	}
	decode(t, rec, &uploaded)
	if len(uploaded.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(uploaded.Documents))
	}
	if uploaded.Documents[0].UploadedBy != "client" {
		t.Fatalf("expected client uploader, got %s", uploaded.Documents[0].UploadedBy)
	}

	// The salesman can download what the client uploaded.
	downloadPath := "/api/v1/applications/" + appID + "/documents/" + uploaded.Documents[0].ID + "/download"
	resp = doJSON(t, router, http.MethodGet, downloadPath, nil, salesman)
	if resp.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("%PDF-1.4")) {
		t.Fatal("expected pdf bytes in download")
	}

	// And the timeline recorded the batch once.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+appID+"/timeline", nil, salesman)
	if resp.Code != http.StatusOK {
		t.Fatalf("timeline: expected 200, got %d", resp.Code)
	}
	var timeline []struct {
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	decode(t, resp, &timeline)
	if len(timeline) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(timeline))
	}
	if timeline[1].Action != "Documents uploaded" || timeline[1].Notes != "2 document(s) uploaded" {
		t.Fatalf("unexpected timeline entry %+v", timeline[1])
	}
}
