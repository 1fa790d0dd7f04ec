package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/stats"
	"github.com/veridoc/review-backend/internal/store"
	"github.com/veridoc/review-backend/internal/workflow"
	"github.com/veridoc/review-backend/utils"
)

func setupApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	st := store.NewMemoryStore()
	engine := workflow.NewEngine(st, workflow.NewEmitter(st))
	h := New(engine, stats.NewAggregator(st), st, nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api/v1", AuthMiddleware)
	api.Get("/queue", h.ListQueue)
	api.Get("/documents/:id", h.GetDocument)
	api.Post("/documents/:id/claim", h.Claim)
	api.Post("/documents/:id/release", h.Release)
	api.Put("/documents/:id/save", h.Save)
	api.Post("/documents/:id/approve", h.Approve)
	api.Post("/documents/:id/reject", h.Reject)
	return app, st
}

func seedDoc(t *testing.T, st *store.MemoryStore) *models.Document {
	t.Helper()
	doc := &models.Document{
		FormType:      "diploma",
		Status:        models.StatusAICompleted,
		Priority:      models.PriorityNormal,
		SubmittedBy:   primitive.NewObjectID(),
		ExtractedData: map[string]interface{}{"studentName": "Juan Perez"},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := st.InsertDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return doc
}

func tokenFor(t *testing.T, name string) (primitive.ObjectID, string) {
	t.Helper()
	id := primitive.NewObjectID()
	token, err := utils.GenerateJWT(id.Hex(), name, models.RoleTranslator)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return id, token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestClaimEndpoint(t *testing.T) {
	app, st := setupApp(t)
	doc := seedDoc(t, st)
	aliceID, alice := tokenFor(t, "Alice")
	_, bob := tokenFor(t, "Bob")

	resp := doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", alice, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("claim status = %d, want 200", resp.StatusCode)
	}
	var payload struct {
		Document models.Document `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Document.Status != models.StatusInReview {
		t.Errorf("status = %s, want in_review", payload.Document.Status)
	}
	if payload.Document.AssignedTo == nil || *payload.Document.AssignedTo != aliceID {
		t.Errorf("assignedTo = %v, want %s", payload.Document.AssignedTo, aliceID.Hex())
	}

	// The loser of the race sees a conflict.
	resp = doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", bob, "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("second claim status = %d, want 409", resp.StatusCode)
	}
}

func TestClaimRequiresAuth(t *testing.T) {
	app, st := setupApp(t)
	doc := seedDoc(t, st)

	resp := doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", "", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSaveByNonAssigneeEndpoint(t *testing.T) {
	app, st := setupApp(t)
	doc := seedDoc(t, st)
	_, alice := tokenFor(t, "Alice")
	_, bob := tokenFor(t, "Bob")

	doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", alice, "")

	resp := doRequest(t, app, "PUT", "/api/v1/documents/"+doc.ID.Hex()+"/save", bob,
		`{"translatedData":{"studentName":"Mallory"}}`)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRejectWithoutReason(t *testing.T) {
	app, st := setupApp(t)
	doc := seedDoc(t, st)
	_, alice := tokenFor(t, "Alice")

	doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", alice, "")

	resp := doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/reject", alice, `{}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTerminalActionsUnavailable(t *testing.T) {
	app, st := setupApp(t)
	doc := seedDoc(t, st)
	_, alice := tokenFor(t, "Alice")
	_, bob := tokenFor(t, "Bob")

	doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", alice, "")
	resp := doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/approve", alice,
		`{"finalNotes":"looks correct"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("approve status = %d, want 200", resp.StatusCode)
	}

	resp = doRequest(t, app, "POST", "/api/v1/documents/"+doc.ID.Hex()+"/claim", bob, "")
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("claim after approve status = %d, want 422", resp.StatusCode)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	app, _ := setupApp(t)
	_, alice := tokenFor(t, "Alice")

	resp := doRequest(t, app, "GET", "/api/v1/documents/"+primitive.NewObjectID().Hex(), alice, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestQueueEndpointOrdering(t *testing.T) {
	app, st := setupApp(t)
	_, alice := tokenFor(t, "Alice")

	t1 := time.Now().UTC().Add(-time.Hour)
	t2 := time.Now().UTC()
	normal := &models.Document{
		FormType: "bulletin", Status: models.StatusAICompleted,
		Priority: models.PriorityNormal, SubmittedBy: primitive.NewObjectID(),
		CreatedAt: t1, UpdatedAt: t1,
	}
	urgent := &models.Document{
		FormType: "bulletin", Status: models.StatusAICompleted,
		Priority: models.PriorityUrgent, SubmittedBy: primitive.NewObjectID(),
		CreatedAt: t2, UpdatedAt: t2,
	}
	if err := st.InsertDocument(context.Background(), normal); err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(context.Background(), urgent); err != nil {
		t.Fatal(err)
	}

	resp := doRequest(t, app, "GET", "/api/v1/queue", alice, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload struct {
		Documents []models.Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(payload.Documents))
	}
	// Priority dominates recency: the newer urgent document comes first.
	if payload.Documents[0].ID != urgent.ID || payload.Documents[1].ID != normal.ID {
		t.Errorf("order = [%s %s], want [urgent normal]",
			payload.Documents[0].Priority, payload.Documents[1].Priority)
	}
}
