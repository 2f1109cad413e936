package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/api/handler"
	"github.com/biblioteca/maestros-api/internal/core/service"
	"github.com/biblioteca/maestros-api/internal/infrastructure/db/memory"
	"github.com/biblioteca/maestros-api/internal/seed"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, checks map[string]handler.HealthCheck) *echo.Echo {
	t.Helper()
	store := memory.NewStore()
	accounts := seed.DemoAccounts("admin@biblioteca.com", "admin123", "usuario@biblioteca.com", "user123")
	if err := seed.Users(context.Background(), store, accounts, zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return NewRouter(Deps{
		Ledger:     service.NewLedgerService(store, memory.NewIdempotencyStore(time.Hour), nil, zerolog.Nop()),
		Auth:       service.NewAuthService(store, testSecret, time.Hour),
		JWTSecret:  testSecret,
		Checks:     checks,
		Log:        zerolog.Nop(),
		Registerer: prometheus.NewRegistry(),
	})
}

func do(e *echo.Echo, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return v
}

func login(t *testing.T, e *echo.Echo, email, password string) (string, map[string]any) {
	t.Helper()
	rec := do(e, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	user, _ := resp["user"].(map[string]any)
	return resp["token"].(string), user
}

func TestRouter_LedgerFlow(t *testing.T) {
	e := newTestRouter(t, nil)
	adminToken, _ := login(t, e, "admin@biblioteca.com", "admin123")
	userToken, _ := login(t, e, "usuario@biblioteca.com", "user123")

	rec := do(e, http.MethodPost, "/maestros", adminToken, `{"nombre":"Biblioteca Central","saldo":1000,"creadoPor":"someone else"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create maestro: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	maestro := decode[map[string]any](t, rec)
	id := maestro["id"].(string)
	if maestro["saldo"].(float64) != 1000 || maestro["creadoPor"] != "Administrador" {
		t.Fatalf("unexpected maestro %+v", maestro)
	}

	rec = do(e, http.MethodPost, "/movements", userToken, `{"maestroId":"`+id+`","tipo":"ENTRADA","cantidad":200}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("entrada: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	mv := decode[map[string]any](t, rec)
	if mv["saldo"].(float64) != 1200 || mv["responsable"] != "Usuario" || mv["maestroNombre"] != "Biblioteca Central" {
		t.Fatalf("unexpected movement %+v", mv)
	}

	rec = do(e, http.MethodPost, "/movements", userToken, `{"maestroId":"`+id+`","tipo":"SALIDA","cantidad":1500}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("salida: expected 201, got %d", rec.Code)
	}
	if decode[map[string]any](t, rec)["saldo"].(float64) != -300 {
		t.Fatalf("expected saldo -300")
	}

	rec = do(e, http.MethodPost, "/movements", userToken, `{"maestroId":"`+id+`","tipo":"SALIDA","cantidad":-50}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative cantidad: expected 400, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/maestros/"+id, userToken, "")
	if got := decode[map[string]any](t, rec)["saldo"].(float64); got != -300 {
		t.Fatalf("saldo changed by rejected movement: %v", got)
	}

	rec = do(e, http.MethodGet, "/movements?maestroId="+id, userToken, "")
	if list := decode[[]map[string]any](t, rec); len(list) != 2 || list[0]["tipo"] != "ENTRADA" {
		t.Fatalf("unexpected movement list %+v", list)
	}

	rec = do(e, http.MethodGet, "/maestros/"+id+"/balance", userToken, "")
	check := decode[map[string]any](t, rec)
	if check["consistent"] != true || check["recomputed"].(float64) != -300 {
		t.Fatalf("unexpected balance check %+v", check)
	}

	rec = do(e, http.MethodGet, "/maestros/"+id+"/balance-history", userToken, "")
	points := decode[[]map[string]any](t, rec)
	if len(points) != 2 || points[0]["saldo"].(float64) != 1200 || points[1]["saldo"].(float64) != -300 {
		t.Fatalf("unexpected history %+v", points)
	}
}

func TestRouter_IdempotentMovement(t *testing.T) {
	e := newTestRouter(t, nil)
	adminToken, _ := login(t, e, "admin@biblioteca.com", "admin123")

	rec := do(e, http.MethodPost, "/maestros", adminToken, `{"nombre":"Hemeroteca"}`)
	id := decode[map[string]any](t, rec)["id"].(string)

	body := `{"maestroId":"` + id + `","tipo":"ENTRADA","cantidad":10}`
	first := do(e, http.MethodPost, "/movements", adminToken, body, "Idempotency-Key", "abc")
	second := do(e, http.MethodPost, "/movements", adminToken, body, "Idempotency-Key", "abc")

	if first.Code != http.StatusCreated || second.Code != http.StatusOK {
		t.Fatalf("expected 201 then 200, got %d then %d", first.Code, second.Code)
	}
	if decode[map[string]any](t, first)["id"] != decode[map[string]any](t, second)["id"] {
		t.Fatal("replay returned a different movement")
	}

	rec = do(e, http.MethodGet, "/maestros/"+id, adminToken, "")
	if got := decode[map[string]any](t, rec)["saldo"].(float64); got != 10 {
		t.Fatalf("replay applied twice, saldo %v", got)
	}
}

func TestRouter_AccessControl(t *testing.T) {
	e := newTestRouter(t, nil)
	userToken, user := login(t, e, "usuario@biblioteca.com", "user123")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		code   int
	}{
		{"no token", http.MethodGet, "/maestros", "", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/movements", "garbage", "", http.StatusUnauthorized},
		{"user creates maestro", http.MethodPost, "/maestros", userToken, `{"nombre":"X"}`, http.StatusForbidden},
		{"user lists users", http.MethodGet, "/users", userToken, "", http.StatusForbidden},
		{"user updates role", http.MethodPut, "/users/" + user["id"].(string), userToken, `{"role":"ADMIN"}`, http.StatusForbidden},
		{"user lists maestros", http.MethodGet, "/maestros", userToken, "", http.StatusOK},
		{"unknown maestro", http.MethodGet, "/maestros/missing", userToken, "", http.StatusNotFound},
		{"movement on unknown maestro", http.MethodPost, "/movements", userToken, `{"maestroId":"missing","tipo":"ENTRADA","cantidad":1}`, http.StatusNotFound},
		{"bad login", http.MethodPost, "/auth/login", "", `{"email":"usuario@biblioteca.com","password":"nope"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_AdminManagesUsers(t *testing.T) {
	e := newTestRouter(t, nil)
	adminToken, _ := login(t, e, "admin@biblioteca.com", "admin123")
	_, user := login(t, e, "usuario@biblioteca.com", "user123")

	rec := do(e, http.MethodGet, "/users", adminToken, "")
	if users := decode[[]map[string]any](t, rec); len(users) != 2 {
		t.Fatalf("expected 2 users, got %+v", users)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	rec = do(e, http.MethodPut, "/users/"+user["id"].(string), adminToken, `{"role":"ROOT"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", rec.Code)
	}

	rec = do(e, http.MethodPut, "/users/"+user["id"].(string), adminToken, `{"role":"ADMIN"}`)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["role"] != "ADMIN" {
		t.Fatalf("update role: got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPut, "/users/unknown-id", adminToken, `{"role":"ADMIN"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newTestRouter(t, map[string]handler.HealthCheck{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}

	rec := do(e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness: expected 503, got %d", rec.Code)
	}
	ready := decode[map[string]any](t, rec)
	deps := ready["dependencies"].(map[string]any)
	if deps["store"].(map[string]any)["status"] != "ok" || deps["redis"].(map[string]any)["status"] != "unhealthy" {
		t.Fatalf("unexpected readiness %+v", ready)
	}

	if rec := do(e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}
