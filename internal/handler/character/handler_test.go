package character

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/marvelous/backend/internal/model/character"
	characterservice "github.com/zhouzirui/marvelous/backend/internal/service/character"
	"github.com/zhouzirui/marvelous/backend/internal/storage/jsonfile"
)

func setupRouter(t *testing.T, content string) (*chi.Mux, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "characters.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed file err: %v", err)
	}

	svc := characterservice.NewService(jsonfile.New(path), nil)
	r := chi.NewRouter()
	r.Route("/api/characters", New(svc).RegisterRoutes)
	return r, path
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return payload["error"]
}

func TestCharacterLifecycle(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[]}`)
	want := `{"id":1,"name":"Spider-Man","realName":"Peter Parker","universe":"Earth-616"}`

	resp := serve(r, http.MethodPost, "/api/characters", `{"name":"Spider-Man","realName":"Peter Parker","universe":"Earth-616"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != want {
		t.Fatalf("unexpected create body: %s", got)
	}

	resp = serve(r, http.MethodGet, "/api/characters/1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != want {
		t.Fatalf("unexpected get body: %s", got)
	}

	resp = serve(r, http.MethodDelete, "/api/characters/1", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("expected empty delete body, got %q", resp.Body.String())
	}

	resp = serve(r, http.MethodGet, "/api/characters/1", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if msg := errorMessage(t, resp); msg != "Character not found" {
		t.Fatalf("unexpected error message: %s", msg)
	}
}

func TestListCharacters(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[{"id":2,"name":"Hawkeye"},{"id":1,"name":"Black Widow"}]}`)

	resp := serve(r, http.MethodGet, "/api/characters", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != `[{"id":2,"name":"Hawkeye"},{"id":1,"name":"Black Widow"}]` {
		t.Fatalf("unexpected list body: %s", got)
	}
}

func TestListEmptyCollectionIsArray(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[]}`)

	resp := serve(r, http.MethodGet, "/api/characters", "")
	if got := strings.TrimSpace(resp.Body.String()); got != `[]` {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestUpdateCharacterMergesFields(t *testing.T) {
	r, path := setupRouter(t, `{"characters":[{"id":2,"name":"A","realName":"B"}]}`)

	resp := serve(r, http.MethodPut, "/api/characters/2", `{"name":"C","id":10}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != `{"id":2,"name":"C","realName":"B"}` {
		t.Fatalf("unexpected update body: %s", got)
	}

	items, err := jsonfile.New(path).List(context.Background())
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("update not persisted under path id: %+v", items)
	}
}

func TestUpdateMissingCharacter(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[]}`)

	resp := serve(r, http.MethodPut, "/api/characters/3", `{"name":"C"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteMissingCharacter(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[{"id":1}]}`)

	resp := serve(r, http.MethodDelete, "/api/characters/2", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[{"id":1}]}`)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp := serve(r, method, "/api/characters/abc", `{}`)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, resp.Code)
		}
	}
}

func TestCreateRejectsNonObjectBody(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[]}`)

	resp := serve(r, http.MethodPost, "/api/characters", `["not","an","object"]`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateWithEmptyBody(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":[]}`)

	resp := serve(r, http.MethodPost, "/api/characters", "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != `{"id":1}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestMalformedFileIsServerError(t *testing.T) {
	r, _ := setupRouter(t, `{"characters":`)

	cases := []struct {
		method, target, body, message string
	}{
		{http.MethodGet, "/api/characters", "", "Failed to read characters"},
		{http.MethodPost, "/api/characters", `{"name":"X"}`, "Failed to create character"},
		{http.MethodGet, "/api/characters/1", "", "Failed to read character"},
		{http.MethodPut, "/api/characters/1", `{}`, "Failed to update character"},
		{http.MethodDelete, "/api/characters/1", "", "Failed to delete character"},
	}
	for _, tc := range cases {
		resp := serve(r, tc.method, tc.target, tc.body)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", tc.method, tc.target, resp.Code)
		}
		if msg := errorMessage(t, resp); msg != tc.message {
			t.Fatalf("%s %s: unexpected message %q", tc.method, tc.target, msg)
		}
	}
}

type failingService struct {
	err error
}

func (f failingService) List(context.Context) ([]character.Character, error) { return nil, f.err }
func (f failingService) Create(context.Context, *character.Fields) (character.Character, error) {
	return character.Character{}, f.err
}
func (f failingService) Get(context.Context, int) (character.Character, error) {
	return character.Character{}, f.err
}
func (f failingService) Update(context.Context, int, *character.Fields) (character.Character, error) {
	return character.Character{}, f.err
}
func (f failingService) Delete(context.Context, int) error { return f.err }

func TestMissingFileIsServerError(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/api/characters", New(failingService{err: fmt.Errorf("%w: no such file", character.ErrIO)}).RegisterRoutes)

	resp := serve(r, http.MethodGet, "/api/characters", "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "no such file") {
		t.Fatalf("internal error leaked: %s", resp.Body.String())
	}
}

func TestWrappedNotFoundMapsTo404(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/api/characters", New(failingService{err: fmt.Errorf("get 5: %w", character.ErrNotFound)}).RegisterRoutes)

	resp := serve(r, http.MethodGet, "/api/characters/5", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
