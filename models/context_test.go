package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	e "github.com/microcosm-cc/gamecatalog/errors"
)

func newContext(method, target, contentType, body string) (*Context, *httptest.ResponseRecorder) {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	return MakeContext(r, w), w
}

func TestFillJSON(t *testing.T) {
	c, _ := newContext("POST", "/api/videogame", "application/json; charset=utf-8",
		`{"title":"Halo","platform":"Xbox"}`)

	var m *VideoGameType
	if err := c.Fill(&m); err != nil {
		t.Fatalf("Fill() %v", err)
	}
	if m == nil || m.Title != "Halo" || m.Platform != "Xbox" {
		t.Errorf("Fill() = %+v", m)
	}
}

func TestFillJSONNull(t *testing.T) {
	c, _ := newContext("PUT", "/api/videogame/1", "application/json", `null`)

	var m *VideoGameType
	if err := c.Fill(&m); err != nil {
		t.Fatalf("Fill(null) %v", err)
	}
	if m != nil {
		t.Errorf("Fill(null) = %+v, want nil", m)
	}
}

func TestFillRejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		code        e.ErrCode
	}{
		{"empty json body", "application/json", "", e.InvalidContent},
		{"malformed json", "application/json", `{"title":`, e.InvalidContent},
		{"wrong json type", "application/json", `{"title":7}`, e.InvalidContent},
		{"xml", "text/xml", `<game/>`, e.BadContentType},
	}

	for _, tt := range tests {
		c, _ := newContext("POST", "/api/videogame", tt.contentType, tt.body)

		var m *VideoGameType
		err := c.Fill(&m)
		if got := e.Code(err); got != tt.code {
			t.Errorf("%s: Fill() code = %d should be %d (%v)", tt.name, got, tt.code, err)
		}
		if e.StatusCode(err) != http.StatusBadRequest {
			t.Errorf("%s: Fill() status = %d should be 400", tt.name, e.StatusCode(err))
		}
	}
}

func TestFillForm(t *testing.T) {
	c, _ := newContext("POST", "/api/videogame", "application/x-www-form-urlencoded",
		"Title=Myst&developer=Cyan&unknown=x")

	var m *VideoGameType
	if err := c.Fill(&m); err != nil {
		t.Fatalf("Fill() %v", err)
	}
	if m == nil || m.Title != "Myst" || m.Developer != "Cyan" {
		t.Errorf("Fill() = %+v", m)
	}
}

func TestGetHTTPMethod(t *testing.T) {
	tests := []struct {
		method, override, want string
	}{
		{"GET", "", "GET"},
		{"POST", "", "POST"},
		{"POST", "delete", "DELETE"},
		{"POST", "PUT", "PUT"},
		{"POST", "BREW", "POST"},
		{"GET", "DELETE", "GET"},
	}

	for _, tt := range tests {
		c, _ := newContext(tt.method, "/api/videogame/1", "", "")
		if tt.override != "" {
			c.Request.Header.Set("X-HTTP-Method-Override", tt.override)
		}
		if got := c.GetHTTPMethod(); got != tt.want {
			t.Errorf("%s overridden by %q = %s should be %s", tt.method, tt.override, got, tt.want)
		}
	}
}

func TestGetInt64RouteVar(t *testing.T) {
	for raw, valid := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false, "1.5": false} {
		c, _ := newContext("GET", "/", "", "")
		c.RouteVars = map[string]string{"videogame_id": raw}

		id, err := c.GetInt64RouteVar("videogame_id")
		if valid && (err != nil || id != 12) {
			t.Errorf("GetInt64RouteVar(%q) = %d, %v", raw, id, err)
		}
		if !valid && e.StatusCode(err) != http.StatusBadRequest {
			t.Errorf("GetInt64RouteVar(%q) status = %d should be 400", raw, e.StatusCode(err))
		}
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		text   string
	}{
		{fmt.Errorf("%w: videogames 9", e.ErrNotFound), 404, "not found: videogames 9"},
		{fmt.Errorf("%w: payload is missing", e.ErrInvalidInput), 400, "invalid input: payload is missing"},
		{fmt.Errorf("%w: dial tcp: refused", e.ErrCacheUnavailable), 503, "cache unavailable"},
		{fmt.Errorf("%w: select: refused", e.ErrStoreUnavailable), 503, "record store unavailable"},
		{errors.New("boom"), 500, "Internal Server Error"},
	}

	for _, tt := range tests {
		c, w := newContext("GET", "/api/videogame", "", "")
		c.RespondWithError(tt.err)

		if w.Code != tt.status {
			t.Errorf("RespondWithError(%v) status = %d should be %d", tt.err, w.Code, tt.status)
		}

		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("error body is not json: %v", err)
		}
		if body.Status != tt.status || len(body.Errors) != 1 || body.Errors[0] != tt.text {
			t.Errorf("RespondWithError(%v) body = %+v", tt.err, body)
		}
	}
}

func TestRespondHeadHasNoBody(t *testing.T) {
	c, w := newContext("HEAD", "/api/videogame", "", "")
	c.RespondWithData([]VideoGameType{{ID: 1, Title: "A"}})

	if w.Code != http.StatusOK {
		t.Errorf("HEAD status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD wrote a %d byte body", w.Body.Len())
	}
	if w.Header().Get("Content-Length") == "0" || w.Header().Get("Content-Length") == "" {
		t.Errorf("HEAD Content-Length = %q, want the GET length", w.Header().Get("Content-Length"))
	}
}
