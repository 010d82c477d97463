package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != 1 {
		t.Errorf("expected default page 1, got %d", p.Page)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
}

func TestFromContext_ParsesAndClamps(t *testing.T) {
	p := paramsFor(t, "page=3&limit=25")
	if p.Page != 3 || p.Limit != 25 {
		t.Errorf("unexpected params: %+v", p)
	}

	p = paramsFor(t, "page=-1&limit=5000")
	if p.Page != 1 {
		t.Errorf("expected negative page clamped to 1, got %d", p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}

	p = paramsFor(t, "page=abc&limit=xyz")
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("expected defaults for garbage input, got %+v", p)
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if p.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset())
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 21, Params{Page: 2, Limit: 10})
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", resp.TotalPages)
	}
	if resp.Page != 2 || resp.Limit != 10 || resp.Total != 21 {
		t.Errorf("unexpected response: %+v", resp)
	}

	empty := NewResponse(nil, 0, Params{Page: 1, Limit: 10})
	if empty.TotalPages != 0 {
		t.Errorf("expected 0 total pages for empty result, got %d", empty.TotalPages)
	}
}
