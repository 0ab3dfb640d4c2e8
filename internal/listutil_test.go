package internal

import (
	"net/http/httptest"
	"testing"
)

func TestParseListParamsDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/equipment", nil)
	p := parseListParams(r)

	if p.limit != 50 {
		t.Errorf("expected default limit 50, got %d", p.limit)
	}
	if p.offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.offset)
	}
	if p.q != "" || p.sort != "" {
		t.Errorf("expected empty q/sort, got %q/%q", p.q, p.sort)
	}
}

func TestParseListParamsCapsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/equipment?limit=5000&offset=10&q=scope&sort=-name", nil)
	p := parseListParams(r)

	if p.limit != 200 {
		t.Errorf("expected limit capped at 200, got %d", p.limit)
	}
	if p.offset != 10 {
		t.Errorf("expected offset 10, got %d", p.offset)
	}
	if p.q != "scope" {
		t.Errorf("expected q 'scope', got %q", p.q)
	}
	if p.sort != "-name" {
		t.Errorf("expected sort '-name', got %q", p.sort)
	}
}

func TestParseListParamsIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/equipment?limit=abc&offset=-5", nil)
	p := parseListParams(r)

	if p.limit != 50 || p.offset != 0 {
		t.Errorf("expected defaults on bad input, got limit=%d offset=%d", p.limit, p.offset)
	}
}

func TestBuildOrderBy(t *testing.T) {
	allowed := map[string]string{
		"id":       "id",
		"name":     "name",
		"category": "category",
	}

	tests := []struct {
		sort string
		want string
	}{
		{"", " ORDER BY id ASC"},
		{"name", " ORDER BY name ASC"},
		{"-name", " ORDER BY name DESC"},
		{"category,-name", " ORDER BY category ASC, name DESC"},
		{"drop table", " ORDER BY id ASC"},
		{"name,bogus", " ORDER BY name ASC"},
	}

	for _, tt := range tests {
		if got := buildOrderBy(tt.sort, allowed); got != tt.want {
			t.Errorf("buildOrderBy(%q) = %q, want %q", tt.sort, got, tt.want)
		}
	}
}
