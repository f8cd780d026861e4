package checks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitJSONPath(t *testing.T) {
	got, err := splitJSONPath("$.a.b[0]['c d']")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "0", "c d"}, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"a.b", "$..a", "$[0", "$x"} {
		if _, err := splitJSONPath(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLocateJSONPath(t *testing.T) {
	doc := []byte("name: demo\nitems:\n  - first\n  - second\nnested:\n  deep:\n    value: 42\n")
	tests := []struct {
		path string
		want span
	}{
		{"$", defaultSpan},
		{"$.name", span{line: 1, startCol: 1, endCol: 10}},
		{"$.items[1]", span{line: 4, startCol: 5, endCol: 10}},
		{"$.nested.deep.value", span{line: 7, startCol: 5, endCol: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := locateJSONPath(doc, tt.path)
			if !ok {
				t.Fatalf("expected %s to be found", tt.path)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	if _, ok := locateJSONPath(doc, "$.missing"); ok {
		t.Error("expected missing key to fail")
	}
	if _, ok := locateJSONPath(doc, "$.items[7]"); ok {
		t.Error("expected out-of-range index to fail")
	}
}

func TestLocateJSONPath_JSONDocument(t *testing.T) {
	doc := []byte("{\n  \"name\": \"Jane\",\n  \"a\": {\n    \"b\": 1\n  },\n  \"age\": \"thirty\",\n  \"interests\": 20\n}\n")
	tests := []struct {
		path string
		want span
	}{
		{"$.a.b", span{line: 4, startCol: 6, endCol: 10}},
		{"$.age", span{line: 6, startCol: 4, endCol: 17}},
		{"$.interests", span{line: 7, startCol: 4, endCol: 17}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := locateJSONPath(doc, tt.path)
			if !ok {
				t.Fatalf("expected %s to be found", tt.path)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
