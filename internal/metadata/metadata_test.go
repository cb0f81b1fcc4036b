package metadata

import (
	"testing"
)

func TestParse(t *testing.T) {
	raw := `{"uploadedFile":{"filename":"notes.txt","content":"meeting agenda"}}`

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if doc == nil {
		t.Fatal("Expected a document, got nil")
	}

	if doc.Name != "notes.txt" {
		t.Errorf("Expected Name 'notes.txt', got '%s'", doc.Name)
	}
	if doc.Content != "meeting agenda" {
		t.Errorf("Expected Content 'meeting agenda', got '%s'", doc.Content)
	}
}

func TestParse_ExtraFieldsIgnored(t *testing.T) {
	raw := `{"userColor":"blue","uploadedFile":{"filename":"f","content":"c"},"plan":"pro"}`

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if doc == nil || doc.Name != "f" || doc.Content != "c" {
		t.Errorf("Expected document {f c}, got %+v", doc)
	}
}

func TestParse_NoUploadedFile(t *testing.T) {
	// Absence of the uploadedFile entry is normal, not an error
	doc, err := Parse(`{"userColor":"blue"}`)
	if err != nil {
		t.Errorf("Expected no error for metadata without uploadedFile, got %v", err)
	}
	if doc != nil {
		t.Errorf("Expected nil document, got %+v", doc)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	cases := []string{
		"",
		"not json",
		"{",
		`{"uploadedFile":`,
		`[1,2,3`,
	}

	for _, raw := range cases {
		doc, err := Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q): expected error for invalid JSON", raw)
		}
		if doc != nil {
			t.Errorf("Parse(%q): expected nil document, got %+v", raw, doc)
		}
	}
}

func TestParse_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing content", `{"uploadedFile":{"filename":"f"}}`},
		{"missing filename", `{"uploadedFile":{"content":"c"}}`},
		{"empty entry", `{"uploadedFile":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse(tc.raw)
			if err == nil {
				t.Error("Expected error for incomplete uploadedFile entry")
			}
			// Name and content must be both present or both absent
			if doc != nil {
				t.Errorf("Expected nil document, got %+v", doc)
			}
		})
	}
}

func TestParse_EmptyStringsAllowed(t *testing.T) {
	// Present-but-empty fields are distinct from missing fields
	doc, err := Parse(`{"uploadedFile":{"filename":"","content":""}}`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if doc == nil {
		t.Fatal("Expected a document for present-but-empty fields")
	}
}
