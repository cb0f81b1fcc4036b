// Package metadata recovers an optionally uploaded document from the
// free-form metadata string a participant joins the room with.
package metadata

import (
	"encoding/json"
	"fmt"
)

// UploadedDocument is a document a participant attached to the session.
// Name and Content are always both set; a session without a document is
// represented by a nil *UploadedDocument, never by a half-filled one.
type UploadedDocument struct {
	Name    string
	Content string
}

// participantMetadata is the JSON shape clients are expected to send:
//
//	{"uploadedFile": {"filename": "...", "content": "..."}, ...}
//
// Unknown top-level fields are ignored.
type participantMetadata struct {
	UploadedFile *uploadedFile `json:"uploadedFile"`
}

type uploadedFile struct {
	Filename *string `json:"filename"`
	Content  *string `json:"content"`
}

// Parse attempts to interpret participant metadata as an uploaded document.
//
// A metadata string without an uploadedFile entry is normal, not an error:
// Parse returns (nil, nil). Malformed JSON, or an uploadedFile entry missing
// filename or content, returns (nil, err); callers log it and carry on with
// no document. Parsing is local, deterministic and single-shot.
func Parse(raw string) (*UploadedDocument, error) {
	var meta participantMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("metadata is not valid JSON: %w", err)
	}

	if meta.UploadedFile == nil {
		return nil, nil
	}

	if meta.UploadedFile.Filename == nil {
		return nil, fmt.Errorf("uploadedFile entry is missing 'filename'")
	}
	if meta.UploadedFile.Content == nil {
		return nil, fmt.Errorf("uploadedFile entry is missing 'content'")
	}

	return &UploadedDocument{
		Name:    *meta.UploadedFile.Filename,
		Content: *meta.UploadedFile.Content,
	}, nil
}
