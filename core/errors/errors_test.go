package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name    string
		err     *NotFoundError
		wantMsg string
	}{
		{
			name:    "with ID",
			err:     &NotFoundError{Resource: "verse", ID: "genesis/noach/noach-006-009.json"},
			wantMsg: "verse not found: genesis/noach/noach-006-009.json",
		},
		{
			name:    "without ID",
			err:     &NotFoundError{Resource: "lexicon"},
			wantMsg: "lexicon not found",
		},
		{
			name:    "with status",
			err:     &NotFoundError{Resource: "chapter", ID: "genesis/chapter-001.json", Status: 500},
			wantMsg: "chapter not found: genesis/chapter-001.json (status 500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrNotFound) {
				t.Errorf("errors.Is(%v, ErrNotFound) = false", tt.err)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("connection refused")
		err := &NotFoundError{Resource: "books", Err: underlying}
		if got := err.Unwrap(); got != underlying {
			t.Errorf("Unwrap() = %v, want %v", got, underlying)
		}
		if !IsNotFound(err) {
			t.Error("IsNotFound should still report true")
		}
	})
}

func TestParseError(t *testing.T) {
	err := NewParse("JSON", "metadata/books.json", "unexpected end of input")
	want := "failed to parse JSON at metadata/books.json: unexpected end of input"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}
	if IsNotFound(err) {
		t.Error("ParseError must not look like a not-found error")
	}

	noPath := &ParseError{Format: "reference", Message: "empty"}
	if got := noPath.Error(); got != "failed to parse reference: empty" {
		t.Errorf("Error() = %q", got)
	}
}

func TestResolutionError(t *testing.T) {
	tests := []struct {
		name string
		err  *ResolutionError
		want string
	}{
		{"chapter only", NewResolution("genesis", 99, 0, ""), "parasha not found for genesis 99"},
		{"with verse", NewResolution("exodus", 6, 2, "no candidates"), "parasha not found for exodus 6:2: no candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !IsUnresolved(tt.err) {
				t.Error("IsUnresolved should be true")
			}
			wrapped := Wrap(tt.err, "load verse")
			var re *ResolutionError
			if !As(wrapped, &re) || re.Chapter != tt.err.Chapter {
				t.Errorf("As() did not recover the ResolutionError from %v", wrapped)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("books[0].id", "missing required field")
	if got := err.Error(); got != "validation failed for books[0].id: missing required field" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
}

func TestIOError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIO("write", "cache.db", cause)
	if got := err.Error(); got != "failed to write cache.db: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("IOError should unwrap to its cause")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	base := NewNotFound("verse", "x")
	got := Wrapf(base, "chapter %d", 6)
	if got.Error() != "chapter 6: verse not found: x" {
		t.Errorf("Wrapf() = %q", got.Error())
	}
	if !Is(got, ErrNotFound) {
		t.Error("wrapped error lost its sentinel")
	}
}

func TestJoin(t *testing.T) {
	a := NewNotFound("verse", "a")
	b := NewNotFound("chapter", "b")
	joined := Join(a, b)
	var nf *NotFoundError
	if !As(joined, &nf) {
		t.Fatal("As() failed on joined error")
	}
	if nf.Resource != "verse" {
		t.Errorf("first joined error = %q, want verse", nf.Resource)
	}
}
