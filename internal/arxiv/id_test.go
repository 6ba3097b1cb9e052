package arxiv

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "2301.12345", "2301.12345"},
		{"whitespace", "  1706.03762 ", "1706.03762"},
		{"category", "cs.CV/2401.12345", "cs.cv/2401.12345"},
		{"category case", "CS.CV/2401.12345", "cs.cv/2401.12345"},
		{"version", "2308.01234v2", "2308.01234v2"},
		{"arxiv prefix", "arXiv:2101.00001", "2101.00001"},
		{"abs url", "https://arxiv.org/abs/2101.00001", "2101.00001"},
		{"pdf url", "https://arxiv.org/pdf/2205.12345.pdf", "2205.12345"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, err := ParseID(tt.in)
			if err != nil {
				t.Fatalf("ParseID(%q): %v", tt.in, err)
			}
			if id.String() != tt.want {
				t.Fatalf("ParseID(%q) = %q, want %q", tt.in, id.String(), tt.want)
			}
		})
	}
}

func TestParseIDRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"not-an-id",
		"12.34",
		"2301.",
		"cs.CV/",
		"/2301.12345",
		"2301.12345; rm -rf",
		"https://example.com/foo",
	}

	for _, in := range inputs {
		if _, err := ParseID(in); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("ParseID(%q) error = %v, want ErrInvalidIdentifier", in, err)
		}
	}
}

func TestIDDerivedForms(t *testing.T) {
	t.Parallel()

	id, err := ParseID("cs.CV/2401.12345")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if got := id.Key(); got != "cs.cv-2401.12345" {
		t.Fatalf("Key() = %q", got)
	}
	if got := id.FileStem(); got != "2401.12345" {
		t.Fatalf("FileStem() = %q", got)
	}
	if got := id.PDFURL(); got != "https://arxiv.org/pdf/cs.cv/2401.12345.pdf" {
		t.Fatalf("PDFURL() = %q", got)
	}
	if got := id.AbsURL(); got != "https://arxiv.org/abs/cs.cv/2401.12345" {
		t.Fatalf("AbsURL() = %q", got)
	}
}

func TestParseIDNormalizesEquivalentForms(t *testing.T) {
	t.Parallel()

	forms := []string{"2301.12345", " 2301.12345", "arXiv:2301.12345", "https://arxiv.org/abs/2301.12345"}
	first, err := ParseID(forms[0])
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	for _, form := range forms[1:] {
		id, err := ParseID(form)
		if err != nil {
			t.Fatalf("ParseID(%q): %v", form, err)
		}
		if id.Key() != first.Key() {
			t.Fatalf("Key(%q) = %q, want %q", form, id.Key(), first.Key())
		}
	}
}
