package models

import "testing"

func TestTruncateGraphemes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello"},
		{"empty string", "", 5, ""},
		{"zero limit", "hello", 0, ""},
		{"multibyte runes", "café résumé", 4, "café"},
		{"emoji kept whole", "👍🏽 great", 2, "👍🏽 "},
		{"flag kept whole", "🇦🇹🇩🇪", 1, "🇦🇹"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateGraphemes(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("TruncateGraphemes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestFileBlobIsPDF(t *testing.T) {
	tests := []struct {
		name string
		blob FileBlob
		want bool
	}{
		{"pdf extension", FileBlob{Name: "manual.pdf"}, true},
		{"upper case extension", FileBlob{Name: "MANUAL.PDF"}, true},
		{"content type only", FileBlob{Name: "scan", ContentType: "application/pdf"}, true},
		{"x-pdf content type", FileBlob{Name: "scan", ContentType: "application/x-pdf"}, true},
		{"text file", FileBlob{Name: "notes.txt", ContentType: "text/plain"}, false},
		{"no name", FileBlob{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.blob.IsPDF(); got != tt.want {
				t.Errorf("IsPDF() = %v, want %v", got, tt.want)
			}
		})
	}
}
