package filetype

import (
	"testing"

	"github.com/openlms/file-service/internal/models"
)

var (
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 16)...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 16)...)
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	textBytes = []byte("hello, world\n")
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		content  []byte
		wantMIME string
		wantExt  string
	}{
		{"png", pngBytes, "image/png", "png"},
		{"jpeg", jpegBytes, "image/jpeg", "jpg"},
		{"pdf", pdfBytes, "application/pdf", "pdf"},
		{"text", textBytes, "text/plain", "txt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mime, ext := Detect(tc.content)
			if mime != tc.wantMIME {
				t.Errorf("mime = %q, want %q", mime, tc.wantMIME)
			}
			if ext != tc.wantExt {
				t.Errorf("ext = %q, want %q", ext, tc.wantExt)
			}
		})
	}
}

func TestDetectUnknownReturnsGenericBinary(t *testing.T) {
	mime, _ := Detect([]byte{0x00, 0x01, 0x02, 0x03, 0xf0, 0x0d})
	if mime != "application/octet-stream" {
		t.Errorf("mime = %q, want application/octet-stream", mime)
	}
}

func TestMatches(t *testing.T) {
	allowed := []string{"jpg", "png", "pdf", "txt"}

	cases := []struct {
		name    string
		content []byte
		claimed string
		want    bool
	}{
		{"jpeg content claimed jpg", jpegBytes, "jpg", true},
		{"jpeg content claimed jpeg", jpegBytes, "jpeg", true},
		{"pdf claimed png", pdfBytes, "png", false},
		{"png claimed png", pngBytes, "png", true},
		{"text claimed txt", textBytes, "txt", true},
		{"png claimed pdf", pngBytes, "pdf", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tc.content, tc.claimed, allowed); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchesTextFormatsDetectedAsPlainText(t *testing.T) {
	allowed := []string{"jpg", "png", "pdf", "txt", "md", "csv"}
	mdBytes := []byte("# Notes\n\nA body with *emphasis* and a [link](https://example.com).\n")
	csvBytes := []byte("id,name\n1,alpha\n2,beta\n")

	// Detection resolves these to plain text, which must not override an
	// allow-listed claim from the same family.
	if !Matches(mdBytes, "md", allowed) {
		t.Error("markdown claimed md must pass with md allow-listed")
	}
	if !Matches(csvBytes, "csv", allowed) {
		t.Error("csv claimed csv must pass with csv allow-listed")
	}
	if Matches(mdBytes, "jpg", allowed) {
		t.Error("text content claimed jpg must be rejected")
	}
	if Matches(mdBytes, "md", []string{"jpg", "png"}) {
		t.Error("claim outside the allow-list must be rejected")
	}
}

func TestMatchesUnknownBinaryFallsBackToExtension(t *testing.T) {
	blob := []byte{0x00, 0x01, 0x02, 0x03, 0xf0, 0x0d}
	if !Matches(blob, "zip", []string{"zip"}) {
		t.Error("generic detection must defer to an allow-listed claim")
	}
	if Matches(blob, "zip", []string{"pdf"}) {
		t.Error("generic detection must still honor the allow-list")
	}
}

func TestMatchesRequiresFamilyExtensionInAllowList(t *testing.T) {
	// PNG content with a "png" claim, but the allow-list carries no image
	// extension at all: the MIME check must fail even though the
	// extensions agree.
	if Matches(pngBytes, "png", []string{"pdf", "txt"}) {
		t.Error("image content must be rejected when no image extension is allowed")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		mime string
		ext  string
		want string
	}{
		{"image/png", "png", models.CategoryImage},
		{"video/mp4", "mp4", models.CategoryVideo},
		{"application/pdf", "pdf", models.CategoryDocument},
		{"text/plain", "txt", models.CategoryDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx", models.CategoryDocument},
		{"application/octet-stream", "mov", models.CategoryVideo}, // extension fallback
		{"application/octet-stream", "jpg", models.CategoryImage},
		{"application/octet-stream", "xyz", models.CategoryOther},
		{"application/x-topsecret", "", models.CategoryOther},
	}
	for _, tc := range cases {
		if got := Classify(tc.mime, tc.ext); got != tc.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tc.mime, tc.ext, got, tc.want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Classify("image/png", "png"); got != models.CategoryImage {
			t.Fatalf("Classify(image/png, png) = %q", got)
		}
		if got := Classify("application/unknown", "weird"); got != models.CategoryOther {
			t.Fatalf("Classify(unknown) = %q", got)
		}
	}
}

func TestCanonicalEquivalents(t *testing.T) {
	pairs := [][2]string{{"jpg", "jpeg"}, {"tif", "tiff"}, {"doc", "docx"}, {"htm", "html"}, {"JPG", "jpeg"}}
	for _, p := range pairs {
		if canonical(p[0]) != canonical(p[1]) {
			t.Errorf("canonical(%q) != canonical(%q)", p[0], p[1])
		}
	}
}
