// Package filetype detects the true content type of uploaded bytes and
// cross-checks it against the extension the client claimed. Detection is
// signature-based (magic numbers) and never trusts filenames or headers.
package filetype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/openlms/file-service/internal/models"
)

const genericMIME = "application/octet-stream"

// equivalents maps interchangeable extensions to a canonical spelling so
// "jpg" content claimed as "jpeg" (and similar pairs) validates cleanly.
var equivalents = map[string]string{
	"jpg": "jpeg",
	"tif": "tiff",
	"htm": "html",
	"mpg": "mpeg",
	"doc": "docx",
	"xls": "xlsx",
	"ppt": "pptx",
}

// mimeFamilies is the fixed MIME-to-extension table. A detected MIME type is
// acceptable only when its family matches and at least one of the family's
// extensions appears in the configured allow-list.
var mimeFamilies = []struct {
	prefix     string
	extensions []string
}{
	{"image/", []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg", "tif", "tiff", "ico"}},
	{"video/", []string{"mp4", "avi", "mov", "mkv", "webm", "mpg", "mpeg", "flv"}},
	{"audio/", []string{"mp3", "wav", "ogg", "m4a", "flac"}},
	{"application/pdf", []string{"pdf"}},
	{"application/msword", []string{"doc", "docx"}},
	{"application/vnd.openxmlformats-officedocument", []string{"docx", "xlsx", "pptx"}},
	{"application/vnd.ms-excel", []string{"xls", "xlsx"}},
	{"application/vnd.ms-powerpoint", []string{"ppt", "pptx"}},
	{"application/zip", []string{"zip", "docx", "xlsx", "pptx"}},
	{"application/x-rar", []string{"rar"}},
	{"application/gzip", []string{"gz", "tgz"}},
	{"text/", []string{"txt", "csv", "md", "html", "htm", "json", "xml", "srt", "vtt"}},
	{"application/json", []string{"json"}},
	{"application/xml", []string{"xml"}},
}

// Detect inspects the leading bytes of content and returns the MIME type and
// extension (without dot). Unrecognized content yields the generic binary
// type and an empty extension; Detect never fails.
func Detect(content []byte) (mimeType, ext string) {
	mtype := mimetype.Detect(content)
	if mtype == nil {
		return genericMIME, ""
	}
	mimeType = mtype.String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	ext = strings.TrimPrefix(mtype.Extension(), ".")
	return mimeType, ext
}

// Matches reports whether content is consistent with expectedExt and whether
// its detected MIME type maps into allowedExts. Inconclusive detections do
// not veto the claim: plain-text formats (markdown, csv, subtitles) all
// detect as text/plain and unknown binaries as the generic type, so those
// fall back to checking the claimed extension against the allow-list. A
// panic inside detection degrades to the same extension-only check.
func Matches(content []byte, expectedExt string, allowedExts []string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = extAllowed(expectedExt, allowedExts)
		}
	}()

	detectedMIME, detectedExt := Detect(content)

	if sameExtension(detectedExt, expectedExt) {
		return mimeAllowed(detectedMIME, allowedExts)
	}
	if detectedMIME == genericMIME {
		return extAllowed(expectedExt, allowedExts)
	}
	if strings.HasPrefix(detectedMIME, "text/") && textExtension(expectedExt) {
		return extAllowed(expectedExt, allowedExts)
	}
	return false
}

// textExtension reports whether ext belongs to the text/ MIME family.
func textExtension(ext string) bool {
	for _, family := range mimeFamilies {
		if family.prefix == "text/" {
			return extAllowed(ext, family.extensions)
		}
	}
	return false
}

// Classify buckets a file into video/image/document/other. The MIME prefix
// wins; the extension is only a fallback for generic or missing MIME types.
func Classify(mimeType, ext string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return models.CategoryVideo
	case strings.HasPrefix(mimeType, "image/"):
		return models.CategoryImage
	case isDocumentMIME(mimeType):
		return models.CategoryDocument
	}

	switch canonical(ext) {
	case "mp4", "avi", "mov", "mkv", "webm", "mpeg", "flv":
		return models.CategoryVideo
	case "jpeg", "png", "gif", "bmp", "webp", "tiff", "svg", "ico":
		return models.CategoryImage
	case "pdf", "docx", "xlsx", "pptx", "txt", "csv", "md", "odt", "rtf":
		return models.CategoryDocument
	}
	return models.CategoryOther
}

func isDocumentMIME(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch {
	case mimeType == "application/pdf",
		strings.HasPrefix(mimeType, "application/msword"),
		strings.HasPrefix(mimeType, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(mimeType, "application/vnd.ms-excel"),
		strings.HasPrefix(mimeType, "application/vnd.ms-powerpoint"),
		strings.HasPrefix(mimeType, "application/vnd.oasis.opendocument"):
		return true
	}
	return false
}

func canonical(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if c, ok := equivalents[ext]; ok {
		return c
	}
	return ext
}

func sameExtension(a, b string) bool {
	ca, cb := canonical(a), canonical(b)
	return ca != "" && ca == cb
}

func extAllowed(ext string, allowed []string) bool {
	c := canonical(ext)
	for _, a := range allowed {
		if canonical(a) == c {
			return true
		}
	}
	return false
}

func mimeAllowed(mimeType string, allowed []string) bool {
	for _, family := range mimeFamilies {
		if !strings.HasPrefix(mimeType, family.prefix) {
			continue
		}
		for _, ext := range family.extensions {
			if extAllowed(ext, allowed) {
				return true
			}
		}
	}
	return false
}
