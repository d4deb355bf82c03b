package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxFileSize caps uploads at 10 MB.
const DefaultMaxFileSize = 10 << 20

var allowedExtensions = map[string]bool{
	"pdf": true, "png": true, "jpg": true, "jpeg": true, "gif": true, "docx": true,
}

// fileSignatures are the magic bytes each allowed format starts with.
// Checking them stops renamed executables from passing the extension
// filter. DOCX is a ZIP archive, so it starts with PK.
var fileSignatures = map[string][][]byte{
	"pdf":  {[]byte("%PDF")},
	"png":  {{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	"jpg":  {{0xff, 0xd8, 0xff}},
	"jpeg": {{0xff, 0xd8, 0xff}},
	"gif":  {[]byte("GIF87a"), []byte("GIF89a")},
	"docx": {[]byte("PK\x03\x04")},
}

var dangerousExtensions = map[string]bool{
	"exe": true, "bat": true, "cmd": true, "sh": true, "bash": true, "ps1": true,
	"vbs": true, "js": true, "jse": true, "wsf": true, "wsh": true, "msc": true,
	"jar": true, "py": true, "pyw": true, "rb": true, "pl": true, "php": true,
	"php3": true, "php4": true, "php5": true, "phtml": true, "asp": true,
	"aspx": true, "jsp": true, "cgi": true, "htaccess": true, "htpasswd": true,
	"ini": true, "conf": true, "config": true, "sql": true, "bak": true,
	"dll": true, "so": true, "dylib": true, "com": true, "scr": true, "pif": true,
	"application": true, "gadget": true, "msi": true, "msp": true, "hta": true,
	"cpl": true, "inf": true, "reg": true, "scf": true, "lnk": true, "svg": true,
}

// UploadError reports a rejected upload with a client-facing message.
type UploadError struct {
	Msg string
}

func (u UploadError) Error() string { return u.Msg }

// Uploader stores validated files under a flat directory with random
// names, so original filenames never reach the filesystem.
type Uploader struct {
	Dir         string
	MaxFileSize int64
}

func NewUploader(dir string, maxFileSize int64) *Uploader {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Uploader{Dir: dir, MaxFileSize: maxFileSize}
}

func fileExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.TrimPrefix(ext, ".")
}

// allExtensions returns every dot-separated suffix of the name, so a
// double extension like report.php.jpg is caught.
func allExtensions(filename string) []string {
	parts := strings.Split(strings.ToLower(filepath.Base(filename)), ".")
	if len(parts) < 2 {
		return nil
	}
	return parts[1:]
}

func hasDangerousExtension(filename string) bool {
	for _, ext := range allExtensions(filename) {
		if dangerousExtensions[ext] {
			return true
		}
	}
	return false
}

// ValidateFilename rejects names with traversal sequences, null bytes,
// disallowed or dangerous extensions.
func ValidateFilename(filename string) error {
	if filename == "" {
		return UploadError{Msg: "no file selected"}
	}
	if strings.ContainsRune(filename, 0) {
		return UploadError{Msg: "invalid filename"}
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return UploadError{Msg: "invalid filename"}
	}
	if hasDangerousExtension(filename) {
		return UploadError{Msg: "file type not allowed"}
	}
	ext := fileExtension(filename)
	if !allowedExtensions[ext] {
		return UploadError{Msg: "file type not allowed"}
	}
	return nil
}

func matchesSignature(ext string, head []byte) bool {
	signatures, ok := fileSignatures[ext]
	if !ok {
		return false
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig) {
			return true
		}
	}
	return false
}

// DocTypeForExtension maps a file extension to the stored doc type.
func DocTypeForExtension(ext string) string {
	switch ext {
	case "pdf":
		return TypePDF
	case "png", "jpg", "jpeg", "gif":
		return TypeImg
	case "docx":
		return TypeDocx
	default:
		return TypeFile
	}
}

// Save validates and writes the uploaded content, returning the stored
// filename and the detected doc type.
func (u *Uploader) Save(originalName string, r io.Reader) (string, string, error) {
	if err := ValidateFilename(originalName); err != nil {
		return "", "", err
	}
	ext := fileExtension(originalName)

	// Read one byte past the limit to detect oversized uploads.
	data, err := io.ReadAll(io.LimitReader(r, u.MaxFileSize+1))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.MaxFileSize {
		return "", "", UploadError{Msg: "file too large"}
	}
	if len(data) == 0 {
		return "", "", UploadError{Msg: "file is empty"}
	}
	if !matchesSignature(ext, data) {
		return "", "", UploadError{Msg: "file content does not match its extension"}
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}

	storedName := uuid.NewString() + "." + ext
	path := filepath.Join(u.Dir, storedName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}

	return storedName, DocTypeForExtension(ext), nil
}

// Delete removes a stored file by its generated name. Unknown names
// are ignored.
func (u *Uploader) Delete(storedName string) error {
	if storedName == "" || strings.ContainsAny(storedName, "/\\") {
		return nil
	}
	err := os.Remove(filepath.Join(u.Dir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
