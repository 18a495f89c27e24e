package httpx

import (
	"log/slog"
	"mime"
)

// Export content types, registered in case the host mime tables lack them.
const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv; charset=utf-8"
	MimePDF  = "application/pdf"
)

func init() {
	ensureMimeType(".xlsx", MimeXLSX)
	ensureMimeType(".csv", MimeCSV)
	ensureMimeType(".pdf", MimePDF)
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		slog.Default().Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
	}
}

// ContentTypeFor returns the registered content type for a file extension.
func ContentTypeFor(ext string) string {
	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
