package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type importResponse struct {
	Transactions []transactionResponse `json:"transactions"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	storedName, err := s.saveUpload(file, header.Filename)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to store upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	transactions, err := s.importer.ImportFile(r.Context(), storedName)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Import failed", "error", err, "file", storedName)
			writeError(w, status, "internal server error")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	resp := importResponse{Transactions: make([]transactionResponse, 0, len(transactions))}
	for _, tx := range transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusCreated, resp)
}

// saveUpload writes the uploaded stream into the upload directory under a
// collision-free name and returns that name.
func (s *Server) saveUpload(file io.Reader, originalName string) (string, error) {
	base := filepath.Base(strings.TrimSpace(originalName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload.csv"
	}
	storedName := uuid.NewString() + "-" + base

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.uploadDir, storedName))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return storedName, nil
}
