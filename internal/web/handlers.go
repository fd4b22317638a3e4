package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/lock"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/sheet"
)

const (
	msgNoFile          = "Nenhum arquivo foi enviado."
	msgImportOK        = "Todos os alunos foram importados com sucesso."
	msgImportPartial   = "Importação concluída com alguns erros"
	msgImportFailed    = "Erro interno ao importar."
	msgExportFailed    = "Erro ao gerar planilha."
	msgExportSendError = "Erro ao exportar planilha."
	msgListFailed      = "Erro ao listar alunos."

	exportFileName  = "alunos.xlsx"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 8 << 20
)

// ImportResponse is the body of a completed upload.
type ImportResponse struct {
	Message      string   `json:"message"`
	ImportID     string   `json:"importId,omitempty"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// handleListStudents returns the roster with certificates, ordered by name.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.service.ListStudents(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgListFailed)
		return
	}
	if students == nil {
		students = []core.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

// handleUpload imports the workbook sent in the "file" form field.
// 200 when every row was admitted, 207 when some were rejected.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, err, http.StatusRequestEntityTooLarge, "")
			return
		}
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	path, err := s.service.SaveUpload(file)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgImportFailed)
		return
	}

	logging.FromContext(r.Context()).Info("upload received",
		"file", header.Filename,
		"size", header.Size,
		"path", path,
	)

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportFile(ctx, path)
	switch {
	case errors.Is(err, lock.ErrBusy):
		respondError(w, r, err, http.StatusConflict, "")
		return
	case errors.Is(err, sheet.ErrInvalidWorkbook), errors.Is(err, sheet.ErrNoSheets):
		respondError(w, r, err, http.StatusBadRequest, "")
		return
	case err != nil:
		respondError(w, r, err, http.StatusInternalServerError, msgImportFailed)
		return
	}

	if report.Clean() {
		writeJSON(w, http.StatusOK, ImportResponse{
			Message:      msgImportOK,
			ImportID:     report.ImportID,
			SuccessCount: report.SuccessCount,
		})
		return
	}
	writeJSON(w, http.StatusMultiStatus, ImportResponse{
		Message:      msgImportPartial,
		ImportID:     report.ImportID,
		SuccessCount: report.SuccessCount,
		ErrorCount:   len(report.Errors),
		Errors:       report.Errors,
	})
}

// handleExport sends the roster as alunos.xlsx and removes the transient
// file afterwards.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	path, err := s.service.Export(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgExportFailed)
		return
	}
	defer func() {
		if err := core.RemoveExport(path); err != nil {
			logging.FromContext(r.Context()).Warn("failed to remove export", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgExportSendError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgExportSendError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	http.ServeContent(w, r, exportFileName, info.ModTime(), f)
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
