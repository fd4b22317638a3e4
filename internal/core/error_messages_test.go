package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/roster/internal/sheet"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"input not found", fmt.Errorf("%w: /tmp/x.xlsx", ErrInputNotFound), "IMP001"},
		{"lock busy", errors.New("acquire import lock: import already in progress, please try again later"), "IMP002"},
		{"invalid workbook sentinel", fmt.Errorf("read import file: %w", sheet.ErrInvalidWorkbook), "FILE002"},
		{"zip pattern", errors.New("zip: not a valid zip file"), "FILE002"},
		{"no sheets", fmt.Errorf("read: %w", sheet.ErrNoSheets), "FILE003"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"missing certificate", fmt.Errorf("save student: %w", ErrMissingCertificate), "DB002"},
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"deadline", context.DeadlineExceeded, "REQ002"},
		{"cancelled", context.Canceled, "REQ001"},
		{"unknown error", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

func TestMapError_SentinelBeatsPattern(t *testing.T) {
	// The wrapped text mentions a timeout but the sentinel decides.
	err := fmt.Errorf("timeout while reading: %w", ErrInputNotFound)
	if got := MapError(err).Code; got != "IMP001" {
		t.Errorf("code = %q, want IMP001", got)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	want := "Arquivo de importação não encontrado (Código: IMP001). Envie a planilha novamente"
	if got := FormatUserError(ErrInputNotFound); got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if IsUserFacing(errors.New("weird")) {
		t.Error("unknown errors should not be user facing")
	}
	if !IsUserFacing(ErrMissingCertificate) {
		t.Error("ErrMissingCertificate should be user facing")
	}
}
