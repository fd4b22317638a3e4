package core

// error_messages.go maps technical errors to messages shown to the people
// uploading spreadsheets. Each message carries a code for support reference.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Input not found: the uploaded spreadsheet is gone before processing
//	         Matched by: ErrInputNotFound
//	IMP002 - Import busy: another import holds the roster lock
//	         Patterns: "import already in progress"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - Not a spreadsheet       Matched by: sheet.ErrInvalidWorkbook
//	                                  Patterns: "open workbook", "not a valid zip file"
//	FILE003 - Spreadsheet has no tabs Matched by: sheet.ErrNoSheets
//	                                  Patterns: "workbook has no sheets"
//	FILE004 - No file                 Patterns: "no file provided"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate student   Patterns: "duplicate key", "violates unique", "duplicate identity"
//	DB002 - Missing certificate Matched by: ErrMissingCertificate
//	DB003 - Foreign key         Patterns: "violates foreign key"
//	DB004 - Connection refused  Patterns: "connection refused"
//	DB005 - Connection reset    Patterns: "connection reset"
//	DB006 - Timeout             Patterns: "timeout"
//	DB007 - Deadlock            Patterns: "deadlock"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Cancelled    Patterns: "context canceled"
//	REQ002 - Timed out    Patterns: "context deadline exceeded"
//	RATE001 - Rate limited Patterns: "rate limit"
//
// ERR000 is the fallback; check the logs for the technical error.
//
// Sentinels are matched with errors.Is before any pattern. Patterns are
// matched case-insensitively with strings.Contains, first match wins, so
// specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/roster/internal/sheet"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorSentinel struct {
	err error
	msg UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorSentinels = []errorSentinel{
	{
		err: ErrInputNotFound,
		msg: UserMessage{
			Message: "Arquivo de importação não encontrado",
			Action:  "Envie a planilha novamente",
			Code:    "IMP001",
		},
	},
	{
		err: sheet.ErrInvalidWorkbook,
		msg: notAWorkbook,
	},
	{
		err: sheet.ErrNoSheets,
		msg: UserMessage{
			Message: "A planilha não possui abas",
			Action:  "Envie um arquivo .xlsx com os alunos na primeira aba",
			Code:    "FILE003",
		},
	},
	{
		err: ErrMissingCertificate,
		msg: UserMessage{
			Message: "Aluno sem certificado não pode ser salvo",
			Action:  "Verifique as colunas do certificado na planilha",
			Code:    "DB002",
		},
	},
}

var notAWorkbook = UserMessage{
	Message: "O arquivo não é uma planilha válida",
	Action:  "Envie um arquivo no formato .xlsx",
	Code:    "FILE002",
}

var duplicateStudent = UserMessage{
	Message: "Aluno já cadastrado",
	Action:  "Remova as linhas duplicadas da planilha",
	Code:    "DB001",
}

var errorPatterns = []errorPattern{
	// Import
	{
		pattern: "import already in progress",
		msg: UserMessage{
			Message: "Outra importação está em andamento",
			Action:  "Aguarde alguns instantes e tente novamente",
			Code:    "IMP002",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Arquivo excede o tamanho máximo permitido",
			Action:  "Divida a planilha em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Arquivo excede o tamanho máximo permitido",
			Action:  "Divida a planilha em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "workbook has no sheets",
		msg: UserMessage{
			Message: "A planilha não possui abas",
			Action:  "Envie um arquivo .xlsx com os alunos na primeira aba",
			Code:    "FILE003",
		},
	},
	{pattern: "open workbook", msg: notAWorkbook},
	{pattern: "not a valid zip file", msg: notAWorkbook},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi enviado",
			Action:  "Selecione uma planilha .xlsx",
			Code:    "FILE004",
		},
	},

	// Database constraints
	{pattern: "duplicate key", msg: duplicateStudent},
	{pattern: "violates unique", msg: duplicateStudent},
	{pattern: "duplicate identity", msg: duplicateStudent},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Registro relacionado não existe",
			Action:  "Tente novamente ou contate o suporte",
			Code:    "DB003",
		},
	},

	// Database connectivity
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Não foi possível conectar ao banco de dados",
			Action:  "Tente novamente em alguns instantes",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "A conexão com o banco de dados foi interrompida",
			Action:  "Tente novamente",
			Code:    "DB005",
		},
	},

	// Request lifecycle. These come before "timeout" so deadline errors keep
	// their own code.
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A requisição foi cancelada",
			Action:  "Tente novamente",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição excedeu o tempo limite",
			Action:  "Envie uma planilha menor ou tente novamente",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "A operação excedeu o tempo limite",
			Action:  "Tente novamente mais tarde",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "O banco de dados estava ocupado",
			Action:  "Tente novamente",
			Code:    "DB007",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Known
// sentinels win over text patterns; unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Código: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
