// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"errors"
	"strings"

	"github.com/ManuGH/sqlite-mcp/internal/errclass"
)

// ErrMultipleStatements is returned for query text holding more than one
// statement. The driver would otherwise run all of them.
var ErrMultipleStatements = errors.New("only one SQL statement is allowed per call")

// checkSingleStatement rejects query when anything other than whitespace,
// comments and one trailing semicolon follows the first statement.
// Semicolons inside string literals, quoted identifiers, comments and
// trigger bodies do not end a statement.
func checkSingleStatement(query string) error {
	end := statementEnd(query)
	if end < 0 || onlyTrivia(query[end+1:]) {
		return nil
	}
	return &errclass.SQLError{
		Type:    errclass.SyntaxError,
		Message: ErrMultipleStatements.Error(),
		Query:   query,
		Err:     ErrMultipleStatements,
	}
}

// statementEnd returns the index of the semicolon that terminates the first
// statement of q, or -1 when q has none.
func statementEnd(q string) int {
	var (
		word    strings.Builder
		words   int
		create  bool
		trigger bool
		depth   int
	)
	// flush classifies the keyword that just ended.
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.ToUpper(word.String())
		word.Reset()
		words++
		switch {
		case words == 1:
			create = w == "CREATE"
		case create && words <= 3 && w == "TRIGGER":
			// CREATE [TEMP|TEMPORARY] TRIGGER
			trigger = true
		}
		if !trigger {
			return
		}
		switch w {
		case "BEGIN", "CASE":
			depth++
		case "END":
			if depth > 0 {
				depth--
			}
		}
	}

	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			flush()
			i = skipQuoted(q, i, c)
		case c == '[':
			flush()
			i = skipQuoted(q, i, ']')
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			flush()
			if nl := strings.IndexByte(q[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(q)
			}
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			flush()
			if e := strings.Index(q[i+2:], "*/"); e >= 0 {
				i += e + 3
			} else {
				i = len(q)
			}
		case isWordByte(c):
			word.WriteByte(c)
		default:
			flush()
			if c == ';' && depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipQuoted returns the index of the byte closing the literal opened at
// start. A doubled closing quote is an escaped quote.
func skipQuoted(q string, start int, closing byte) int {
	for i := start + 1; i < len(q); i++ {
		if q[i] != closing {
			continue
		}
		if closing != ']' && i+1 < len(q) && q[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(q)
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= 0x80
}

// onlyTrivia reports whether s holds nothing but whitespace, semicolons and
// comments.
func onlyTrivia(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == ';':
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return true
			}
			i += nl
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			e := strings.Index(s[i+2:], "*/")
			if e < 0 {
				return true
			}
			i += e + 3
		default:
			return false
		}
	}
	return true
}
