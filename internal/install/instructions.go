// SPDX-License-Identifier: MPL-2.0

package install

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Statement is one parsed install statement.
type Statement struct {
	// Index counts statements from zero.
	Index int
	// Text is the statement as written, without the separator.
	Text string
	// Argv is Text split on whitespace; Argv[0] is the program.
	Argv []string
}

// ParseInstructions splits an install string into statements. Statements
// are separated by ";" and tokens by whitespace; nothing is quoted or
// expanded. A blank install string has no statements. Any empty statement,
// including one after a trailing ";", is a *MalformedInstallInstructionError.
func ParseInstructions(s string) ([]Statement, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	stmts := make([]Statement, 0, len(parts))
	for i, part := range parts {
		argv := strings.Fields(part)
		if len(argv) == 0 {
			return nil, &MalformedInstallInstructionError{Statement: part, Index: i}
		}
		stmts = append(stmts, Statement{Index: i, Text: strings.TrimSpace(part), Argv: argv})
	}
	return stmts, nil
}

// String renders the statement shell-quoted, so a reader sees token
// boundaries exactly. The result is for display only and is never run by
// a shell.
func (s Statement) String() string {
	return quoteArgv(s.Argv)
}

func quoteArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = arg
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
