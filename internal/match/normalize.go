package match

import (
	"strings"
	"unicode"
)

// libraryPrefix is dropped from the front of identifiers; every ODPI-C
// name carries it.
const libraryPrefix = "dpi"

// NormalizeIdent folds an identifier for fuzzy matching:
//  1. split into camelCase and underscore separated tokens
//  2. lower-case every token
//  3. drop a leading "dpi" token
//  4. join without separators
//
// "dpiConn_getServerVersion" becomes "conngetserverversion".
func NormalizeIdent(s string) string {
	tokens := TokenizeIdent(s)
	if len(tokens) > 1 && tokens[0] == libraryPrefix {
		tokens = tokens[1:]
	}

	return strings.Join(tokens, "")
}

// TokenizeIdent splits an identifier into lower-case tokens.
// Examples:
//   - "messageLength" -> ["message", "length"]
//   - "DPI_MODE_EXEC_DEFAULT" -> ["dpi", "mode", "exec", "default"]
//   - "dpiSubscrQOS" -> ["dpi", "subscr", "qos"]
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && startsToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// startsToken reports whether a new token starts at runes[i].
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]

	// "orderID" splits before 'I'
	if unicode.IsUpper(r) && !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	// "XMLParser" splits before 'P'
	nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return unicode.IsUpper(r) && unicode.IsUpper(prev) && nextLower
}
