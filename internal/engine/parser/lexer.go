package parser

import "strings"

// tokenize splits a statement into words, punctuation and quoted
// literals. Comparison operators are emitted as their own tokens even
// when glued to their operands (id=2), with two-character operators
// (>=, <=, !=) recognized before single-character ones.
func tokenize(input string) []string {
	var tokens []string
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ',':
			tokens = append(tokens, ",")
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(input) && input[j] != quote {
				j++
			}
			tokens = append(tokens, input[i+1:j])
			if j < len(input) {
				j++
			}
			i = j
		case isOperatorStart(c):
			if i+1 < len(input) && isTwoCharOp(input[i:i+2]) {
				tokens = append(tokens, input[i:i+2])
				i += 2
			} else {
				tokens = append(tokens, string(c))
				i++
			}
		default:
			j := i
			for j < len(input) && !isBoundary(input[j]) {
				j++
			}
			tokens = append(tokens, input[i:j])
			i = j
		}
	}
	return tokens
}

func isOperatorStart(c byte) bool {
	return c == '=' || c == '!' || c == '<' || c == '>'
}

func isTwoCharOp(s string) bool {
	return s == ">=" || s == "<=" || s == "!="
}

func isBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
		c == ',' || c == '\'' || c == '"' || isOperatorStart(c)
}

// isKeyword reports whether tok equals the keyword, ASCII
// case-insensitively.
func isKeyword(tok, keyword string) bool {
	return strings.EqualFold(tok, keyword)
}
