// Package script parses payload script lines.
//
// A payload is plain UTF-8 text with one instruction per line. A line is
// either a directive or a keystroke line:
//
//	REM comment text
//	DELAY 500
//	STRING typed verbatim
//	PRINT message for the log
//	IMPORT other.dd
//	DEFAULT_DELAY 5
//	LED
//	REPEAT 3
//	CTRL+ALT+DELETE ENTER
//
// The directive keyword is the text before the first space and is matched
// case-sensitively. Any line whose first word is not a directive is a
// keystroke line: space separated groups, each a key name or a "+" joined
// combination. Key names are case-insensitive.
//
// Parse classifies a single line into a Line value with a closed Kind.
// Tokenize turns a keystroke line into keycodes. Lint checks a whole payload
// without executing it.
package script
