package protocol

import "strings"

// StatusCommand is the command name the server puts on every terminal
// status line.
const StatusCommand = "error"

// Line is one parsed response line.
//
// Command is empty for data lines: when the first token of a line
// already contains a `=` the line carries no command name at all and
// that token is parsed as a regular key.
type Line struct {
	Command string
	Keys    map[string]Value
	Opts    []string
}

// IsStatus reports whether the line terminates a request cycle.
func (l Line) IsStatus() bool {
	return l.Command != ""
}

// Get returns the scalar value of a key, or "" when the key is absent
// or holds a Sequence.
func (l Line) Get(key string) string {
	if s, ok := l.Keys[key].(Scalar); ok {
		return string(s)
	}

	return ""
}

// ParseLine decodes one received wire line into its structured form.
//
// Parsing is best effort: malformed tokens are skipped, never
// reported. Every `send` has a matching parse on the far side so a
// strict parser would only turn a peer quirk into a dead session.
func ParseLine(line string) Line {
	tokens := strings.Split(strings.TrimSpace(line), " ")

	parsed := Line{
		Keys: map[string]Value{},
		Opts: []string{},
	}

	start := 1
	if strings.Contains(tokens[0], "=") {
		// No command token, the line leads straight into key=value
		// data. Re-scan the first token as a key.
		start = 0
	} else {
		parsed.Command = tokens[0]
	}

	for _, token := range tokens[start:] {
		switch {
		case strings.Contains(token, "|"):
			// A repeated key group: every piece is key=value and the
			// pieces share one key name. The values are collected, in
			// order, under the name of the last piece.
			var (
				key    string
				values Sequence
			)

			for _, piece := range strings.Split(token, "|") {
				kv := strings.SplitN(piece, "=", 2)
				if len(kv) < 2 {
					continue
				}

				key = kv[0]
				values = append(values, Unescape(kv[1]))
			}

			if key != "" {
				parsed.Keys[key] = values
			}

		case strings.Contains(token, "="):
			kv := strings.SplitN(token, "=", 2)
			parsed.Keys[kv[0]] = Scalar(Unescape(kv[1]))

		case strings.HasPrefix(token, "-"):
			parsed.Opts = append(parsed.Opts, token[1:])

		default:
			// Malformed token, skip it.
		}
	}

	return parsed
}
