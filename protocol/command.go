package protocol

import (
	"strconv"
	"strings"
)

// Value is a command parameter value. It is either a single Scalar or
// a Sequence, the ordered values of a repeated `key=value|key=value`
// group.
type Value interface {
	isValue()
}

// Scalar is a plain single-valued parameter.
type Scalar string

func (Scalar) isValue() {}

// Sequence holds the values of a repeated key group. On the wire the
// group is rendered as `key=v1|key=v2|...` inside one token.
type Sequence []string

func (Sequence) isValue() {}

// Int renders an integer parameter. Decimal digits never need
// escaping.
func Int(n int) Scalar {
	return Scalar(strconv.Itoa(n))
}

var (
	_ Value = Scalar("")
	_ Value = Sequence(nil)
)

// KeyValue is one named command parameter. Commands carry their
// parameters as a slice because the wire order is significant.
type KeyValue struct {
	Key   string
	Value Value
}

// Command is an outbound client instruction. It is built immediately
// before transmission and never reused.
type Command struct {
	Name string
	Keys []KeyValue
	Opts []string
}

// Encode serialises the command into one wire line, without the
// trailing newline.
//
// Each parameter becomes a `key=<escaped value>` token, a Sequence
// becomes its pieces joined by `|`, and every opt becomes a `-opt`
// token. Tokens are joined by single spaces. An empty Sequence yields
// an empty token; degenerate input is encoded as-is rather than
// rejected.
func (c Command) Encode() string {
	tokens := make([]string, 0, 1+len(c.Keys)+len(c.Opts))
	tokens = append(tokens, c.Name)

	for _, kv := range c.Keys {
		switch v := kv.Value.(type) {
		case Sequence:
			pieces := make([]string, 0, len(v))
			for _, el := range v {
				pieces = append(pieces, kv.Key+"="+Escape(el))
			}
			tokens = append(tokens, strings.Join(pieces, "|"))

		case Scalar:
			tokens = append(tokens, kv.Key+"="+Escape(string(v)))
		}
	}

	for _, opt := range c.Opts {
		tokens = append(tokens, "-"+opt)
	}

	return strings.Join(tokens, " ")
}
