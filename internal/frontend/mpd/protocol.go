package mpd

import (
	"errors"
	"fmt"
	"strings"
)

// ACK error codes.
const (
	ackNotList    = 1
	ackArg        = 2
	ackUnknown    = 5
	ackNoExist    = 50
	ackSystem     = 52
	ackPlayerSync = 55
)

// ackError is a failed command, rendered as an ACK line.
type ackError struct {
	code    int
	index   int
	command string
	message string
}

func (e *ackError) Error() string {
	return fmt.Sprintf("ACK [%d@%d] {%s} %s", e.code, e.index, e.command, e.message)
}

func ack(code int, command, format string, args ...interface{}) *ackError {
	return &ackError{code: code, command: command, message: fmt.Sprintf(format, args...)}
}

var errUnterminatedQuote = errors.New("unterminated quoted argument")

// splitArgs tokenises a request line. Arguments are separated by spaces
// and may be double-quoted, with backslash escaping inside quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args []string
		cur  strings.Builder
		in   bool
		quot bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quot && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			if quot {
				args = append(args, cur.String())
				cur.Reset()
				in, quot = false, false
			} else if !in {
				in, quot = true, true
			} else {
				cur.WriteByte(c)
			}
		case !quot && (c == ' ' || c == '\t'):
			if in {
				args = append(args, cur.String())
				cur.Reset()
				in = false
			}
		default:
			in = true
			cur.WriteByte(c)
		}
	}

	if quot {
		return nil, errUnterminatedQuote
	}
	if in {
		args = append(args, cur.String())
	}
	return args, nil
}

// response accumulates "key: value" lines.
type response struct {
	b strings.Builder
}

func (r *response) add(key string, value interface{}) {
	fmt.Fprintf(&r.b, "%s: %v\n", key, value)
}

func (r *response) String() string {
	return r.b.String()
}
