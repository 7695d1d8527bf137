package protocol

import "fmt"

// Record is the key set of one data line.
type Record map[string]Value

// Get returns the scalar value of a key, or "" when the key is absent
// or holds a Sequence.
func (r Record) Get(key string) string {
	if s, ok := r[key].(Scalar); ok {
		return string(s)
	}

	return ""
}

// Status is the terminal line of a request cycle.
type Status struct {
	// ID is the server result code. "0" denotes success.
	ID string

	// Msg is the human readable detail, already unescaped.
	Msg string

	// Keys holds every key of the status line, including id and msg.
	// Some commands attach extras such as failed_permid.
	Keys map[string]Value
}

// Response is everything the server sent back for one command: the
// data lines in receipt order, then the status line that terminated
// the cycle.
//
// A failed command is still a Response, not an error: a nonzero
// Status.ID arrives with empty Records and it is up to the caller to
// inspect it, typically via ErrorOrNil.
type Response struct {
	Records []Record
	Status  Status
}

// Ok reports whether the server answered with id=0.
func (r *Response) Ok() bool {
	return r.Status.ID == "0"
}

// ErrorOrNil returns a *ServerError if the response carries a nonzero
// status id. Otherwise it returns nil.
func (r *Response) ErrorOrNil() error {
	if r.Ok() {
		return nil
	}

	return &ServerError{ID: r.Status.ID, Msg: r.Status.Msg}
}

// ServerError is a failure reported on the status line of a request
// cycle.
type ServerError struct {
	ID  string
	Msg string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.ID, e.Msg)
}

// StatusFromLine builds a Status from a parsed status line.
func StatusFromLine(line Line) Status {
	return Status{
		ID:   line.Get("id"),
		Msg:  line.Get("msg"),
		Keys: line.Keys,
	}
}
