package storage

import "github.com/tidwall/gjson"

// Store holds the state of a simulated server instance as one JSON
// document: query credentials, virtual servers, whatever a handler
// wants to keep between commands.
type Store interface {
	Set(path string, value interface{}) error
	Get(path string) gjson.Result

	Restore(values []byte) error
	Backup() ([]byte, error)
}
