// Package httpx holds the JSON envelope every REST endpoint answers with.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

const maxBody = 1 << 20

var ErrBadJSON = errors.New("request body must be a JSON object")

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func JSON(w http.ResponseWriter, status int, msg string, data any) {
	write(w, status, Envelope{Success: true, Message: msg, Data: data})
}

func Error(w http.ResponseWriter, status int, msg string, details any) {
	write(w, status, Envelope{Success: false, Message: msg, Details: details})
}

// Decode reads one JSON document from the body into dst. An empty body
// decodes as {} so that optional-field requests need no payload.
func Decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return ErrBadJSON
	}
	if strings.TrimSpace(string(body)) == "" {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			return ErrBadJSON
		}
		return err
	}
	return nil
}
