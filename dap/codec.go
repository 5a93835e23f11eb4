package dap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed marks a framing or JSON error on a single inbound message.
// The read loop drops the message and keeps going; only I/O errors (EOF,
// closed connection) terminate the session.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string {
	return "malformed message: " + e.Reason
}

// ReadMessage reads one Content-Length framed message body. Header lines
// are CRLF-terminated ASCII; the body is exactly Content-Length raw bytes
// of UTF-8 JSON and is read as bytes, never line-split, so embedded
// newlines in string values survive.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, &ErrMalformed{Reason: "header line without colon: " + line}
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, &ErrMalformed{Reason: "bad Content-Length: " + strings.TrimSpace(value)}
			}
			contentLength = n
		}
		// Other headers (Content-Type) are ignored.
	}
	if contentLength < 0 {
		return nil, &ErrMalformed{Reason: "missing Content-Length header"}
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteMessage marshals msg and writes it with the Content-Length header.
func WriteMessage(w io.Writer, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// DecodeRequest parses a raw message body into a Request. A body that is
// valid JSON but not a request yields a nil Request and no error; the
// caller ignores it.
func DecodeRequest(body []byte) (*Request, error) {
	var probe Message
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, &ErrMalformed{Reason: "bad JSON: " + err.Error()}
	}
	if probe.Type != "request" {
		return nil, nil
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ErrMalformed{Reason: "bad request: " + err.Error()}
	}
	return &req, nil
}
