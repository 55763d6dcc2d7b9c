package dispatcher

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"
)

// maxLine bounds one request line; audio payloads arrive inline as data URLs.
const maxLine = 64 << 20

// Request is one line read by Serve.
type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response is one line written by Serve.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Serve reads JSON requests line by line from r and writes one JSON response per
// request to w, until r is exhausted or ctx is done. Handler errors become error
// responses; only read and write failures end the loop with an error.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	enc := json.NewEncoder(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(Response{Error: "malformed request: " + err.Error()}); err != nil {
				return err
			}
			continue
		}

		resp := Response{ID: req.ID, OK: true}
		result, err := d.Dispatch(ctx, Event{Command: req.Command, Args: req.Args, Timestamp: time.Now()})
		if err != nil {
			resp.OK = false
			resp.Error = err.Error()
		} else {
			resp.Result = result
		}

		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return sc.Err()
}
