package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobfill/internal/messaging"
)

// reconnectDelay is the retry hint sent to EventSource clients, in ms.
const reconnectDelay = 3000

var errStreamingUnsupported = errors.New("response writer cannot stream")

// eventStream writes bus messages to one SSE client. Each message becomes an
// event named after its type, with a per-stream sequence number as its id.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     uint64
}

// openEventStream sets the SSE headers and sends the reconnect hint.
func openEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	es := &eventStream{w: w, flusher: flusher}
	if _, err := fmt.Fprintf(w, "retry: %d\n\n", reconnectDelay); err != nil {
		return nil, err
	}
	flusher.Flush()
	return es, nil
}

// Send writes msg as one event.
func (es *eventStream) Send(msg messaging.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	es.seq++
	if _, err := fmt.Fprintf(es.w, "id: %d\nevent: %s\ndata: %s\n\n", es.seq, msg.Type, data); err != nil {
		return err
	}
	es.flusher.Flush()
	return nil
}

// Ping writes a comment line. Clients ignore it; proxies see traffic.
func (es *eventStream) Ping(text string) error {
	if _, err := fmt.Fprintf(es.w, ": %s\n\n", text); err != nil {
		return err
	}
	es.flusher.Flush()
	return nil
}

// Fail writes a terminal error event. Write errors are ignored since the
// stream is ending anyway.
func (es *eventStream) Fail(reason string) {
	data, _ := json.Marshal(map[string]string{"error": reason})
	_, _ = fmt.Fprintf(es.w, "event: error\ndata: %s\n\n", data)
	es.flusher.Flush()
}
