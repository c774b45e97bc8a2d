package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// TestReadMessage tests the LSP header parsing logic
func TestReadMessage(t *testing.T) {
	body := `{"jsonrpc":"2.0"}`
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "CRLF", input: fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body), want: body},
		{name: "LF", input: fmt.Sprintf("Content-Length: %d\n\n%s", len(body), body), want: body},
		{name: "other headers first", input: fmt.Sprintf("Content-Type: application/json\r\nContent-Length: %d\r\n\r\n%s", len(body), body), want: body},
		{name: "case insensitive", input: fmt.Sprintf("content-length: %d\r\n\r\n%s", len(body), body), want: body},
		{name: "extra spaces", input: fmt.Sprintf("Content-Length:   %d  \r\n\r\n%s", len(body), body), want: body},
		{name: "no Content-Length", input: "Content-Type: application/json\r\n\r\n{}", wantErr: true},
		{name: "bad Content-Length", input: "Content-Length: many\r\n\r\n{}", wantErr: true},
		{name: "short body", input: "Content-Length: 100\r\n\r\n{}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadMessageSequence(t *testing.T) {
	a, b := `{"id":1}`, `{"id":2}`
	r := bufio.NewReader(strings.NewReader(
		fmt.Sprintf("Content-Length: %d\r\n\r\n%sContent-Length: %d\r\n\r\n%s", len(a), a, len(b), b)))
	for _, want := range []string{a, b} {
		got, err := readMessage(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := readMessage(r); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

// fakeServer answers every request with its handler's result and pushes
// whatever notifications the handler returns first.
type fakeServer struct {
	in  *bufio.Reader
	out io.Writer
}

func (s *fakeServer) send(t *testing.T, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func (s *fakeServer) serve(t *testing.T, handle func(method string, params json.RawMessage) (any, []any)) {
	for {
		content, err := readMessage(s.in)
		if err != nil {
			return
		}
		var req struct {
			ID     int             `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(content, &req); err != nil {
			t.Error(err)
			return
		}
		result, notifications := handle(req.Method, req.Params)
		for _, n := range notifications {
			s.send(t, n)
		}
		if req.ID != 0 {
			s.send(t, map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
		}
	}
}

func newPipedClient(t *testing.T, handle func(method string, params json.RawMessage) (any, []any)) *LSPClient {
	t.Helper()
	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()
	server := &fakeServer{in: bufio.NewReader(serverIn), out: serverOut}
	go server.serve(t, handle)

	client := newClient(clientOut, clientIn)
	go client.readMessages()
	t.Cleanup(func() {
		_ = clientOut.Close()
		_ = serverOut.Close()
	})
	return client
}

func TestDiagnosticPull(t *testing.T) {
	var methods []string
	client := newPipedClient(t, func(method string, _ json.RawMessage) (any, []any) {
		methods = append(methods, method)
		if method == "textDocument/diagnostic" {
			return map[string]any{"kind": "full", "items": []any{map[string]any{}, map[string]any{}}}, nil
		}
		return map[string]any{}, nil
	})

	if err := client.Initialize("file:///bench", true); err != nil {
		t.Fatal(err)
	}
	n, err := client.Diagnostic("file:///bench/a.css")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d diagnostics, want 2", n)
	}
	if got := strings.Join(methods, ","); got != "initialize,initialized,textDocument/diagnostic" {
		t.Errorf("unexpected method order %s", got)
	}
}

func TestPublishedDiagnostics(t *testing.T) {
	uri := "file:///bench/g.html"
	client := newPipedClient(t, func(method string, _ json.RawMessage) (any, []any) {
		if method != "textDocument/didChange" {
			return nil, nil
		}
		return nil, []any{map[string]any{
			"jsonrpc": "2.0",
			"method":  "textDocument/publishDiagnostics",
			"params":  map[string]any{"uri": uri, "diagnostics": []any{map[string]any{}}},
		}}
	})

	if err := client.DidChange(uri, 2, "<p>x</p>"); err != nil {
		t.Fatal(err)
	}
	n, err := client.WaitPublished(uri)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d diagnostics, want 1", n)
	}
}

func TestRequestIDsStartAtOne(t *testing.T) {
	client := newClient(nopWriteCloser{io.Discard}, strings.NewReader(""))
	if client.nextID != 1 {
		t.Errorf("first ID is %d, want 1", client.nextID)
	}
}

// TestNotificationHasNoID tests that notifications omit the id member
func TestNotificationHasNoID(t *testing.T) {
	data, err := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", Method: "initialized"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("notification has an id: %s", data)
	}
}

func TestComputeStats(t *testing.T) {
	var latencies []time.Duration
	for i := 100; i > 0; i-- {
		latencies = append(latencies, time.Duration(i)*time.Millisecond)
	}
	got := computeStats("op", latencies)
	if got.MinLatency != time.Millisecond || got.MaxLatency != 100*time.Millisecond {
		t.Errorf("min/max = %v/%v", got.MinLatency, got.MaxLatency)
	}
	if got.P50Latency != 51*time.Millisecond {
		t.Errorf("p50 = %v", got.P50Latency)
	}
	if got.AvgLatency != 50500*time.Microsecond {
		t.Errorf("avg = %v", got.AvgLatency)
	}
	if got.Iterations != 100 {
		t.Errorf("iterations = %d", got.Iterations)
	}

	if empty := computeStats("none", nil); empty.Iterations != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
