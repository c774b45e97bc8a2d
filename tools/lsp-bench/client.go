package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const requestTimeout = 10 * time.Second

// LSPClient drives a language server over its stdio
type LSPClient struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	reader    *bufio.Reader
	writeMu   sync.Mutex
	mu        sync.Mutex
	responses map[int]chan jsonrpcResponse
	published map[string]chan int
	nextID    int
	ctx       context.Context
	cancel    context.CancelFunc
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonrpcMessage is anything the server sends: responses, notifications
// and requests of its own.
type jsonrpcMessage struct {
	ID     *json.RawMessage `json:"id,omitempty"`
	Method string           `json:"method,omitempty"`
	Params json.RawMessage  `json:"params,omitempty"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcResponse struct {
	Result json.RawMessage
	Error  *jsonrpcError
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonrpcError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewLSPClient starts serverCmd and reads its messages in the background
func NewLSPClient(serverCmd string) (*LSPClient, error) {
	parts := strings.Fields(serverCmd)
	if len(parts) == 0 {
		return nil, errors.New("empty server command")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: the command is the benchmark's subject
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	client := newClient(stdin, stdout)
	client.cmd = cmd
	client.ctx, client.cancel = ctx, cancel
	go client.readMessages()
	return client, nil
}

func newClient(w io.WriteCloser, r io.Reader) *LSPClient {
	return &LSPClient{
		stdin:     w,
		reader:    bufio.NewReader(r),
		responses: make(map[int]chan jsonrpcResponse),
		published: make(map[string]chan int),
		nextID:    1,
	}
}

// readMessage reads one framed message. Header names are case
// insensitive and headers other than Content-Length are ignored.
func readMessage(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("bad Content-Length %q: %w", value, err)
		}
		length = n
	}
	if length < 0 {
		return nil, errors.New("message without Content-Length")
	}
	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (c *LSPClient) readMessages() {
	for {
		content, err := readMessage(c.reader)
		if err != nil {
			return
		}
		var msg jsonrpcMessage
		if err := json.Unmarshal(content, &msg); err != nil {
			continue
		}
		c.dispatch(msg)
	}
}

func (c *LSPClient) dispatch(msg jsonrpcMessage) {
	switch {
	case msg.Method == "textDocument/publishDiagnostics":
		var params struct {
			URI         string            `json:"uri"`
			Diagnostics []json.RawMessage `json:"diagnostics"`
		}
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return
		}
		select {
		case c.publishedChan(params.URI) <- len(params.Diagnostics):
		default:
			// Nobody is waiting for this many publications
		}

	case msg.Method != "":
		// Notifications and requests from the server go unanswered

	case msg.ID != nil:
		var id int
		if err := json.Unmarshal(*msg.ID, &id); err != nil {
			return
		}
		c.mu.Lock()
		ch, ok := c.responses[id]
		delete(c.responses, id)
		c.mu.Unlock()
		if ok {
			ch <- jsonrpcResponse{Result: msg.Result, Error: msg.Error}
		}
	}
}

func (c *LSPClient) publishedChan(uri string) chan int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.published[uri]
	if !ok {
		ch = make(chan int, 64)
		c.published[uri] = ch
	}
	return ch
}

func (c *LSPClient) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(data))
	buf.Write(data)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.stdin.Write(buf.Bytes())
	return err
}

func (c *LSPClient) call(method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan jsonrpcResponse, 1)
	c.responses[id] = ch
	c.mu.Unlock()

	if err := c.write(jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-time.After(requestTimeout):
		c.mu.Lock()
		delete(c.responses, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("timeout waiting for %s", method)
	}
}

func (c *LSPClient) notify(method string, params any) error {
	return c.write(jsonrpcRequest{JSONRPC: "2.0", Method: method, Params: params})
}

// Initialize performs the initialize handshake. With pull set the client
// declares textDocument/diagnostic support.
func (c *LSPClient) Initialize(rootURI string, pull bool) error {
	textDocument := map[string]any{
		"synchronization": map[string]any{"didSave": false},
	}
	if pull {
		textDocument["diagnostic"] = map[string]any{"dynamicRegistration": false}
	}
	params := map[string]any{
		"processId":    nil,
		"rootUri":      rootURI,
		"capabilities": map[string]any{"textDocument": textDocument},
	}
	if _, err := c.call("initialize", params); err != nil {
		return err
	}
	return c.notify("initialized", map[string]any{})
}

// DidOpen sends a textDocument/didOpen notification
func (c *LSPClient) DidOpen(uri, languageID, text string) error {
	return c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

// DidChange replaces the whole document
func (c *LSPClient) DidChange(uri string, version int, text string) error {
	return c.notify("textDocument/didChange", map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": version},
		"contentChanges": []map[string]any{{"text": text}},
	})
}

// WaitPublished waits for the next diagnostics pushed for uri and returns
// how many there were.
func (c *LSPClient) WaitPublished(uri string) (int, error) {
	select {
	case n := <-c.publishedChan(uri):
		return n, nil
	case <-time.After(requestTimeout):
		return 0, fmt.Errorf("timeout waiting for diagnostics of %s", uri)
	}
}

// Diagnostic pulls diagnostics for uri and returns how many there were.
func (c *LSPClient) Diagnostic(uri string) (int, error) {
	result, err := c.call("textDocument/diagnostic", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
	if err != nil {
		return 0, err
	}
	var report struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(result, &report); err != nil {
		return 0, err
	}
	return len(report.Items), nil
}

// Close asks the server to shut down and waits for it to exit
func (c *LSPClient) Close() error {
	_, _ = c.call("shutdown", nil)
	_ = c.notify("exit", nil)
	_ = c.stdin.Close()
	if c.cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(requestTimeout):
		c.cancel()
		return <-done
	}
}

// GetProcessMemory reads the server's resident set size (Linux only)
func (c *LSPClient) GetProcessMemory() (uint64, error) {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0, errors.New("process not started")
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", c.cmd.Process.Pid))
	if err != nil {
		return 0, err
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if !bytes.HasPrefix(line, []byte("VmRSS:")) {
			continue
		}
		var size uint64
		var unit string
		if _, err := fmt.Sscanf(string(line), "VmRSS: %d %s", &size, &unit); err != nil {
			return 0, err
		}
		if unit == "kB" {
			size *= 1024
		}
		return size, nil
	}
	return 0, errors.New("could not parse memory usage")
}
