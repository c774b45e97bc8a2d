// Command lsp-bench measures how long the cajoler language server takes to
// report diagnostics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

type BenchmarkResults struct {
	Timestamp   time.Time         `json:"timestamp"`
	Server      string            `json:"server"`
	Mode        string            `json:"mode"`
	Iterations  int               `json:"iterations"`
	Operations  []OperationResult `json:"operations"`
	MemoryUsage MemoryStats       `json:"memory_usage"`
}

type OperationResult struct {
	Name       string        `json:"name"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MinLatency time.Duration `json:"min_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
	P50Latency time.Duration `json:"p50_latency_ns"`
	P95Latency time.Duration `json:"p95_latency_ns"`
	P99Latency time.Duration `json:"p99_latency_ns"`
	Iterations int           `json:"iterations"`
}

type MemoryStats struct {
	Idle      uint64 `json:"idle_bytes"`
	UnderLoad uint64 `json:"under_load_bytes"`
}

var documents = []document{
	{
		URI:        "file:///bench/gadget.html",
		LanguageID: "html",
		Text: `<base href="http://example.com/gadget/">
<style>p.note { color: red; background: url(bg.png) }</style>
<div id="main" class="box" style="margin: 0 auto; width: 50%">
  <a href="next.html" target="_top" onclick="go(this); return false">next</a>
  <form name="f" onsubmit="send()"><input name="q" value="x"></form>
  <iframe src="ads.html"></iframe>
</div>
<script>
  var total = 1 + 2 * 3;
  function go(el) { el.title = "went " + total; }
</script>
`,
	},
	{
		URI:        "file:///bench/style.css",
		LanguageID: "css",
		Text: `@import url(reset.css);
body { font: 12px/1.5 "Helvetica Neue", sans-serif; color: #333 }
#main > .box:hover a[href] { text-decoration: underline; behavior: url(x.htc) }
@media print { .box { display: none } }
p { frobnicate: 1; width: expression(alert(1)) }
`,
	},
	{
		URI:        "file:///bench/app.js",
		LanguageID: "javascript",
		Text: `var seconds = 60 * 60 * 24;
var label = "a" + "b" + seconds;
function tick(n) { return n > 0 ? tick(n - 1) : -(-1) }
for (var i = 0; i < 10; i++) { tick(i * 2 + 1) }
`,
	},
}

func main() {
	serverCmd := flag.String("server", "cajole lsp", "Server command to benchmark")
	iterations := flag.Int("iterations", 100, "Number of iterations per operation")
	mode := flag.String("mode", "pull", "Diagnostic model to benchmark (pull or push)")
	outputFile := flag.String("output", "benchmark-results.json", "Output file for results")
	flag.Parse()

	if *mode != "pull" && *mode != "push" {
		fmt.Fprintf(os.Stderr, "Error: --mode must be pull or push\n")
		flag.Usage()
		os.Exit(1)
	}

	fmt.Printf("LSP Benchmark Harness\n")
	fmt.Printf("Server: %s\n", *serverCmd)
	fmt.Printf("Mode: %s\n", *mode)
	fmt.Printf("Iterations: %d\n\n", *iterations)

	results, err := run(*serverCmd, *mode == "pull", *iterations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
	results.Mode = *mode

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputFile, data, 0o644); err != nil { //nolint:gosec // G306: results are not secret
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nResults saved to %s\n", *outputFile)
	printSummary(results)
}

func run(serverCmd string, pull bool, iterations int) (BenchmarkResults, error) {
	client, err := NewLSPClient(serverCmd)
	if err != nil {
		return BenchmarkResults{}, fmt.Errorf("failed to start LSP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	results := BenchmarkResults{
		Timestamp:  time.Now(),
		Server:     serverCmd,
		Iterations: iterations,
	}

	fmt.Printf("Benchmarking initialization...\n")
	initResult, err := benchmarkInitialization(client, "file:///bench", pull)
	if err != nil {
		return results, err
	}
	results.Operations = append(results.Operations, initResult)

	for _, doc := range documents {
		if err := client.DidOpen(doc.URI, doc.LanguageID, doc.Text); err != nil {
			return results, fmt.Errorf("failed to open %s: %w", doc.URI, err)
		}
		if !pull {
			if _, err := client.WaitPublished(doc.URI); err != nil {
				return results, err
			}
		}
	}

	for _, doc := range documents {
		fmt.Printf("Benchmarking %s (%d iterations)...\n", doc.URI, iterations)
		var result OperationResult
		if pull {
			result, err = benchmarkPull(client, doc, iterations)
		} else {
			result, err = benchmarkPush(client, doc, iterations)
		}
		if err != nil {
			return results, err
		}
		results.Operations = append(results.Operations, result)
		fmt.Printf("   Avg: %v, P95: %v, P99: %v\n", result.AvgLatency, result.P95Latency, result.P99Latency)
	}

	if pull {
		results.MemoryUsage = getMemoryStats(client, documents)
	}
	return results, nil
}

func printSummary(results BenchmarkResults) {
	fmt.Printf("\nSummary\n")
	fmt.Printf("==================\n")
	for _, op := range results.Operations {
		fmt.Printf("%-24s: avg=%10v  p95=%10v  p99=%10v\n",
			op.Name,
			op.AvgLatency,
			op.P95Latency,
			op.P99Latency,
		)
	}
	if results.MemoryUsage.Idle > 0 {
		fmt.Printf("\nMemory Usage:\n")
		fmt.Printf("  Idle:       %d bytes (%.2f MB)\n", results.MemoryUsage.Idle, float64(results.MemoryUsage.Idle)/1024/1024)
		fmt.Printf("  Under Load: %d bytes (%.2f MB)\n", results.MemoryUsage.UnderLoad, float64(results.MemoryUsage.UnderLoad)/1024/1024)
	}
}
