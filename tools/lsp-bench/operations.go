package main

import (
	"fmt"
	"sort"
	"time"
)

// document is opened on the server and cajoled repeatedly
type document struct {
	URI        string
	LanguageID string
	Text       string
}

func benchmarkInitialization(client *LSPClient, rootURI string, pull bool) (OperationResult, error) {
	start := time.Now()
	if err := client.Initialize(rootURI, pull); err != nil {
		return OperationResult{}, err
	}
	elapsed := time.Since(start)

	return OperationResult{
		Name:       "initialize",
		AvgLatency: elapsed,
		MinLatency: elapsed,
		MaxLatency: elapsed,
		P50Latency: elapsed,
		P95Latency: elapsed,
		P99Latency: elapsed,
		Iterations: 1,
	}, nil
}

// benchmarkPull times textDocument/diagnostic requests for doc
func benchmarkPull(client *LSPClient, doc document, iterations int) (OperationResult, error) {
	latencies := make([]time.Duration, 0, iterations)
	for range iterations {
		start := time.Now()
		if _, err := client.Diagnostic(doc.URI); err != nil {
			return OperationResult{}, fmt.Errorf("%s: %w", doc.URI, err)
		}
		latencies = append(latencies, time.Since(start))
	}
	return computeStats("diagnostic/"+doc.LanguageID, latencies), nil
}

// benchmarkPush times from a full-document change to the diagnostics the
// server pushes for it
func benchmarkPush(client *LSPClient, doc document, iterations int) (OperationResult, error) {
	latencies := make([]time.Duration, 0, iterations)
	for i := range iterations {
		// Alternate the text so every change is a real edit
		text := doc.Text
		if i%2 == 0 {
			text += "\n"
		}
		start := time.Now()
		if err := client.DidChange(doc.URI, i+2, text); err != nil {
			return OperationResult{}, err
		}
		if _, err := client.WaitPublished(doc.URI); err != nil {
			return OperationResult{}, err
		}
		latencies = append(latencies, time.Since(start))
	}
	return computeStats("didChange/"+doc.LanguageID, latencies), nil
}

func computeStats(name string, latencies []time.Duration) OperationResult {
	if len(latencies) == 0 {
		return OperationResult{Name: name}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}

	return OperationResult{
		Name:       name,
		AvgLatency: sum / time.Duration(len(latencies)),
		MinLatency: sorted[0],
		MaxLatency: sorted[len(sorted)-1],
		P50Latency: sorted[len(sorted)*50/100],
		P95Latency: sorted[len(sorted)*95/100],
		P99Latency: sorted[len(sorted)*99/100],
		Iterations: len(latencies),
	}
}

func getMemoryStats(client *LSPClient, docs []document) MemoryStats {
	idle, _ := client.GetProcessMemory()

	for range 10 {
		for _, doc := range docs {
			_, _ = client.Diagnostic(doc.URI)
		}
	}

	underLoad, _ := client.GetProcessMemory()
	return MemoryStats{Idle: idle, UnderLoad: underLoad}
}
