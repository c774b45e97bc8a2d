package documents_test

import (
	"sync"
	"testing"

	"bennypowers.dev/cajoler/internal/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_SetContent(t *testing.T) {
	t.Run("accepts newer and same versions", func(t *testing.T) {
		doc := documents.NewDocument("file:///a.css", "css", 1, "original")

		require.NoError(t, doc.SetContent("updated", 1))
		require.NoError(t, doc.SetContent("newer", 2))

		content, version := doc.Snapshot()
		assert.Equal(t, "newer", content)
		assert.Equal(t, 2, version)
	})

	t.Run("rejects stale update", func(t *testing.T) {
		doc := documents.NewDocument("file:///a.css", "css", 10, "original")

		err := doc.SetContent("stale", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "10")
		assert.Contains(t, err.Error(), "5")
		assert.Equal(t, "original", doc.Content())
		assert.Equal(t, 10, doc.Version())
	})
}

// TestDocument_Lines tests that split lines follow content updates
func TestDocument_Lines(t *testing.T) {
	doc := documents.NewDocument("file:///a.html", "html", 1, "<p>\nhi\n</p>")
	assert.Equal(t, []string{"<p>", "hi", "</p>"}, doc.Lines())

	require.NoError(t, doc.SetContent("one", 2))
	assert.Equal(t, []string{"one"}, doc.Lines())

	empty := documents.NewDocument("file:///b.html", "html", 1, "")
	assert.Equal(t, []string{""}, empty.Lines())
}

func TestDocument_ConcurrentAccess(t *testing.T) {
	doc := documents.NewDocument("file:///a.js", "javascript", 0, "")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = doc.SetContent("x\ny", i)
		}()
		go func() {
			defer wg.Done()
			_ = doc.Lines()
			_, _ = doc.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"x", "y"}, doc.Lines())
}
