package observability

import (
	"sync"
	"testing"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// without causing race conditions
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()

			metrics, err := NewMetrics()
			if err != nil {
				t.Errorf("NewMetrics failed: %v", err)
				return
			}

			if metrics == nil {
				t.Error("NewMetrics returned nil")
				return
			}

			// Verify all metric fields are initialized
			if metrics.registry == nil {
				t.Error("metrics.registry is nil")
			}
			if metrics.Selection == nil {
				t.Error("metrics.Selection is nil")
			}
			if metrics.Indexer == nil {
				t.Error("metrics.Indexer is nil")
			}
			if metrics.Extractor == nil {
				t.Error("metrics.Extractor is nil")
			}
			if metrics.Datastore == nil {
				t.Error("metrics.Datastore is nil")
			}
			if metrics.SunCalc == nil {
				t.Error("metrics.SunCalc is nil")
			}
		}()
	}

	wg.Wait()
}
