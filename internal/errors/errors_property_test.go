//go:build property

package errors

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestErrorCollectorProperties validates error collection and aggregation properties
func TestErrorCollectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: concurrent Add calls lose no failure
	properties.Property("concurrent error addition is thread-safe", prop.ForAll(
		func(goroutineCount int, errorsPerGoroutine int) bool {
			collector := NewErrorCollector()

			var wg sync.WaitGroup
			for g := 0; g < goroutineCount; g++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for i := 0; i < errorsPerGoroutine; i++ {
						collector.Add(fmt.Sprintf("step %d/%d", id, i), fmt.Errorf("failure %d", i))
					}
				}(g)
			}
			wg.Wait()

			return len(collector.Failures()) == goroutineCount*errorsPerGoroutine
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 50),
	))

	// Property: the joined error names every step in order
	properties.Property("joined error lists every step", prop.ForAll(
		func(steps []string) bool {
			collector := NewErrorCollector()
			for _, step := range steps {
				collector.Add(step, ErrStreamConflict(step))
			}

			err := collector.Err()
			if len(steps) == 0 {
				return err == nil
			}

			lines := strings.Split(err.Error(), "\n")
			if len(lines) != len(steps) {
				return false
			}
			for i, step := range steps {
				if !strings.HasPrefix(lines[i], step+": ") {
					return false
				}
			}
			return IsConflict(err)
		},
		gen.SliceOf(gen.RegexMatch(`^[A-Za-z]{1,12}$`)),
	))

	// Property: Wrap keeps the location context of an inner error
	properties.Property("wrap preserves context", prop.ForAll(
		func(template, file string) bool {
			inner := ErrInvalidPath(template).WithFile(file)
			outer := WrapIO(inner, ErrCodeWriteFailed, "failed")
			return outer.Template == template && outer.FilePath == file && IsContract(outer.Cause)
		},
		gen.RegexMatch(`^[a-z]{1,10}$`),
		gen.RegexMatch(`^[a-z]{1,10}\.html$`),
	))

	properties.TestingRun(t)
}
