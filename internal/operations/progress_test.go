package operations_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/derrrr/xscript-log-stat/internal/operations"
)

func TestProgressTracker_Increment(t *testing.T) {
	var out bytes.Buffer
	tracker := operations.NewProgressTracker("normalize", 2, &out)

	tracker.Increment("20240101_A.csv (UTF-8)")
	done, total := tracker.Done()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)
	assert.Equal(t, "20240101_A.csv (UTF-8)", tracker.Last())
	assert.False(t, tracker.Complete())

	tracker.Increment("20240102_B.csv (Big5)")
	assert.True(t, tracker.Complete())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"[1/2] 20240101_A.csv (UTF-8)",
		"  [2/2] 20240102_B.csv (Big5)",
	}, lines)
	assert.True(t, strings.HasPrefix(tracker.Summary(), "normalize: 2/2 in "))
}

func TestProgressTracker_PadsCounter(t *testing.T) {
	var out bytes.Buffer
	tracker := operations.NewProgressTracker("normalize", 12, &out)

	tracker.Increment("20240101_A.csv (UTF-8)")
	assert.Equal(t, "  [ 1/12] 20240101_A.csv (UTF-8)\n", out.String())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := operations.NewProgressTracker("parse", 1, nil)
	assert.NotPanics(t, func() { tracker.Increment("quiet") })
	assert.True(t, tracker.Complete())
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	tracker := operations.NewProgressTracker("parse", 0, nil)
	assert.True(t, tracker.Complete())
	assert.Empty(t, tracker.Last())
}

func TestProgressTracker_Concurrent(t *testing.T) {
	var out bytes.Buffer
	tracker := operations.NewProgressTracker("normalize", 50, &out)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Increment(fmt.Sprintf("file %d", i))
		}(i)
	}
	wg.Wait()

	done, _ := tracker.Done()
	assert.Equal(t, 50, done)
	assert.Equal(t, 50, strings.Count(out.String(), "\n"))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5 seconds"},
		{90 * time.Second, "1.5 minutes"},
		{90 * time.Minute, "1.5 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, operations.FormatElapsed(tt.d))
	}
}
