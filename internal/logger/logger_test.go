package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSetOutputRedirects(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Event(LevelInfo, "run finished", map[string]interface{}{"stage": "total"})
	if out := buf.String(); !strings.Contains(out, "run finished") || !strings.Contains(out, "stage=") || !strings.Contains(out, "total") {
		t.Errorf("output = %q, want the event with its fields", out)
	}
}

func TestSetOutputWhileLogging(t *testing.T) {
	var a, b syncBuffer
	defer SetOutput(os.Stdout)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					Infof("tick %d", i)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			SetOutput(&a)
		} else {
			SetOutput(&b)
		}
	}
	close(stop)
	wg.Wait()

	Info("after swaps")
	if !strings.Contains(b.String(), "after swaps") {
		t.Error("last SetOutput should receive later messages")
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		SetLevel(tt.in)
		if got := GetCurrentLevel(); got != tt.want {
			t.Errorf("SetLevel(%q) level = %v, want %v", tt.in, got, tt.want)
		}
	}
}
