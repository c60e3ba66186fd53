package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu           sync.Mutex
	incrementErr error
	increments   int
	prompt       int
	completion   int
	logs         []string
}

func (f *fakeRecorder) IncrementDay(_ context.Context, day string, promptTokens, completionTokens int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments++
	f.prompt += promptTokens
	f.completion += completionTokens
	return nil
}

func (f *fakeRecorder) AppendLog(_ context.Context, day string, employeeID int64, intent string, promptTokens, completionTokens *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, intent)
	return nil
}

func TestRecordAccumulatesTokens(t *testing.T) {
	recorder := &fakeRecorder{}
	service := NewService(recorder)

	pt, ct := 100, 20
	service.Record(context.Background(), 7, "applyLeave", &pt, &ct)
	service.Record(context.Background(), 7, "chat", nil, nil)

	assert.Equal(t, 2, recorder.increments)
	assert.Equal(t, 100, recorder.prompt)
	assert.Equal(t, 20, recorder.completion)
	assert.Equal(t, []string{"applyLeave", "chat"}, recorder.logs)
}

func TestRecordSwallowsRecorderFailure(t *testing.T) {
	recorder := &fakeRecorder{incrementErr: errors.New("db down")}
	service := NewService(recorder)

	// Must not panic and must not append a log entry for a failed increment.
	service.Record(context.Background(), 7, "chat", nil, nil)
	assert.Empty(t, recorder.logs)
}

func TestRecordConcurrentIncrements(t *testing.T) {
	recorder := &fakeRecorder{}
	service := NewService(recorder)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pt := 1
			service.Record(ctx, 7, "chat", &pt, nil)
		}()
	}
	wg.Wait()

	require.Equal(t, 100, recorder.increments, "no increment may be lost")
	assert.Equal(t, 100, recorder.prompt)
}
