package events

import (
	"context"
	"sync"
	"testing"
)

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Publish(context.Background(), TopicAuditVerdict, AuditVerdict{AccountID: "a"})
		}()
	}
	wg.Wait()
	if got := len(r.Events()); got != 20 {
		t.Errorf("recorded %d events, want 20", got)
	}
}
