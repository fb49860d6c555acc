package broadcast

import (
	"testing"
	"time"
)

func TestHub_PublishDeliversToSubscribersOfSameQueue(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, unsubscribe := h.Subscribe("geocoding")
	defer unsubscribe()

	h.JobEvent("completed", "geocoding", "rec-1", "stage finished", nil)

	select {
	case msg := <-ch:
		if msg.Queue != "geocoding" || msg.JobID != "rec-1" {
			t.Errorf("got %+v, want queue=geocoding jobId=rec-1", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestHub_PublishDoesNotCrossQueues(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, unsubscribe := h.Subscribe("places")
	defer unsubscribe()

	h.JobEvent("completed", "analysis", "rec-2", "stage finished", nil)

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message on unrelated queue subscriber: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, unsubscribe := h.Subscribe("analyst")
	unsubscribe()

	_, open := <-ch
	if open {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestHub_PublishToFullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, unsubscribe := h.Subscribe("doc_lookup")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			h.JobEvent("active", "doc_lookup", "rec-x", "progress", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel instead of dropping")
	}
}

func TestHub_BatchSummaryCarriesCounts(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, unsubscribe := h.Subscribe("normalization")
	defer unsubscribe()

	h.BatchSummary("normalization", "batch-7", 10, 8, 2)

	select {
	case msg := <-ch:
		if msg.Type != "batch_summary" {
			t.Errorf("Type = %q, want batch_summary", msg.Type)
		}
		if msg.Details["total"] != 10 || msg.Details["success"] != 8 || msg.Details["failed"] != 2 {
			t.Errorf("Details = %+v", msg.Details)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for batch summary")
	}
}
