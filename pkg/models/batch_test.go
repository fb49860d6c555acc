package models

import "testing"

func TestBatch_Done(t *testing.T) {
	tests := []struct {
		name      string
		processed int
		total     int
		want      bool
	}{
		{"not started", 0, 10, false},
		{"partial", 5, 10, false},
		{"exact", 10, 10, true},
		{"zero total always done", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Batch{Processed: tt.processed, Total: tt.total}
			if got := b.Done(); got != tt.want {
				t.Errorf("Done() = %v, want %v", got, tt.want)
			}
		})
	}
}
