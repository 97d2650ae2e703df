package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name   string
		opName string
		now    time.Time
		wantID string
	}{
		{
			name:   "utc time",
			opName: "AddRecipe",
			now:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantID: "20240115T103000Z",
		},
		{
			name:   "local time normalized",
			opName: "Login",
			now:    time.Date(2024, 1, 15, 12, 30, 5, 0, time.FixedZone("CEST", 2*60*60)),
			wantID: "20240115T103005Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.opName, tt.now)

			if op.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", op.ID, tt.wantID)
			}
			if op.Name != tt.opName {
				t.Errorf("Name = %q, want %q", op.Name, tt.opName)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.Failed() {
				t.Error("Failed() = true for a new operation")
			}
		})
	}
}

func TestOperation_Track(t *testing.T) {
	tests := []struct {
		name string
		errs []error
		want bool
	}{
		{name: "no errors", errs: []error{nil, nil}, want: false},
		{name: "one error", errs: []error{nil, errors.New("boom")}, want: true},
		{name: "error then success stays failed", errs: []error{errors.New("boom"), nil}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("Test", time.Now())
			for _, err := range tt.errs {
				if got := op.Track(err); got != err {
					t.Errorf("Track() = %v, want %v", got, err)
				}
			}
			if got := op.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
