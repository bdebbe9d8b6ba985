package service_test

import (
	"testing"
	"time"

	"taskflow/internal/service"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]service.Status{
		"todo":        service.StatusTodo,
		"Todo":        service.StatusTodo,
		"in progress": service.StatusInProgress,
		"In Progress": service.StatusInProgress,
		"in-progress": service.StatusInProgress,
		"inprogress":  service.StatusInProgress,
		" DONE ":      service.StatusDone,
	}
	for in, want := range cases {
		got, err := service.ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := service.ParseStatus("blocked"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParsePriority(t *testing.T) {
	got, err := service.ParsePriority("HIGH")
	if err != nil || got != service.PriorityHigh {
		t.Errorf("ParsePriority(HIGH) = %q, %v", got, err)
	}

	got, err = service.ParsePriority("")
	if err != nil || got != "" {
		t.Errorf("ParsePriority(\"\") = %q, %v", got, err)
	}

	if _, err := service.ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestTask_EffectivePriority(t *testing.T) {
	if p := (service.Task{}).EffectivePriority(); p != service.PriorityMedium {
		t.Errorf("expected Medium for absent priority, got %q", p)
	}
	if p := (service.Task{Priority: service.PriorityLow}).EffectivePriority(); p != service.PriorityLow {
		t.Errorf("expected Low, got %q", p)
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		task service.Task
		want bool
	}{
		{"no due date", service.Task{Status: service.StatusTodo}, false},
		{"past and open", service.Task{Status: service.StatusTodo, DueDate: &yesterday}, true},
		{"past and in progress", service.Task{Status: service.StatusInProgress, DueDate: &yesterday}, true},
		{"past but done", service.Task{Status: service.StatusDone, DueDate: &yesterday}, false},
		{"future", service.Task{Status: service.StatusTodo, DueDate: &tomorrow}, false},
		{"exactly now", service.Task{Status: service.StatusTodo, DueDate: &now}, false},
	}
	for _, tt := range tests {
		if got := tt.task.IsOverdue(now); got != tt.want {
			t.Errorf("%s: IsOverdue = %v, want %v", tt.name, got, tt.want)
		}
	}
}
