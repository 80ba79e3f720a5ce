package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_Preview(t *testing.T) {
	src := newMemorySource(
		contactHeaders,
		[]string{"Alice", "a@x.com", ""},
		[]string{"Bob", "b@x.com"},
	)
	svc := NewService(NewProcessor(src, newRecordingSender()), ServiceConfig{})

	p, err := svc.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(p.Headers) != 3 {
		t.Errorf("Headers = %v, want 3 headers", p.Headers)
	}
	if len(p.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(p.Data))
	}
	if got := p.Data[0][RowIndexKey]; got != 2 {
		t.Errorf("first %s = %v, want 2", RowIndexKey, got)
	}
	if got := p.Data[1]["是否自動回覆"]; got != "" {
		t.Errorf("absent cell = %v, want empty string", got)
	}
	if got := p.Data[1]["姓名"]; got != "Bob" {
		t.Errorf("name = %v, want Bob", got)
	}
}

func TestService_PreviewEmpty(t *testing.T) {
	svc := NewService(NewProcessor(newMemorySource(), newRecordingSender()), ServiceConfig{})

	p, err := svc.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if p.Headers == nil || p.Data == nil || len(p.Headers) != 0 || len(p.Data) != 0 {
		t.Errorf("Preview() = %+v, want empty non-nil slices", p)
	}
}

func TestService_PreviewReadError(t *testing.T) {
	src := newMemorySource()
	src.readErr = errors.New("unreachable")
	svc := NewService(NewProcessor(src, newRecordingSender()), ServiceConfig{})

	_, err := svc.Preview(context.Background())
	var re *ReadError
	if !errors.As(err, &re) {
		t.Errorf("Preview() error = %v, want ReadError", err)
	}
}

func TestService_ExecuteRemembersLastRun(t *testing.T) {
	src := newMemorySource(
		contactHeaders,
		[]string{"Alice", "a@x.com", ""},
	)
	svc := NewService(NewProcessor(src, newRecordingSender()), ServiceConfig{})

	if st := svc.Status(); st.Running || st.Last != nil {
		t.Errorf("initial Status = %+v, want idle with no last run", st)
	}

	ctx := ContextWithTrigger(context.Background(), TriggerHTTP)
	result, err := svc.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("Processed = %d, want 1", result.Processed)
	}

	st := svc.Status()
	if st.Running {
		t.Error("Status().Running = true after run")
	}
	if st.Last == nil || st.Last.Trigger != TriggerHTTP || st.Last.Result.Processed != 1 {
		t.Errorf("Status().Last = %+v, want http run with 1 processed", st.Last)
	}
}

func TestService_ExecuteRejectsOverlappingRun(t *testing.T) {
	src := newMemorySource(
		contactHeaders,
		[]string{"Alice", "a@x.com", ""},
	)
	sender := newRecordingSender()
	sender.block = make(chan struct{})
	svc := NewService(NewProcessor(src, sender), ServiceConfig{RunWait: -1})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background())
		done <- err
	}()

	// Wait for the first run to hold the guard.
	deadline := time.Now().Add(time.Second)
	for !svc.Status().Running {
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := svc.Execute(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("overlapping Execute() error = %v, want ErrRunInProgress", err)
	}

	close(sender.block)
	if err := <-done; err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if got := len(sender.sentTo()); got != 1 {
		t.Errorf("sends = %d, want 1", got)
	}
}

func TestService_ExecuteRecordsFailure(t *testing.T) {
	src := newMemorySource([]string{"姓名"}, []string{"Alice"})
	svc := NewService(NewProcessor(src, newRecordingSender()), ServiceConfig{})

	_, err := svc.Execute(context.Background())
	if err == nil {
		t.Fatal("Execute() error = nil, want MissingColumnError")
	}
	if st := svc.Status(); st.Last == nil || st.Last.Error == "" {
		t.Errorf("Status().Last = %+v, want recorded error", st.Last)
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ScheduleConfig
		wantErr bool
	}{
		{"disabled", ScheduleConfig{}, false},
		{"five field", ScheduleConfig{Spec: "*/15 * * * *"}, false},
		{"with seconds", ScheduleConfig{Spec: "0 0 9 * * *", Timezone: "UTC"}, false},
		{"descriptor", ScheduleConfig{Spec: "@hourly"}, false},
		{"bad spec", ScheduleConfig{Spec: "every minute"}, true},
		{"bad timezone", ScheduleConfig{Spec: "@daily", Timezone: "Mars/Olympus"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_StartSchedulerDisabled(t *testing.T) {
	svc := NewService(NewProcessor(newMemorySource(), newRecordingSender()), ServiceConfig{})

	done := make(chan error, 1)
	go func() {
		done <- svc.StartScheduler(context.Background(), ScheduleConfig{})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("StartScheduler() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Error("StartScheduler without a spec should return immediately")
	}
}

func TestService_ScheduledRun(t *testing.T) {
	src := newMemorySource(
		contactHeaders,
		[]string{"Alice", "a@x.com", ""},
	)
	sender := newRecordingSender()
	svc := NewService(NewProcessor(src, sender), ServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.StartScheduler(ctx, ScheduleConfig{Spec: "@every 1s"})
	}()

	deadline := time.Now().Add(3 * time.Second)
	for len(sender.sentTo()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("StartScheduler() error = %v", err)
	}
	if got := sender.sentTo(); len(got) != 1 {
		t.Fatalf("scheduled sends = %v, want one", got)
	}
	if st := svc.Status(); st.Last == nil || st.Last.Trigger != TriggerSchedule {
		t.Errorf("Status().Last = %+v, want schedule trigger", st.Last)
	}
}
