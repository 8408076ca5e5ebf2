package schedule

import "testing"

func TestAddInvalidSpec(t *testing.T) {
	r := NewRefresher()
	if err := r.Add("not a cron spec", func() error { return nil }); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestAddValidSpec(t *testing.T) {
	r := NewRefresher()
	if err := r.Add("*/5 * * * *", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	r.Start()
	r.Stop()
}
