package schedule

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

// Refresher re-runs the analysis pipeline on a cron schedule while the
// dashboard keeps serving. Only one refresh runs at a time; a tick that
// arrives mid-refresh is skipped.
type Refresher struct {
	cron    *cron.Cron
	running sync.Mutex
}

func NewRefresher() *Refresher {
	return &Refresher{cron: cron.New()}
}

// Add registers the refresh job under a standard 5-field cron spec.
func (r *Refresher) Add(spec string, job func() error) error {
	_, err := r.cron.AddFunc(spec, func() {
		if !r.running.TryLock() {
			utils.LogWarn("Skipping refresh: previous refresh still running", nil)
			return
		}
		defer r.running.Unlock()

		utils.LogInfo("⏰ Scheduled refresh starting", nil)
		if err := job(); err != nil {
			utils.LogError("Scheduled refresh failed", err, nil)
			return
		}
		utils.LogInfo("✅ Scheduled refresh complete", nil)
	})
	if err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	return nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

func (r *Refresher) Stop() {
	r.cron.Stop()
}
