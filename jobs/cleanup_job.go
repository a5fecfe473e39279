package jobs

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"handyconnect-server/logger"
)

// Sweeper evicts idle entries and reports how many it removed.
type Sweeper interface {
	Cleanup() int
}

// CleanupJob periodically sweeps idle rate limiter state.
type CleanupJob struct {
	sweeper  Sweeper
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(sweeper Sweeper, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup job
func (j *CleanupJob) Start() {
	go j.run()
	logger.Info("🚀 Cleanup job started", zap.Duration("interval", j.interval))
}

// Stop stops the job and waits for the loop to exit. It is safe to call more
// than once.
func (j *CleanupJob) Stop() {
	j.once.Do(func() {
		close(j.stopChan)
		<-j.done
		logger.Info("🛑 Cleanup job stopped")
	})
}

func (j *CleanupJob) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			return
		}
	}
}

func (j *CleanupJob) sweep() {
	if evicted := j.sweeper.Cleanup(); evicted > 0 {
		logger.Info("🧹 Evicted idle rate limiters", zap.Int("count", evicted))
	}
}
