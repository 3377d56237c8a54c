package services

import (
	"github.com/sjperalta/ordino-api/internal/jobs"
)

type JobService struct {
	worker *jobs.Worker
}

func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{
		worker: worker,
	}
}

// GetStatus reports worker statistics
func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"finished_jobs":  stats.FinishedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
		"last_sweep_at":  stats.LastRunAt["intent_sweep"],
	}
}
