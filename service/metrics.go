package service

import (
	"sync"
	"time"

	"ballot-backend/models"
)

// MetricsCollector tracks submission outcomes and the time spent in the two
// expensive steps, key derivation and the store write.
type MetricsCollector struct {
	mu sync.RWMutex

	firstSubmission time.Time
	lastSubmission  time.Time
	submissionCount int
	acceptedCount   int
	aborted         map[models.AbortReason]int

	derivationStartTime time.Time
	derivationEndTime   time.Time
	derivationCount     int
	derivationTotalTime time.Duration

	storeStartTime time.Time
	storeEndTime   time.Time
	storeCount     int
	storeTotalTime time.Duration
}

// OperationMetrics contains timing information for an operation
type OperationMetrics struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Count          int       `json:"count"`
	ProcessingTime int64     `json:"processing_time_ms"`
}

// SubmissionMetrics counts submissions by how they ended.
type SubmissionMetrics struct {
	FirstSubmission time.Time      `json:"first_submission"`
	LastSubmission  time.Time      `json:"last_submission"`
	Total           int            `json:"total"`
	Accepted        int            `json:"accepted"`
	Aborted         map[string]int `json:"aborted"`
}

// MetricsResponse is the snapshot served on the metrics endpoint.
type MetricsResponse struct {
	Submissions SubmissionMetrics `json:"submissions"`
	Derivation  OperationMetrics  `json:"derivation"`
	Store       OperationMetrics  `json:"store"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{aborted: make(map[models.AbortReason]int)}
}

// RecordSubmissionStart counts a submission entering the pipeline.
func (mc *MetricsCollector) RecordSubmissionStart() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.submissionCount == 0 {
		mc.firstSubmission = now
	}
	mc.lastSubmission = now
	mc.submissionCount++
}

// RecordAccepted counts a submission that reached the store.
func (mc *MetricsCollector) RecordAccepted() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.acceptedCount++
}

// RecordAborted counts a submission that ended with reason.
func (mc *MetricsCollector) RecordAborted(reason models.AbortReason) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.aborted[reason]++
}

// RecordDerivation adds one key derivation, including its queue wait.
func (mc *MetricsCollector) RecordDerivation(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.derivationCount == 0 {
		mc.derivationStartTime = now.Add(-duration)
	}
	mc.derivationEndTime = now
	mc.derivationCount++
	mc.derivationTotalTime += duration
}

// RecordStoreWrite adds one store put, successful or not.
func (mc *MetricsCollector) RecordStoreWrite(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.storeCount == 0 {
		mc.storeStartTime = now.Add(-duration)
	}
	mc.storeEndTime = now
	mc.storeCount++
	mc.storeTotalTime += duration
}

// GetMetrics returns current metrics for all operations
func (mc *MetricsCollector) GetMetrics() MetricsResponse {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	aborted := make(map[string]int, len(mc.aborted))
	for reason, n := range mc.aborted {
		aborted[string(reason)] = n
	}

	return MetricsResponse{
		Submissions: SubmissionMetrics{
			FirstSubmission: mc.firstSubmission,
			LastSubmission:  mc.lastSubmission,
			Total:           mc.submissionCount,
			Accepted:        mc.acceptedCount,
			Aborted:         aborted,
		},
		Derivation: OperationMetrics{
			StartTime:      mc.derivationStartTime,
			EndTime:        mc.derivationEndTime,
			Count:          mc.derivationCount,
			ProcessingTime: mc.derivationTotalTime.Milliseconds(),
		},
		Store: OperationMetrics{
			StartTime:      mc.storeStartTime,
			EndTime:        mc.storeEndTime,
			Count:          mc.storeCount,
			ProcessingTime: mc.storeTotalTime.Milliseconds(),
		},
	}
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.firstSubmission = time.Time{}
	mc.lastSubmission = time.Time{}
	mc.submissionCount = 0
	mc.acceptedCount = 0
	mc.aborted = make(map[models.AbortReason]int)

	mc.derivationStartTime = time.Time{}
	mc.derivationEndTime = time.Time{}
	mc.derivationCount = 0
	mc.derivationTotalTime = 0

	mc.storeStartTime = time.Time{}
	mc.storeEndTime = time.Time{}
	mc.storeCount = 0
	mc.storeTotalTime = 0
}
