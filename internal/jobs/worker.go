package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor defines the interface for processing background work. The
// index synchronizer implements it to keep the curated vector index in
// step with the knowledge store.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor at a fixed interval
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("index worker started with poll interval: %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("index worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("index worker stopped: stop signal received")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("index worker: %v", err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("index worker shutdown complete")
}
