package precompute

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/metrics"
	"github.com/travigo/reachability/pkg/reachability"
	"github.com/travigo/reachability/pkg/schedule"
)

const QueueName = "reachability-precompute"

// Job is one origin of a plan as it travels through the queue.
type Job struct {
	Dataset      string
	Origin       string
	Windows      []string
	Budget       time.Duration
	MaxTransfers int
	Policy       aggregator.Policy
}

// Enqueue publishes one job per plan origin.
func Enqueue(queue rmq.Queue, plan Plan) error {
	if len(plan.Origins) == 0 {
		return ErrEmptyPlan
	}

	windows := []string{}
	for _, window := range plan.windows() {
		windows = append(windows, windowName(window))
	}

	for _, origin := range plan.Origins {
		jobJSON, err := json.Marshal(Job{
			Dataset:      plan.Dataset,
			Origin:       origin,
			Windows:      windows,
			Budget:       plan.Budget,
			MaxTransfers: plan.MaxTransfers,
			Policy:       plan.Policy,
		})
		if err != nil {
			return err
		}

		if err := queue.PublishBytes(jobJSON); err != nil {
			return err
		}
	}

	log.Info().Str("queue", QueueName).Int("jobs", len(plan.Origins)).Msg("Enqueued precompute jobs")

	return nil
}

func (j Job) plan() (Plan, error) {
	plan := Plan{
		Dataset:       j.Dataset,
		Origins:       []string{j.Origin},
		Budget:        j.Budget,
		MaxTransfers:  j.MaxTransfers,
		Policy:        j.Policy,
		MaxGoroutines: 1,
	}

	for _, value := range j.Windows {
		window, err := reachability.ParseWindow(value)
		if err != nil {
			return Plan{}, err
		}
		plan.Windows = append(plan.Windows, window)
	}

	return plan, nil
}

// BatchConsumer runs queued jobs against a loaded index and hands the records
// to Store.
type BatchConsumer struct {
	Index   *schedule.Index
	Metrics *metrics.Collector

	Store func(context.Context, []Record) error
}

func (c *BatchConsumer) Consume(batch rmq.Deliveries) {
	records := []Record{}
	processed := rmq.Deliveries{}

	for _, delivery := range batch {
		var job Job
		if err := json.Unmarshal([]byte(delivery.Payload()), &job); err != nil {
			log.Error().Err(err).Msg("Failed to decode precompute job")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject precompute job")
			}
			continue
		}

		jobRecords, err := c.run(job)
		if err != nil {
			log.Error().Err(err).Str("origin", job.Origin).Msg("Failed to run precompute job")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject precompute job")
			}
			continue
		}

		records = append(records, jobRecords...)
		processed = append(processed, delivery)
	}

	if len(records) > 0 {
		if err := c.Store(context.Background(), records); err != nil {
			log.Error().Err(err).Msg("Failed to store precompute records")
			if errs := processed.Reject(); len(errs) > 0 {
				log.Error().Int("count", len(errs)).Msg("Failed to reject precompute jobs")
			}
			return
		}
	}

	if errs := processed.Ack(); len(errs) > 0 {
		log.Error().Int("count", len(errs)).Msg("Failed to ack precompute jobs")
	}
}

// run computes a job's records. A job with any failed search yields nothing so
// a rejected job never leaves partial results behind.
func (c *BatchConsumer) run(job Job) ([]Record, error) {
	plan, err := job.plan()
	if err != nil {
		return nil, err
	}

	records, err := Run(c.Index, plan, c.Metrics)
	if err != nil {
		return nil, err
	}

	return records, nil
}
