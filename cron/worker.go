package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"innkeep/config"
	"innkeep/models"
	"innkeep/services/booking"
	"innkeep/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const sweepInterval = 1 * time.Hour

// InitNoShowWorker runs the async worker in background and schedules the
// recurring no-show sweep. Bookings still pending past their check-in date
// get flagged and their reserved nights released back to the pool.
func InitNoShowWorker(reservations booking.ReservationService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNoShowSweep, handleNoShowSweep(reservations))

	go monitorRedisConnection(redisOpts)
	go enqueueSweeps(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[NoShowWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NoShowWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NoShowWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleNoShowSweep(reservations booking.ReservationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.NoShowSweepPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[NoShowSweep] invalid payload: %v", err)
			return err
		}

		flagged, err := reservations.MarkNoShows(ctx, p.Before)
		if err != nil {
			log.Printf("[NoShowSweep] sweep failed: %v", err)
			return err
		}
		if flagged > 0 {
			log.Printf("[NoShowSweep] flagged %d no-show bookings before %s", flagged, p.Before.Format(time.RFC3339))
		}
		return nil
	}
}

// enqueueSweeps queues one sweep per interval. The task type plus cutoff keep
// redelivery idempotent: a re-run sweep finds nothing left to flag.
func enqueueSweeps(redisOpts asynq.RedisClientOpt) {
	client := asynq.NewClient(redisOpts)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		now := <-ticker.C
		// Anyone still pending a full day after check-in is a no-show.
		payload := models.NoShowSweepPayload{Before: now.Add(-24 * time.Hour)}
		task, opts, err := tasks.NewNoShowSweepTask(payload, now)
		if err != nil {
			log.Printf("[NoShowWorker] failed to build sweep task: %v", err)
			continue
		}
		if _, err := client.Enqueue(task, opts...); err != nil {
			log.Printf("[NoShowWorker] failed to enqueue sweep: %v", err)
		}
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(redisOpts asynq.RedisClientOpt) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NoShowWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
