package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/techtribe/studio-api/internal/config"
	"github.com/techtribe/studio-api/internal/contact"
	"github.com/techtribe/studio-api/internal/db"
	"github.com/techtribe/studio-api/internal/email"
	"github.com/techtribe/studio-api/internal/logging"
	"github.com/techtribe/studio-api/internal/store/rabbitmq"
)

const (
	maxAttempts = 5
	retryDelay  = 30 * time.Second
	jobTimeout  = 45 * time.Second
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With("component", "worker")
	slog.SetDefault(log)

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		fatal(log, "db connect", err)
	}
	if err := db.Migrate(gdb); err != nil {
		fatal(log, "db migrate", err)
	}

	mailer := email.NewSMTPMailer(email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})
	if !mailer.Configured() || cfg.ContactEmail == "" {
		log.Warn("smtp or CONTACT_EMAIL not configured, notifications will fail until set")
	}
	dispatcher := contact.NewDispatcher(contact.NewRepo(gdb), mailer, cfg.ContactEmail, maxAttempts, log)

	// retries go out on their own connection's publisher
	retries, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		fatal(log, "rabbit publisher", err)
	}
	defer retries.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		fatal(log, "rabbit dial", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		fatal(log, "rabbit channel", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		fatal(log, "declare topology", err)
	}

	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		fatal(log, "qos", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		fatal(log, "consume", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(ctx, log.With("worker", workerID), dispatcher, retries, d)
			}
		}(i)
	}

	// dispatcher loop
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				os.Exit(1)
			}
			jobs <- d
		}
	}
}

func handleDelivery(ctx context.Context, log *slog.Logger, d *contact.Dispatcher, retries *rabbitmq.Publisher, del amqp.Delivery) {
	jobID, err := rabbitmq.DecodeJob(del.Body)
	if err != nil {
		log.Warn("bad message", "err", err)
		_ = del.Nack(false, false)
		return
	}

	// a job in flight finishes even when shutdown starts
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := d.Handle(jctx, jobID)
	switch outcome {
	case contact.OutcomeDone:
		if err := del.Ack(false); err != nil {
			log.Error("ack failed", "job_id", jobID, "err", err)
		}
	case contact.OutcomeRetry:
		log.Warn("job failed, scheduling retry", "job_id", jobID, "cost", time.Since(start), "err", err)
		if pubErr := retries.PublishRetry(jctx, jobID, retryDelay); pubErr != nil {
			log.Error("publish retry failed, requeueing", "job_id", jobID, "err", pubErr)
			_ = del.Nack(false, true)
			return
		}
		_ = del.Ack(false)
	default:
		log.Error("job dropped to dead-letter queue", "job_id", jobID, "err", err)
		_ = del.Nack(false, false)
	}
}

func fatal(log *slog.Logger, op string, err error) {
	log.Error(op, "err", err)
	os.Exit(1)
}
