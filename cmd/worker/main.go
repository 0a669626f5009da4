package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"councilportal/internal/attendance"
	"councilportal/internal/config"
	"councilportal/internal/queue"
	"councilportal/internal/store"
)

// Worker consumes claim-decision messages and persists the audit trail.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Client); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "councilportal:audit")
	}

	repo := attendance.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "attendance.decision" {
			continue
		}

		var evt attendance.AuditEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("decode audit event failed: %v", err)
			continue
		}

		if err := repo.InsertAudit(ctx, evt); err != nil {
			log.Printf("audit write failed for %s/%s: %v", evt.UserID, evt.SessionID, err)
			continue
		}
		log.Printf("audit recorded: user=%s session=%s accepted=%t", evt.UserID, evt.SessionID, evt.Accepted)
	}

	log.Println("worker stopped")
}
