package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ecobin-app/backend/internal/push"
	"github.com/ecobin-app/backend/internal/repositories"
	"github.com/ecobin-app/backend/internal/worker"
	"github.com/ecobin-app/backend/pkg/config"
	"github.com/ecobin-app/backend/pkg/firebase"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	notificationRepo := repositories.NewMongoNotificationRepository(
		db.Mongo.Database(cfg.MongoDatabase), cfg.NotificationRetention, cfg.NotificationReadAging)

	dispatcher := push.NewDispatcher(firebaseApp.MessagingClient, userRepo)

	w := worker.NewWorker(dispatcher, notificationRepo)
	if err := w.Start(ctx); err != nil {
		log.Fatalf("Worker stopped with error: %v", err)
	}
}
