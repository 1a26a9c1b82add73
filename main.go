package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicereminder/internal/config"
	myopenai "voicereminder/internal/openai"
	"voicereminder/internal/scheduler"
	"voicereminder/internal/server"
	"voicereminder/internal/service"
	"voicereminder/internal/store"
	"voicereminder/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[voicereminder] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	openAIClient := myopenai.New(cfg.OpenAIAPIKey)
	if cfg.OpenAIAPIKey == "" {
		logger.Println("OPENAI_API_KEY not set: synthesis and detection will fail until configured")
	}
	alertClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, cfg.AlertRecipient)

	reminderStore := store.New()
	sched := scheduler.New(openAIClient, cfg.LocalTimezone, cfg.VoiceFile, cfg.SynthesisTimeout, logger)
	sched.Start()

	svc := service.New(reminderStore, sched, cfg.LocalTimezone, logger)
	srv := server.New(svc, openAIClient, alertClient, cfg.VoiceFile, cfg.DetectTimeout, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, sched, logger)
}

func waitForShutdown(httpServer *http.Server, sched *scheduler.Scheduler, logger *log.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	sched.Stop()
}
