package main

import (
	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/logger"
	"heartmon-svc/src/internal/server"

	"github.com/sirupsen/logrus"
)

var log = *logrus.StandardLogger()

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	log.Infof("Application %s is starting....", cfg.App.Name)

	srv, err := server.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Error initializing server")
	}

	if err := srv.Start(); err != nil {
		log.WithError(err).Fatalf("Error starting server: %v", err)
	}
}
