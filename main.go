package main

import (
	"log"
	"os"

	"Denta/CronJobs"
	"Denta/FiberConfig"
	"Denta/Models"
	"Denta/Notifications"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	setupLogging()

	Models.Connect()

	go func() {
		if err := Notifications.InitFirebase(); err != nil {
			log.Println("Push notifications disabled:", err)
		}
	}()

	jobs := CronJobs.NewDailyJobs(false)
	if err := jobs.Start(); err != nil {
		log.Println("Failed to start scheduled jobs:", err)
	}
	defer jobs.Stop()

	FiberConfig.FiberConfig()
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
