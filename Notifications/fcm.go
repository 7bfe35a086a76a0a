package Notifications

import (
	"Denta/Models"
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Global Firebase client
var firebaseClient *messaging.Client
var ctx = context.Background()

// InitFirebase sets up the FCM client once at startup. Push is optional;
// when credentials are missing the app runs without it.
func InitFirebase() error {
	credFile := os.Getenv("FIREBASE_CREDENTIALS")
	if credFile == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS not set")
	}
	opt := option.WithCredentialsFile(credFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// Enabled reports whether push notifications can be sent.
func Enabled() bool {
	return firebaseClient != nil
}

// NotifyUser pushes a message to every registered device of one user.
// Dead tokens are pruned as they are discovered.
func NotifyUser(userID uint, title, body string) {
	if firebaseClient == nil {
		return
	}

	var tokens []Models.DeviceToken
	if err := Models.DB.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Printf("Error loading device tokens for user %d: %v", userID, err)
		return
	}

	for _, token := range tokens {
		message := &messaging.Message{
			Token: token.Value,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
		}
		if _, err := firebaseClient.Send(ctx, message); err != nil {
			log.Printf("Error sending notification to token %d: %v", token.ID, err)
			if messaging.IsUnregistered(err) {
				Models.DB.Delete(&token)
			}
		}
	}
}

// NotifyAssistant resolves the assistant's linked account and pushes.
func NotifyAssistant(assistantID uint, title, body string) {
	var assistant Models.Assistant
	if err := Models.DB.First(&assistant, assistantID).Error; err != nil || assistant.UserID == nil {
		return
	}
	NotifyUser(*assistant.UserID, title, body)
}

// NotifyTaskAssigned tells an assistant a task landed on their plate.
func NotifyTaskAssigned(task Models.Task) {
	if task.AssignedToID == nil {
		return
	}
	NotifyAssistant(*task.AssignedToID, "New task assigned", task.Title)
}
