package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

type FirebaseConfig struct {
	ProjectID       string
	CredentialsJSON string
	StorageBucket   string
}

// ClientOptions returns the Google API options shared by Firebase, Storage and Vision.
// Without explicit credentials the Application Default Credentials are used.
func (c FirebaseConfig) ClientOptions() []option.ClientOption {
	if c.CredentialsJSON == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(c.CredentialsJSON))}
}

func NewFirebaseApp(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, cfg.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("firebase: new app: %w", err)
	}
	return app, nil
}
