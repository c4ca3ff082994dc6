package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatherly/backend/internal/config"
	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
)

var (
	flagUID      string
	flagEmail    string
	flagName     string
	flagPhoto    string
	flagVerified bool
	flagSecret   string
	flagTTL      time.Duration
)

// rootCmd mints development bearer tokens
var rootCmd = &cobra.Command{
	Use:   "devtoken",
	Short: "Mint a development bearer token",
	Long: `Mint an HS256 bearer token accepted by the API when AUTH_MODE=jwt.

The secret defaults to JWT_SECRET from the environment or .env file.`,
	RunE: runDevToken,
}

func init() {
	rootCmd.Flags().StringVar(&flagUID, "uid", "", "user id (required)")
	rootCmd.Flags().StringVar(&flagEmail, "email", "", "email claim")
	rootCmd.Flags().StringVar(&flagName, "name", "", "display name claim")
	rootCmd.Flags().StringVar(&flagPhoto, "picture", "", "photo URL claim")
	rootCmd.Flags().BoolVar(&flagVerified, "verified", false, "email_verified claim")
	rootCmd.Flags().StringVar(&flagSecret, "secret", "", "signing secret (default: JWT_SECRET)")
	rootCmd.Flags().DurationVar(&flagTTL, "ttl", 0, "token lifetime (default: JWT_EXPIRATION)")
}

func runDevToken(cmd *cobra.Command, args []string) error {
	if flagUID == "" {
		return errors.New("--uid is required")
	}
	cfg := config.Load()
	secret := flagSecret
	if secret == "" {
		secret = cfg.JWTSecret
	}
	ttl := flagTTL
	if ttl <= 0 {
		ttl = cfg.JWTExpiration
	}

	tok, err := middleware.IssueToken(secret, models.Session{
		UserID:        flagUID,
		Email:         flagEmail,
		EmailVerified: flagVerified,
		DisplayName:   flagName,
		PhotoURL:      flagPhoto,
	}, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
