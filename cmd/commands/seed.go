package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"voyage/store"
)

var (
	seedIn    string
	seedUser  string
	seedDocID string
	seedURI   string
	seedDB    string
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a proposal file in MongoDB and attach it to a user",
		Long: `Write a proposal into the conversations collection and point the user's
profile at it, replacing whatever the profile pointed at before.

Examples:
  voyagectl seed --in proposal.yaml --user 64f0c2...`,
		Args: cobra.NoArgs,
		RunE: runSeed,
	}

	cmd.Flags().StringVarP(&seedIn, "in", "i", "", "Proposal file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&seedUser, "user", "u", "", "User id owning the proposal")
	cmd.Flags().StringVar(&seedDocID, "doc-id", "", "Conversation id (default: new uuid)")
	cmd.Flags().StringVar(&seedURI, "mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	cmd.Flags().StringVar(&seedDB, "db", envOr("MONGO_DB", "voyage"), "MongoDB database")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runSeed(cmd *cobra.Command, args []string) error {
	doc, err := LoadDocument(seedIn)
	if err != nil {
		return fmt.Errorf("failed to load proposal: %w", err)
	}
	docID := seedDocID
	if docID == "" {
		docID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	m, err := store.Connect(ctx, seedURI, seedDB)
	if err != nil {
		return err
	}
	defer m.Close(context.Background())

	at, err := m.Save(ctx, docID, doc)
	if err != nil {
		return err
	}
	if err := m.AttachDocument(ctx, seedUser, docID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored conversation %s for user %s at %s\n", docID, seedUser, at.Format(time.RFC3339))
	return nil
}
