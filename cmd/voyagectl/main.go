package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"voyage/cmd/commands"
)

// Version is set during build with -ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "voyagectl",
	Short:   "Offline tools for travel proposals",
	Long:    `voyagectl renders proposal files to HTML or PDF, seeds them into MongoDB and issues local bearer tokens.`,
	Version: version,
	// main prints the error once
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
