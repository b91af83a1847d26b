package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prompt_maker_server/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "prompt-maker",
	Short: "Guided prompt generator",
	Long: `prompt-maker turns short questionnaires into structured prompts for
generative AI models, and can ask a model to refine the result.

Available commands:
  serve    - Start the HTTP API
  tools    - List the prompt tools and their questions
  generate - Fill a tool from the terminal and print the prompt

Examples:
  prompt-maker serve
  prompt-maker tools
  prompt-maker generate --tool lab --set niche="AI for Photographers" -i --refine`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory searched for config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(generateCmd)
}

// loadConfig reads .env first so viper sees its values as environment.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	return config.LoadConfig(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
