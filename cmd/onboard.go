package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/floatchat/config"
)

var onboardCmd = &cobra.Command{
	Use:     "onboard",
	Short:   "Create the floatchat configuration",
	Long:    `Create the floatchat configuration directory and config file.`,
	GroupID: "setup",
	RunE:    runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	// --- interactive wizard ---

	var (
		webhookURL string
		timeout    = strconv.Itoa(config.DefaultConfig().Webhook.Timeout)
		backend    = "file"
		redisURL   string
	)

	// Step 1: reply endpoint
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook URL").
				Description("Each message is POSTed here as JSON. Run 'floatchat hook' for a local test endpoint.").
				Placeholder("http://127.0.0.1:8787/webhook").
				Validate(validateWebhookURL).
				Value(&webhookURL),
			huh.NewInput().
				Title("Reply timeout (seconds)").
				Description("0 waits forever.").
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 0 {
						return fmt.Errorf("enter a whole number of seconds")
					}
					return nil
				}).
				Value(&timeout),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: where history lives
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the conversation be stored?").
				Options(
					huh.NewOption("Local JSON file [Recommended]", "file"),
					huh.NewOption("SQLite database", "sqlite"),
					huh.NewOption("Redis", "redis"),
					huh.NewOption("Nowhere (memory only)", "memory"),
				).
				Value(&backend),
		),
	).Run()
	if err != nil {
		return err
	}

	if backend == "redis" {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Redis URL").
					Placeholder("redis://localhost:6379/0").
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("redis URL is required")
						}
						return nil
					}).
					Value(&redisURL),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// --- apply config ---

	c := config.DefaultConfig()
	c.Webhook.URL = strings.TrimSpace(webhookURL)
	c.Webhook.Timeout, _ = strconv.Atoi(strings.TrimSpace(timeout))
	c.Storage.Backend = backend
	c.Storage.Redis = strings.TrimSpace(redisURL)

	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("floatchat initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Webhook:", c.Webhook.URL)
	fmt.Println("  Storage:", backend)
	fmt.Println()
	fmt.Println("Run 'floatchat' to open the chat.")
	return nil
}

// validateWebhookURL accepts an empty value (configure later) or an
// absolute http(s) URL.
func validateWebhookURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("enter an http or https URL")
	}
	return nil
}
