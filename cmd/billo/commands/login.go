package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/billogram/billogram-go/pkg/billogram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint string
		username    string
		apiKey      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Billogram API",
		Long: `Verify a username/key credential pair against the Billogram API and
store it in the config file. Credentials are created in the Billogram
web interface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			reader := bufio.NewReader(os.Stdin)

			if username == "" {
				username = viper.GetString("username")
			}

			if username == "" {
				fmt.Print("API username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if apiKey == "" {
				fmt.Print("API key: ")

				byteKey, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}

				apiKey = string(byteKey)

				fmt.Println()
			}

			client, err := billogram.New(&billogram.Config{
				BaseURL:  apiEndpoint,
				Username: username,
				APIKey:   apiKey,
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer func() { _ = client.Close() }()

			// Verify the credentials with a cheap read before storing them.
			_, err = client.Settings().Data(context.Background())
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			err = saveCredentials(apiEndpoint, username, apiKey)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", username)

			return nil
		},
	}

	cmd.Flags().StringVar(&apiEndpoint, "api", "", "API base URL")
	cmd.Flags().StringVar(&username, "username", "", "API username")
	cmd.Flags().StringVar(&apiKey, "key", "", "API authentication key")

	return cmd
}

func saveCredentials(apiEndpoint, username, apiKey string) error {
	configFile := viper.ConfigFileUsed()

	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}

		configFile = filepath.Join(home, ".billo", "config.yml")
	}

	config := map[string]interface{}{
		"username": username,
		"key":      apiKey,
	}

	if apiEndpoint != "" {
		config["api"] = apiEndpoint
	}

	content, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file holds the API key, keep it private.
	err = os.WriteFile(configFile, content, 0o600)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println("Credentials saved to", configFile)

	return nil
}
