package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSettingsCommand creates the settings command group
func NewSettingsCommand() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage account settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the account settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			data, err := client.Settings().Data(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}

			return renderObject(data)
		},
	})

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update the account settings",
		Long:  "Update the account settings with a partial JSON or YAML data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDataFile(fromFile)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			err = client.Settings().Update(ctx, data)
			if err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}

			updated, err := client.Settings().Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(updated)
		},
	}

	updateCmd.Flags().StringVar(&fromFile, "from-file", "", "JSON or YAML file with fields to change (required, - for stdin)")
	_ = updateCmd.MarkFlagRequired("from-file")

	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "logotype",
		Short: "Show the account logotype resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			data, err := client.Logotype().Data(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get logotype: %w", err)
			}

			return renderObject(data)
		},
	})

	return cmd
}
