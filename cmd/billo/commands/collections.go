package commands

import (
	"context"
	"fmt"

	"github.com/billogram/billogram-go/pkg/billogram"
	"github.com/spf13/cobra"
)

// collectionConfig describes one CLI command group backed by a simple
// object collection.
type collectionConfig struct {
	Use      string
	Aliases  []string
	Short    string
	Singular string
	Columns  []string
	Select   func(client *billogram.Client) *billogram.Collection[*billogram.SimpleObject]

	// Reports are generated by the service and cannot be created, changed
	// or deleted through the API.
	ReadOnly bool
}

// newCollectionCommand creates a command group with list/get and, for
// writable collections, create/update/delete subcommands.
func newCollectionCommand(config collectionConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     config.Use,
		Aliases: config.Aliases,
		Short:   config.Short,
	}

	cmd.AddCommand(newCollectionListCommand(config))
	cmd.AddCommand(newCollectionGetCommand(config))

	if !config.ReadOnly {
		cmd.AddCommand(newCollectionCreateCommand(config))
		cmd.AddCommand(newCollectionUpdateCommand(config))
		cmd.AddCommand(newCollectionDeleteCommand(config))
	}

	return cmd
}

func newCollectionListCommand(config collectionConfig) *cobra.Command {
	var (
		filterField string
		filterValue string
		search      string
		page        int
		pageSize    int
		allPages    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + config.Use,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			query := config.Select(client).Query()

			if err := query.SetPageSize(pageSize); err != nil {
				return err
			}

			if filterField != "" {
				if err := query.FilterField(filterField, filterValue); err != nil {
					return err
				}
			}

			if search != "" {
				if err := query.Search(search); err != nil {
					return err
				}
			}

			ctx := context.Background()

			var objects []*billogram.SimpleObject

			if allPages {
				objects, err = query.All(ctx)
			} else {
				objects, err = query.GetPage(ctx, page)
			}

			if err != nil {
				return fmt.Errorf("failed to list %s: %w", config.Use, err)
			}

			rows, err := collectSnapshots(ctx, objects)
			if err != nil {
				return err
			}

			return renderObjectList(rows, config.Columns)
		},
	}

	cmd.Flags().StringVar(&filterField, "filter-field", "", "field to filter on")
	cmd.Flags().StringVar(&filterValue, "filter-value", "", "value the filter field must match")
	cmd.Flags().StringVar(&search, "search", "", "full data search terms")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", billogram.DefaultPageSize, "objects per page")
	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")

	return cmd
}

func newCollectionGetCommand(config collectionConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a " + config.Singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			object, err := config.Select(client).Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", config.Singular, err)
			}

			data, err := object.Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(data)
		},
	}
}

func newCollectionCreateCommand(config collectionConfig) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + config.Singular,
		Long:  "Create a " + config.Singular + " from a JSON or YAML data file",
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

			object, err := config.Select(client).Create(ctx, data)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", config.Singular, err)
			}

			created, err := object.Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(created)
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "JSON or YAML file with object data (required, - for stdin)")
	_ = cmd.MarkFlagRequired("from-file")

	return cmd
}

func newCollectionUpdateCommand(config collectionConfig) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a " + config.Singular,
		Long:  "Update a " + config.Singular + " with a partial JSON or YAML data file",
		Args:  cobra.ExactArgs(1),
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
			object := config.Select(client).Reference(args[0])

			err = object.Update(ctx, data)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", config.Singular, err)
			}

			updated, err := object.Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(updated)
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "JSON or YAML file with fields to change (required, - for stdin)")
	_ = cmd.MarkFlagRequired("from-file")

	return cmd
}

func newCollectionDeleteCommand(config collectionConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + config.Singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Printf("Really delete %s '%s'? (y/N): ", config.Singular, args[0])

				var response string

				_, _ = fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Cancelled")

					return nil
				}
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			err = config.Select(client).Reference(args[0]).Delete(context.Background())
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", config.Singular, err)
			}

			fmt.Printf("Deleted %s '%s'\n", config.Singular, args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

// NewCustomersCommand creates the customers command group
func NewCustomersCommand() *cobra.Command {
	return newCollectionCommand(collectionConfig{
		Use:      "customers",
		Aliases:  []string{"customer"},
		Short:    "Manage the customer database",
		Singular: "customer",
		Columns:  []string{"customer_no", "name", "org_no", "email"},
		Select:   (*billogram.Client).Customers,
	})
}

// NewItemsCommand creates the items command group
func NewItemsCommand() *cobra.Command {
	return newCollectionCommand(collectionConfig{
		Use:      "items",
		Aliases:  []string{"item"},
		Short:    "Manage the item database",
		Singular: "item",
		Columns:  []string{"item_no", "title", "price", "vat", "unit"},
		Select:   (*billogram.Client).Items,
	})
}

// NewReportsCommand creates the reports command group
func NewReportsCommand() *cobra.Command {
	return newCollectionCommand(collectionConfig{
		Use:      "reports",
		Aliases:  []string{"report"},
		Short:    "List generated reports",
		Singular: "report",
		Columns:  []string{"filename", "type", "created_at"},
		Select:   (*billogram.Client).Reports,
		ReadOnly: true,
	})
}
