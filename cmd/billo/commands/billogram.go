package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/billogram/billogram-go/pkg/billogram"
	"github.com/spf13/cobra"
)

var billogramListColumns = []string{"id", "invoice_no", "state", "total_sum", "currency", "due_date"}

// NewBillogramCommand creates the billogram command group
func NewBillogramCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "billogram",
		Aliases: []string{"invoices", "bg"},
		Short:   "Manage billogram invoices",
		Long:    "List, create and drive the workflow of billogram invoice objects",
	}

	cmd.AddCommand(newBillogramListCommand())
	cmd.AddCommand(newBillogramGetCommand())
	cmd.AddCommand(newBillogramCreateCommand())
	cmd.AddCommand(newBillogramSendCommand())
	cmd.AddCommand(newBillogramRemindCommand())
	cmd.AddCommand(newBillogramResendCommand())
	cmd.AddCommand(newBillogramPaymentCommand())
	cmd.AddCommand(newBillogramCreditCommand())
	cmd.AddCommand(newBillogramEventCommand("collect", "Send a billogram to the collection agency",
		(*billogram.BillogramObject).SendToCollector))
	cmd.AddCommand(newBillogramEventCommand("writeoff", "Write off the remaining fees of a billogram",
		(*billogram.BillogramObject).Writeoff))
	cmd.AddCommand(newBillogramMessageCommand())
	cmd.AddCommand(newBillogramPDFCommand())
	cmd.AddCommand(newBillogramAttachCommand())
	cmd.AddCommand(newBillogramDeleteCommand())

	return cmd
}

func newBillogramListCommand() *cobra.Command {
	var (
		states   []string
		search   string
		page     int
		pageSize int
		allPages bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List billogram objects",
		Long:  "List billogram objects, optionally filtered by state or search terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			query := client.Billogram().Query()

			if err := query.SetPageSize(pageSize); err != nil {
				return err
			}

			if len(states) > 0 {
				if err := query.FilterStateAny(states...); err != nil {
					return err
				}
			}

			if search != "" {
				if err := query.Search(search); err != nil {
					return err
				}
			}

			ctx := context.Background()

			var objects []*billogram.BillogramObject

			if allPages {
				objects, err = query.All(ctx)
			} else {
				objects, err = query.GetPage(ctx, page)
			}

			if err != nil {
				return fmt.Errorf("failed to list billogram objects: %w", err)
			}

			rows, err := collectSnapshots(ctx, objects)
			if err != nil {
				return err
			}

			return renderObjectList(rows, billogramListColumns)
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "filter by state (repeatable)")
	cmd.Flags().StringVar(&search, "search", "", "full data search terms")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", billogram.DefaultPageSize, "objects per page")
	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")

	return cmd
}

func newBillogramGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a billogram object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			object, err := client.Billogram().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get billogram: %w", err)
			}

			data, err := object.Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(data)
		},
	}
}

func newBillogramCreateCommand() *cobra.Command {
	var (
		fromFile   string
		sendMethod string
		sell       bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a billogram object",
		Long: `Create a billogram object from a JSON or YAML data file. With --send the
new billogram is sent to the recipient right away; if sending fails the
created object is deleted again. With --sell it is sent to factoring.`,
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

			var object *billogram.BillogramObject

			switch {
			case sell:
				object, err = client.Billogram().CreateAndSell(ctx, data)
			case sendMethod != "":
				object, err = client.Billogram().CreateAndSend(ctx, data, sendMethod)
			default:
				object, err = client.Billogram().Create(ctx, data)
			}

			if err != nil {
				return fmt.Errorf("failed to create billogram: %w", err)
			}

			created, err := object.Data(ctx)
			if err != nil {
				return err
			}

			return renderObject(created)
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "JSON or YAML file with billogram data (required, - for stdin)")
	cmd.Flags().StringVar(&sendMethod, "send", "", `send the new billogram ("Email", "Letter" or "Email+Letter")`)
	cmd.Flags().BoolVar(&sell, "sell", false, "send the new billogram to factoring")
	_ = cmd.MarkFlagRequired("from-file")
	cmd.MarkFlagsMutuallyExclusive("send", "sell")

	return cmd
}

func newBillogramSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send ID METHOD",
		Short: "Send a billogram to the recipient",
		Long:  `Send a billogram to the recipient by "Email", "Letter" or "Email+Letter"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0], fmt.Sprintf("Sent billogram '%s'\n", args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.Send(ctx, args[1])
				})
		},
	}
}

func newBillogramRemindCommand() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "remind ID",
		Short: "Send a payment reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0], fmt.Sprintf("Sent reminder for billogram '%s'\n", args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.SendReminder(ctx, method)
				})
		},
	}

	cmd.Flags().StringVar(&method, "method", "", `delivery method ("Email" or "Letter", default per account settings)`)

	return cmd
}

func newBillogramResendCommand() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "resend ID",
		Short: "Send a billogram to the recipient again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0], fmt.Sprintf("Resent billogram '%s'\n", args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.Resend(ctx, method)
				})
		},
	}

	cmd.Flags().StringVar(&method, "method", "", `delivery method ("Email" or "Letter", default per account settings)`)

	return cmd
}

func newBillogramPaymentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "payment ID AMOUNT",
		Short: "Register a manual payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			return runBillogramEvent(args[0],
				fmt.Sprintf("Registered payment of %s on billogram '%s'\n", args[1], args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.CreatePayment(ctx, amount)
				})
		},
	}
}

func newBillogramCreditCommand() *cobra.Command {
	var (
		amount    float64
		full      bool
		remaining bool
	)

	cmd := &cobra.Command{
		Use:   "credit ID",
		Short: "Credit a billogram",
		Long:  "Credit a billogram fully, by its remaining amount, or by a fixed amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0], fmt.Sprintf("Credited billogram '%s'\n", args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					switch {
					case full:
						return object.CreditFull(ctx)
					case remaining:
						return object.CreditRemaining(ctx)
					default:
						return object.CreditAmount(ctx, amount)
					}
				})
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount to credit")
	cmd.Flags().BoolVar(&full, "full", false, "credit the full amount")
	cmd.Flags().BoolVar(&remaining, "remaining", false, "credit the remaining amount")
	cmd.MarkFlagsMutuallyExclusive("amount", "full", "remaining")
	cmd.MarkFlagsOneRequired("amount", "full", "remaining")

	return cmd
}

func newBillogramEventCommand(event, short string, call func(*billogram.BillogramObject, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   event + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0],
				fmt.Sprintf("Performed %s on billogram '%s'\n", event, args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return call(object, ctx)
				})
		},
	}
}

func newBillogramMessageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "message ID TEXT",
		Short: "Send a message to the recipient of a billogram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBillogramEvent(args[0], fmt.Sprintf("Sent message on billogram '%s'\n", args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.SendMessage(ctx, args[1])
				})
		},
	}
}

func newBillogramPDFCommand() *cobra.Command {
	var (
		outputFile string
		letterID   string
		invoiceNo  string
		attachment bool
	)

	cmd := &cobra.Command{
		Use:   "pdf ID",
		Short: "Download an invoice PDF",
		Long:  "Download the invoice PDF of a billogram, or its attachment with --attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()
			object := client.Billogram().Reference(args[0])

			var content []byte

			if attachment {
				content, err = object.AttachmentPDF(ctx)
			} else {
				content, err = object.InvoicePDF(ctx, letterID, invoiceNo)
			}

			if err != nil {
				return fmt.Errorf("failed to fetch PDF: %w", err)
			}

			if outputFile == "" {
				outputFile = args[0] + ".pdf"
			}

			err = os.WriteFile(outputFile, content, 0o644)
			if err != nil {
				return fmt.Errorf("writing %s: %w", outputFile, err)
			}

			fmt.Printf("Wrote %d bytes to %s\n", len(content), outputFile)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "file to write (default ID.pdf)")
	cmd.Flags().StringVar(&letterID, "letter-id", "", "select a specific letter")
	cmd.Flags().StringVar(&invoiceNo, "invoice-no", "", "select a specific invoice number")
	cmd.Flags().BoolVar(&attachment, "attachment", false, "download the attachment instead of the invoice")

	return cmd
}

func newBillogramAttachCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attach ID FILE",
		Short: "Attach a PDF document to a billogram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			return runBillogramEvent(args[0],
				fmt.Sprintf("Attached %s to billogram '%s'\n", args[1], args[0]),
				func(ctx context.Context, object *billogram.BillogramObject) error {
					return object.AttachPDF(ctx, content, filepath.Base(args[1]))
				})
		},
	}
}

func newBillogramDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a billogram object",
		Long:  "Delete a billogram object; only possible in state Unattested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Printf("Really delete billogram '%s'? (y/N): ", args[0])

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

			err = client.Billogram().Reference(args[0]).Delete(context.Background())
			if err != nil {
				return fmt.Errorf("failed to delete billogram: %w", err)
			}

			fmt.Printf("Deleted billogram '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

// runBillogramEvent performs one workflow command on a lazy billogram
// reference and prints the success message.
func runBillogramEvent(id, successMessage string, call func(context.Context, *billogram.BillogramObject) error) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	err = call(context.Background(), client.Billogram().Reference(id))
	if err != nil {
		return fmt.Errorf("billogram command failed: %w", err)
	}

	fmt.Print(successMessage)

	return nil
}
