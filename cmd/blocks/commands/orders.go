package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/commerce"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
	"github.com/spf13/cobra"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Inspect orders of the commerce block",
	}

	cmd.AddCommand(newOrdersListCommand())
	cmd.AddCommand(newOrdersGetCommand())

	return cmd
}

func newOrdersListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Example: `  blocks orders list --filter status=pending --include customer
  blocks orders list --all --output json --jq '[.[] | .total] | add'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := commerceService()
			if err != nil {
				return err
			}
			defer cleanup()

			if flags.all {
				orders, err := service.ListAllOrders(cmd.Context(), flags.params(), flags.fetchAllOptions())
				if err != nil {
					return fmt.Errorf("failed to list orders: %w", err)
				}

				return render(cmd, orders, func(out io.Writer) error {
					return renderOrdersTable(out, orders)
				})
			}

			page, err := service.ListOrders(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}

			return render(cmd, page, func(out io.Writer) error {
				if err := renderOrdersTable(out, page.Data); err != nil {
					return err
				}

				if len(page.Data) > 0 {
					pageFooter(out, page.Meta)
				}

				return nil
			})
		},
	}

	flags.bind(cmd)

	return cmd
}

func newOrdersGetCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Get an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := commerceService()
			if err != nil {
				return err
			}
			defer cleanup()

			var params *blocks.QueryParams
			if len(include) > 0 {
				params = blocks.NewQueryParams().WithInclude(include...)
			}

			order, err := service.GetOrder(cmd.Context(), args[0], params)
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}

			return render(cmd, order, func(out io.Writer) error {
				return renderOrderDetails(out, order)
			})
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", []string{"customer"}, "relationships to include")
	addJQFlag(cmd)

	return cmd
}

func commerceService() (*commerce.Service, func(), error) {
	client, cleanup, err := newBlocksClient(loadConfig())
	if err != nil {
		return nil, nil, err
	}

	service, err := client.Commerce()
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return service, cleanup, nil
}

func renderOrdersTable(out io.Writer, orders []commerce.Order) error {
	if len(orders) == 0 {
		_, _ = fmt.Fprintln(out, "No orders found")

		return nil
	}

	table := newTable(out, "ID", "Number", "Status", "Payment", "Total", "Customer")

	for _, order := range orders {
		_ = table.Append([]string{
			order.ID,
			order.Number,
			string(order.Status),
			string(order.PaymentStatus),
			formatAmount(order.Total, order.Currency),
			customerLabel(order),
		})
	}

	return renderTable(table)
}

func renderOrderDetails(out io.Writer, order *commerce.Order) error {
	table := newTable(out, "Property", "Value")

	_ = table.Append([]string{"ID", order.ID})
	_ = table.Append([]string{"Number", order.Number})
	_ = table.Append([]string{"Status", string(order.Status)})
	_ = table.Append([]string{"Payment Status", string(order.PaymentStatus)})
	_ = table.Append([]string{"Subtotal", formatAmount(order.Subtotal, order.Currency)})
	_ = table.Append([]string{"Tax", formatAmount(order.Tax, order.Currency)})

	if order.Discount != nil {
		_ = table.Append([]string{"Discount", formatAmount(*order.Discount, order.Currency)})
	}

	_ = table.Append([]string{"Total", formatAmount(order.Total, order.Currency)})
	_ = table.Append([]string{"Customer", customerLabel(*order)})

	if len(order.Tags) > 0 {
		_ = table.Append([]string{"Tags", strings.Join(order.Tags, ", ")})
	}

	if order.Notes != nil {
		_ = table.Append([]string{"Notes", *order.Notes})
	}

	if order.PlacedAt != nil {
		_ = table.Append([]string{"Placed", order.PlacedAt.Format("2006-01-02 15:04:05")})
	}

	return renderTable(table)
}

func formatAmount(amount float64, currency string) string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", amount, currency))
}

func customerLabel(order commerce.Order) string {
	if customer, ok := order.Customer.Get(); ok {
		return customer.Email
	}

	if order.Customer.State() == jsonapi.RelationNull {
		return "none"
	}

	return order.CustomerID
}
