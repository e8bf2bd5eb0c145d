package commands

import (
	"fmt"

	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	processedBy string
	adjustDelta int
	adjustNote  string
)

var cliActor = events.Actor{ID: "whctl", Name: "whctl"}

var processOrderCmd = &cobra.Command{
	Use:   "process-order <order-id>",
	Short: "Fulfil an order and apply its stock adjustments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		order, err := a.orders.ProcessOrder(cmd.Context(), orderID, processedBy, cliActor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order %s %s (%d items, mode %s)\n",
			order.OrderNumber, order.Status, len(order.Items), a.cfg.FulfillmentMode)
		return nil
	},
}

var adjustStockCmd = &cobra.Command{
	Use:   "adjust-stock <product-id>",
	Short: "Apply a signed manual stock correction",
	Long: `Apply a signed manual stock correction through the stock ledger. The change
is recorded as a stock movement.

Examples:
  whctl adjust-stock 0b9c... --delta 12 --note "cycle count"
  whctl adjust-stock 0b9c... --delta=-3 --note damaged`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		product, err := a.stock.AdjustStock(cmd.Context(), productID, &service.AdjustStockRequest{
			Quantity: adjustDelta,
			Note:     adjustNote,
		}, cliActor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d %s\n", product.SKU, product.Quantity, product.Unit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processOrderCmd)
	rootCmd.AddCommand(adjustStockCmd)

	processOrderCmd.Flags().StringVar(&processedBy, "by", "whctl", "Name recorded as processed_by")

	adjustStockCmd.Flags().IntVar(&adjustDelta, "delta", 0, "Signed quantity change (required)")
	adjustStockCmd.Flags().StringVar(&adjustNote, "note", "", "Reason recorded on the stock movement")
	_ = adjustStockCmd.MarkFlagRequired("delta")
}
