package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akylbek/payment-system/hosted-checkout/internal/payment"
)

var statusCmd = &cobra.Command{
	Use:   "status <checkout-id>",
	Short: "Look up and classify the payment for a checkout id",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checkoutID, err := payment.NormalizeCheckoutID(args[0])
	if err != nil {
		return err
	}

	result, err := newGatewayClient(cfg).PaymentStatus(cmd.Context(), checkoutID)
	if err != nil {
		return err
	}

	outcome := payment.NewOutcome(result.Code, result.Description)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "checkout:    %s\n", checkoutID)
	fmt.Fprintf(out, "result code: %s\n", result.Code)
	fmt.Fprintf(out, "status:      %s\n", outcome.Status)
	fmt.Fprintf(out, "description: %s\n", outcome.Description)
	return nil
}
