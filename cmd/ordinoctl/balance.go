package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <shipment-id> <line-id>",
	Short: "Show debt, paid amount and status of a manifest line",
	Args:  cobra.ExactArgs(2),
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	shipmentID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid shipment id %q", args[0])
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	lb, err := a.svcs.Ordino.LineBalance(cmd.Context(), uint(shipmentID), args[1])
	if err != nil {
		return err
	}

	b := lb.Balance
	fmt.Printf("Line %s (%s, %s)\n", lb.Line.ID, lb.Line.OrdinoNo, lb.Line.CustomerName)
	fmt.Printf("  Total debt: %12.2f %s\n", b.TotalDebt, b.Currency)
	fmt.Printf("  Paid:       %12.2f %s\n", b.PaidAmount, b.Currency)
	fmt.Printf("  Remaining:  %12.2f %s\n", b.Remaining, b.Currency)
	fmt.Printf("  Status:     %s\n", b.Status)
	for _, p := range lb.Line.Payments {
		fmt.Printf("    %s  %s  %10.2f  %-12s %s\n", p.Date.Format("2006-01-02"), p.ID, p.Amount, p.Method, p.Reference)
	}
	return nil
}
