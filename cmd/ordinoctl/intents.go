package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/spf13/cobra"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "Inspect and resolve payment intents",
}

var intentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payment intents",
	Example: `  # Intents waiting for an operator
  ordinoctl intents list --status failed

  # Everything recorded against one shipment
  ordinoctl intents list --status "" --shipment 42`,
	RunE: runIntentsList,
}

var intentsRetryCmd = &cobra.Command{
	Use:   "retry <intent-id>",
	Short: "Replay a failed intent",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntentsRetry,
}

var intentsAbandonCmd = &cobra.Command{
	Use:   "abandon <intent-id>",
	Short: "Hand a failed intent over to manual reconciliation",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntentsAbandon,
}

var intentsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark intents stuck in pending as failed",
	RunE:  runIntentsSweep,
}

func init() {
	rootCmd.AddCommand(intentsCmd)
	intentsCmd.AddCommand(intentsListCmd, intentsRetryCmd, intentsAbandonCmd, intentsSweepCmd)

	intentsListCmd.Flags().String("status", models.IntentStatusFailed, "Filter by status (empty for all)")
	intentsListCmd.Flags().Uint("shipment", 0, "Filter by shipment ID")
	intentsListCmd.Flags().Int("limit", 50, "Maximum number of intents")

	intentsAbandonCmd.Flags().String("reason", "", "Why the intent is abandoned")
	_ = intentsAbandonCmd.MarkFlagRequired("reason")
}

func runIntentsList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	shipmentID, _ := cmd.Flags().GetUint("shipment")
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	query := repository.NewListQuery()
	query.PerPage = limit
	if status != "" {
		query.Filters["status"] = status
	}
	if shipmentID != 0 {
		query.Filters["shipment_id"] = fmt.Sprint(shipmentID)
	}

	intents, total, err := a.svcs.Ordino.ListIntents(cmd.Context(), query)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHIPMENT\tLINE\tOPERATION\tSTATUS\tSTEP\tATTEMPTS\tCREATED")
	for _, i := range intents {
		step := "-"
		if i.FailedStep != nil {
			step = *i.FailedStep
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			i.ID, i.ShipmentID, i.LineID, i.Operation, i.Status, step, i.Attempts,
			i.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d intents\n", len(intents), total)
	return nil
}

func runIntentsRetry(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.svcs.Ordino.RetryIntent(cmd.Context(), args[0], actorID, cliIP, cliUserAgent)
	if err != nil {
		return err
	}

	fmt.Printf("Intent %s completed. Line %s is %s, remaining %.2f %s (version %d)\n",
		outcome.IntentID, outcome.Line.ID, outcome.Balance.Status,
		outcome.Balance.Remaining, outcome.Balance.Currency, outcome.Version)
	return nil
}

func runIntentsAbandon(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	intent, err := a.svcs.Ordino.AbandonIntent(cmd.Context(), args[0], reason, actorID, cliIP, cliUserAgent)
	if err != nil {
		return err
	}
	fmt.Printf("Intent %s is now %s\n", intent.ID, intent.Status)
	return nil
}

func runIntentsSweep(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.svcs.Ordino.SweepStaleIntents(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%d stale intents marked as failed\n", n)
	return nil
}
