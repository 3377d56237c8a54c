package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import manifest rows into a shipment",
}

var importXLSXCmd = &cobra.Command{
	Use:     "xlsx <shipment-id> <file>",
	Short:   "Import the first sheet of an XLSX workbook",
	Example: `  ordinoctl import xlsx 42 ./manifests/MSC-AYLA-0324.xlsx --actor 3`,
	Args:    cobra.ExactArgs(2),
	RunE:    runImportXLSX,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importXLSXCmd)
}

func runImportXLSX(cmd *cobra.Command, args []string) error {
	shipmentID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid shipment id %q", args[0])
	}

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svcs.Import.ImportXLSX(cmd.Context(), uint(shipmentID), filepath.Base(args[1]), f, actorID, cliIP, cliUserAgent)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d rows into %d manifest lines\n", result.RowCount, len(result.Lines))
	for _, l := range result.Lines {
		fmt.Printf("  %s  %-30s  %s/%s  %.2f %s\n", l.ID, l.CustomerName, l.TransportDocNo, l.ContainerNo,
			l.SavedFees.Navlun+l.SavedFees.Tahliye+l.SavedFees.Exworks, l.SavedFees.Currency)
	}
	if result.ArchivePath != "" {
		fmt.Printf("Archived as %s\n", result.ArchivePath)
	}
	return nil
}
