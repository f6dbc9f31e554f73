package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch <tournament id>",
	Short: "Process every stored log of a tournament",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "worker pool size (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	tournamentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tournament id %q", args[0])
	}

	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	workers := batchWorkers
	if workers == 0 {
		workers = cfg.Workers
	}

	res, err := eng.ProcessTournament(cmd.Context(), tournamentID, workers)
	if err != nil {
		return fmt.Errorf("process tournament %d: %w", tournamentID, err)
	}

	fmt.Fprintf(os.Stdout, "Processed %d logs, %d failed.\n", res.Processed, res.Failed)
	return nil
}
