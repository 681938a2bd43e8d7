package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tanq16/pahedl/internal/output"
	"github.com/tanq16/pahedl/internal/transfer"
	"github.com/tanq16/pahedl/internal/utils"
)

// get skips resolution for callers that already hold a direct link.
func newGetCmd() *cobra.Command {
	var getOutput string
	var referer string

	cmd := &cobra.Command{
		Use:   "get [DIRECT_URL]",
		Short: "Download an already-resolved URL with range-parallel connections",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			utils.InitLogger(debug)
			if getOutput == "" {
				output.PrintError("Output file path is required")
				os.Exit(1)
			}
			if _, err := os.Stat(getOutput); err == nil {
				getOutput = utils.RenewOutputPath(getOutput)
				output.PrintInfo(fmt.Sprintf("Output exists, saving as %s", getOutput))
			}

			outputMgr := output.NewManager()
			outputMgr.StartDisplay()
			funcID := outputMgr.Register(filepath.Base(getOutput))

			events := make(chan transfer.Event, 64)
			var eventsWg sync.WaitGroup
			eventsWg.Add(1)
			go func() {
				defer eventsWg.Done()
				for ev := range events {
					outputMgr.HandleEvent(funcID, ev)
				}
			}()

			engine := transfer.NewEngine(buildHTTPClientConfig())
			err := engine.Transfer(context.Background(), transfer.Target{
				SourceURL:   args[0],
				Referer:     referer,
				OutputPath:  getOutput,
				WorkerCount: connections,
			}, events)
			close(events)
			eventsWg.Wait()

			if err != nil {
				outputMgr.ReportError(funcID, err)
				outputMgr.StopDisplay()
				os.Exit(1)
			}
			outputMgr.Complete(funcID, fmt.Sprintf("Completed %s", getOutput))
			outputMgr.StopDisplay()
		},
	}

	cmd.Flags().StringVarP(&getOutput, "output", "o", "", "Output file path")
	cmd.Flags().StringVarP(&referer, "referer", "r", "", "Referer header to send with download requests")
	return cmd
}
