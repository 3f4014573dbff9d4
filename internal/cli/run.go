package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"clipline/internal/execx"
	"clipline/internal/pipeline"
	"clipline/internal/store"
)

var runIntent string

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Process one video end to end and print its clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceURL := strings.TrimSpace(args[0])

		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		if err := execx.CheckBinaries(binaryRequirements(cfg)); err != nil {
			return err
		}

		st, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		id := store.VideoIDFromURL(sourceURL)
		video, created, err := st.CreateVideo(ctx, id, sourceURL, runIntent)
		if err != nil {
			return err
		}
		if !created {
			logger.Infow("video already known, resuming", "video_id", id, "state", video.Status)
			if video.Status.IsProcessing() {
				if _, err := st.RollbackInFlight(ctx); err != nil {
					return err
				}
			}
		}

		handlers, err := buildHandlers(ctx, cfg, logger, st)
		if err != nil {
			return err
		}
		manager := pipeline.NewManager(st, cfg, logger, handlers)
		manager.Start(ctx)
		defer manager.Stop()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			video, err = st.GetVideo(ctx, id)
			if err != nil {
				return err
			}
			if video.Status.IsTerminal() {
				break
			}
		}

		if video.Status == store.StatusFailed {
			return fmt.Errorf("pipeline failed at %s: %s", video.FailedStage, video.ErrorMessage)
		}
		return printClips(ctx, st, id)
	},
}

func printClips(ctx context.Context, st *store.Store, videoID string) error {
	clips, err := st.ListClips(ctx, videoID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tWINDOW\tSCORE\tTITLE\tOUTPUT")
	for _, clip := range clips {
		output := clip.OutputPath
		if !clip.Rendered {
			output = "failed: " + clip.ErrorMessage
		}
		fmt.Fprintf(w, "%d\t%.1fs-%.1fs\t%.2f\t%s\t%s\n",
			clip.Ordinal, clip.Start, clip.End, clip.Score, clip.Title, output)
	}
	return w.Flush()
}

func init() {
	runCmd.Flags().StringVar(&runIntent, "intent", "", "What kind of moments to look for")
	rootCmd.AddCommand(runCmd)
}
