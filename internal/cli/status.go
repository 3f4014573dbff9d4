package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clipline/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [video-id]",
	Short: "Show pipeline state for one video, or all videos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if len(args) == 1 {
			video, err := st.GetVideo(ctx, args[0])
			if err != nil {
				return err
			}
			if video == nil {
				return fmt.Errorf("no video with id %s", args[0])
			}
			fmt.Printf("id:        %s\n", video.ID)
			fmt.Printf("url:       %s\n", video.SourceURL)
			fmt.Printf("state:     %s\n", video.Status)
			fmt.Printf("duration:  %.1fs\n", video.DurationSeconds)
			if video.Status == store.StatusFailed {
				fmt.Printf("failed at: %s\n", video.FailedStage)
				fmt.Printf("error:     %s\n", video.ErrorMessage)
			}
			fmt.Println()
			return printClips(ctx, st, video.ID)
		}

		videos, err := st.ListVideos(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATE\tURL")
		for _, v := range videos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Status, v.SourceURL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
