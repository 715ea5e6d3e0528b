package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/doorbell/internal/snapshot"
	"github.com/spf13/cobra"
)

// Snapshotter captures and uploads one frame.
type Snapshotter interface {
	Capture(ctx context.Context) (snapshot.Result, error)
}

// CreateScreenshotCmd creates the screenshot command.
// newSnapshotter is called after configuration has been loaded.
func CreateScreenshotCmd(newSnapshotter func() (Snapshotter, error)) *cobra.Command {
	var timeout time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Capture a frame and upload it",
		Long: `Grabs one frame from the camera stream with ffmpeg and uploads it to the configured bucket. ` +
			`Uses the same capture and storage settings as the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if newSnapshotter == nil {
				return errors.New("snapshot service not configured")
			}
			svc, err := newSnapshotter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := svc.Capture(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					URL       string `json:"url"`
					Key       string `json:"key"`
					LocalPath string `json:"local_path"`
					Size      int64  `json:"size"`
				}{result.URL, result.Key, result.LocalPath, result.Size})
			}

			fmt.Fprintf(out, "Screenshot saved to %s (%d bytes)\n", result.LocalPath, result.Size)
			fmt.Fprintf(out, "Uploaded to %s\n", result.URL)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout for capture and upload")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}
