package cmd

import (
	"fmt"

	"github.com/smazurov/doorbell/internal/mediamtx"
	"github.com/spf13/cobra"
)

// CreateMediamtxConfigCmd creates the mediamtx-config command.
// defaultOutput supplies the configured MediaMTX config path when --output is not given.
func CreateMediamtxConfigCmd(defaultOutput func() string) *cobra.Command {
	var output string
	var pathName string
	var source string
	var rtspAddress string
	var rtspTransport string
	var onDemand bool

	cmd := &cobra.Command{
		Use:   "mediamtx-config",
		Short: "Write a MediaMTX configuration for the camera",
		Long: `Writes (or updates) a MediaMTX YAML configuration that publishes the camera on the given path. ` +
			`Existing paths in the file are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" && defaultOutput != nil {
				output = defaultOutput()
			}
			if output == "" {
				output = mediamtx.DefaultConfigFile
			}

			cfg, err := mediamtx.LoadFromFile(output)
			if err != nil {
				return err
			}
			if rtspAddress != "" {
				cfg.RTSPAddress = rtspAddress
			}

			path := mediamtx.PathConfig{
				Source:         source,
				SourceOnDemand: onDemand,
			}
			if rtspTransport != "" {
				path.RTSPTransport = rtspTransport
			}
			if err := cfg.AddPath(pathName, path); err != nil {
				return err
			}

			if err := cfg.WriteToFile(output); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			fmt.Fprintf(cmd.OutOrStdout(), "Camera available at %s\n", cfg.RTSPURL("localhost", pathName))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "MediaMTX config file to write (defaults to mediamtx.config_file)")
	cmd.Flags().StringVar(&pathName, "path", mediamtx.DefaultPathName, "Path name to publish the camera on")
	cmd.Flags().StringVar(&source, "source", "rpiCamera", "Path source (rpiCamera, rtsp://..., publisher)")
	cmd.Flags().StringVar(&rtspAddress, "rtsp-address", "", "RTSP listen address (keeps the file's value when empty)")
	cmd.Flags().StringVar(&rtspTransport, "rtsp-transport", "", "Transport for RTSP sources (tcp, udp, automatic)")
	cmd.Flags().BoolVar(&onDemand, "on-demand", false, "Only pull the source while readers are connected")

	return cmd
}
