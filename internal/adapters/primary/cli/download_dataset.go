package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/services"
)

type downloadDatasetOptions struct {
	apiKey    string
	workspace string
	project   string
	version   int
	format    string
	location  string
}

func (a *app) newDownloadDatasetCmd() *cobra.Command {
	var o downloadDatasetOptions
	cmd := &cobra.Command{
		Use:   "download-dataset",
		Short: "Download a dataset version in the requested format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidateAPIKey(o.apiKey); err != nil {
				return err
			}
			ref, err := domain.NewVersionRef(o.workspace, o.project, o.version)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			svc := services.NewDatasetService(a.newPlatform(&a.cfg.Platform, o.apiKey), a.extractor, a.pollConfig())
			res, err := svc.Download(cmd.Context(), services.DownloadRequest{
				Version:  ref,
				Format:   o.format,
				Location: o.location,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Location)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.apiKey, "ROBOFLOW_API_KEY", domain.PlaceholderAPIKey, "Roboflow API key for account recognition")
	f.StringVar(&o.workspace, "WORKSPACE_ID", "roboflow-jvuqo", "Roboflow workspace ID")
	f.StringVar(&o.project, "PROJECT_ID", "football-players-detection-3zvbc", "project to download from")
	f.IntVar(&o.version, "VERSION_NUMBER", 18, "dataset version number")
	f.StringVar(&o.format, "DATASET_FORMAT", string(domain.DatasetFormatCOCO), "export format")
	f.StringVar(&o.location, "LOCATION", "", `extraction directory (default "./<project>-<version>")`)
	return cmd
}
