package cli

import (
	"github.com/spf13/cobra"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/services"
)

type createProjectOptions struct {
	apiKey        string
	workspace     string
	project       string
	projectType   string
	annotation    string
	datasetRoot   string
	datasetFormat string
	modelType     string
	weightsDir    string
	ckptName      string
}

func (a *app) newCreateProjectCmd() *cobra.Command {
	var o createProjectOptions
	cmd := &cobra.Command{
		Use:   "create-project",
		Short: "Create a project from a local dataset and deploy trained weights to it",
		Long: `create-project creates a new project, uploads the local dataset,
generates a version, waits for it and uploads the trained checkpoint.
Every run creates a new project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ckpt := domain.Checkpoint{Dir: o.weightsDir, Name: o.ckptName}
			if err := ckpt.Verify(); err != nil {
				return err
			}
			if err := domain.ValidateAPIKey(o.apiKey); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			svc := services.NewProjectService(
				a.newPlatform(&a.cfg.Platform, o.apiKey),
				a.pollConfig(),
				a.cfg.Upload.Workers,
				a.readers...,
			)
			res, err := svc.CreateAndDeploy(cmd.Context(), services.CreateProjectRequest{
				Project: domain.ProjectSpec{
					Workspace:  o.workspace,
					Name:       o.project,
					Type:       o.projectType,
					License:    domain.DefaultProjectLicense,
					Annotation: o.annotation,
				},
				DatasetRoot:   o.datasetRoot,
				DatasetFormat: domain.ParseDatasetFormat(o.datasetFormat),
				ModelType:     o.modelType,
				Checkpoint:    ckpt,
				Progress:      consoleProgress(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}

			printDeployed(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.apiKey, "ROBOFLOW_API_KEY", domain.PlaceholderAPIKey, "Roboflow API key for account recognition")
	f.StringVar(&o.workspace, "WORKSPACE_ID", "specified_workspace", "Roboflow workspace ID")
	f.StringVar(&o.project, "PROJECT_ID", "football-players-detection", "name of the project to create")
	f.StringVar(&o.projectType, "PROJECT_TYPE", "object-detection", "project type")
	f.StringVar(&o.annotation, "ANNOTATION", "football-players", "annotation group")
	f.StringVar(&o.datasetRoot, "DATASET_ROOT", "./football-players-detection-18/", "local dataset root path")
	f.StringVar(&o.datasetFormat, "DATASET_FORMAT", string(domain.DatasetFormatCOCO), "format of the local dataset")
	f.StringVar(&o.modelType, "MODEL_TYPE", "rfdetr-base", "model architecture")
	f.StringVar(&o.weightsDir, "WEIGHTS_DIR", "./checkpoints/", "directory containing the checkpoint file")
	f.StringVar(&o.ckptName, "CKPT_NAME", "checkpoint.pth", "name of the checkpoint file in the weights directory")
	return cmd
}
