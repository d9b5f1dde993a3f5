package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
	"rfdetr-toolkit/internal/core/services"
)

const defaultServerTestImage = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcRFaXxL6kgRtQ3NcpKzp3A1ghqJ4XiYEN1crQ&s"

type evalOptions struct {
	threshold   float64
	apiKey      string
	workspace   string
	project     string
	modelType   string
	version     int
	weightsDir  string
	ckptName    string
	serverImage string
	testImage   string
	local       bool
}

func (a *app) newEvalCmd() *cobra.Command {
	var o evalOptions
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate trained weights locally or on the hosted service",
		Long: `eval runs one prediction with the trained checkpoint. By default the
weights are uploaded and the hosted model predicts on SERVER_TEST_IMAGE.
With --LOCAL the detector runs on TEST_IMAGE and the platform is not used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.EvaluationRequest{
				Local:          o.local,
				Checkpoint:     domain.Checkpoint{Dir: o.weightsDir, Name: o.ckptName},
				Threshold:      o.threshold,
				ModelType:      o.modelType,
				ServerImageURL: o.serverImage,
				TestImage:      o.testImage,
				Progress:       consoleProgress(cmd.OutOrStdout()),
			}

			if err := req.Checkpoint.Verify(); err != nil {
				return err
			}

			var platform output.PlatformClient
			var detector output.Detector
			if o.local {
				d, release := a.detector()
				defer release()
				detector = d
			} else {
				if err := domain.ValidateAPIKey(o.apiKey); err != nil {
					return err
				}
				ref, err := domain.NewVersionRef(o.workspace, o.project, o.version)
				if err != nil {
					return err
				}
				req.Version = ref
				platform = a.newPlatform(&a.cfg.Platform, o.apiKey)
			}
			cmd.SilenceUsage = true

			w := cmd.OutOrStdout()
			printBanner(w, "RF-DETR Deployment & Inference")
			if o.local {
				fmt.Fprintln(w, "Running inference locally")
			} else {
				fmt.Fprintln(w, "Running inference on Roboflow server")
			}

			res, err := services.NewEvaluationService(platform, detector).Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if res.Mode == services.EvalModeHosted {
				printBanner(w, "PREDICTIONS")
			}
			printDetections(w, res.Prediction)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&o.threshold, "THRESHOLD", 0.5, "threshold for generating bbox predictions")
	f.StringVar(&o.apiKey, "ROBOFLOW_API_KEY", domain.PlaceholderAPIKey, "Roboflow API key for account recognition")
	f.StringVar(&o.workspace, "WORKSPACE_ID", "specified_workspace", "Roboflow workspace ID")
	f.StringVar(&o.project, "PROJECT_ID", "football-players-detection-zolkr", "project holding the version to deploy to")
	f.StringVar(&o.modelType, "MODEL_TYPE", "rfdetr-base", "model architecture")
	f.IntVar(&o.version, "VERSION_NUMBER", 1, "dataset version number")
	f.StringVar(&o.weightsDir, "WEIGHTS_DIR", "./checkpoints/", "directory containing the checkpoint file")
	f.StringVar(&o.ckptName, "CKPT_NAME", "checkpoint.pth", "name of the checkpoint file in the weights directory")
	f.StringVar(&o.serverImage, "SERVER_TEST_IMAGE", defaultServerTestImage, "URL of the image for hosted inference")
	f.StringVar(&o.testImage, "TEST_IMAGE", "./football-players-detection-18/test/4b770a_1_4_png.rf.af9607e58333ddc25aef684b88d5e54a.jpg", "path to the local test image")
	f.BoolVar(&o.local, "LOCAL", false, "run inference locally instead of on the hosted service")
	return cmd
}
