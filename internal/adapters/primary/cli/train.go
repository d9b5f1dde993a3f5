package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/services"
)

func (a *app) newTrainCmd() *cobra.Command {
	var p domain.TrainParams
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train RF-DETR on a local COCO dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := p.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			detector, release := a.detector()
			defer release()

			res, err := services.NewTrainingService(detector).Train(cmd.Context(), p)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Training finished. Outputs in %s\n", res.OutputDir)
			if res.Checkpoint != "" {
				fmt.Fprintf(w, "  Checkpoint: %s\n", res.Checkpoint)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.DatasetDir, "DATASET_ROOT", "./football-players-detection-18/", "local dataset root path")
	f.IntVar(&p.Epochs, "EPOCHS", 10, "number of epochs to train for")
	f.IntVar(&p.BatchSize, "BATCH_SIZE", 16, "number of samples per iteration")
	f.IntVar(&p.GradAccumSteps, "GRAD_ACCUM_STEPS", 1, "gradient accumulation steps; scales the effective batch size")
	f.Float64Var(&p.LearningRate, "LR", 1e-4, "learning rate")
	f.StringVar(&p.OutputDir, "OUTPUT_DIR", "./outputs/", "directory for training outputs")
	return cmd
}
