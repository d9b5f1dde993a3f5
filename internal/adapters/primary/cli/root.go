package cli

import (
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rfdetr-toolkit/internal/adapters/secondary/archive"
	"rfdetr-toolkit/internal/adapters/secondary/coco"
	"rfdetr-toolkit/internal/adapters/secondary/rfdetr"
	"rfdetr-toolkit/internal/adapters/secondary/roboflow"
	"rfdetr-toolkit/internal/config"
	output "rfdetr-toolkit/internal/core/ports/output"
	"rfdetr-toolkit/internal/core/services"
)

// PlatformFactory builds a platform client once the API key is known.
type PlatformFactory func(cfg *config.PlatformConfig, apiKey string) output.PlatformClient

type DetectorFactory func(cfg *config.DetectorConfig) output.Detector

type app struct {
	cfg      *config.Config
	cfgFile  string
	logLevel string

	newPlatform PlatformFactory
	newDetector DetectorFactory
	readers     []output.DatasetReader
	extractor   output.ArchiveExtractor
}

type Option func(*app)

// WithConfig skips loading configuration from file and environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *app) { a.cfg = cfg }
}

func WithPlatformFactory(f PlatformFactory) Option {
	return func(a *app) { a.newPlatform = f }
}

func WithDetectorFactory(f DetectorFactory) Option {
	return func(a *app) { a.newDetector = f }
}

// NewRootCmd creates the rfdetr command tree. Tests pass options to replace
// the platform and detector.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		newPlatform: func(cfg *config.PlatformConfig, apiKey string) output.PlatformClient {
			return roboflow.NewClient(cfg, apiKey)
		},
		newDetector: func(cfg *config.DetectorConfig) output.Detector {
			return rfdetr.NewDetector(cfg)
		},
		readers:   []output.DatasetReader{coco.NewReader()},
		extractor: archive.NewZipExtractor(),
	}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "rfdetr",
		Short: "Train RF-DETR detectors and manage them on Roboflow",
		Long: `rfdetr drives the dataset platform and the RF-DETR detector:
create a project from a local dataset, download dataset versions, train
locally and evaluate trained weights locally or on the hosted service.`,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")

	cmd.AddCommand(
		a.newCreateProjectCmd(),
		a.newDownloadDatasetCmd(),
		a.newEvalCmd(),
		a.newTrainCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.cfg == nil {
		cfg, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logLevel != "" {
		a.cfg.Logger.Level = a.logLevel
	}
	InitLogger(&a.cfg.Logger)
	return nil
}

// InitLogger applies level and format to the package-level logger.
func InitLogger(cfg *config.LoggerConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func (a *app) pollConfig() services.PollConfig {
	return services.PollConfig{
		Interval: a.cfg.Poll.Interval,
		Timeout:  a.cfg.Poll.Timeout,
	}
}

// detector builds a detector and a func that releases it.
func (a *app) detector() (output.Detector, func()) {
	d := a.newDetector(&a.cfg.Detector)
	return d, func() {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Debug("close detector")
			}
		}
	}
}
