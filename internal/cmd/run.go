package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-narrator/internal/config"
	"github.com/teslashibe/go-narrator/internal/log"
	"github.com/teslashibe/go-narrator/pkg/assistant"
	"github.com/teslashibe/go-narrator/pkg/audio"
	"github.com/teslashibe/go-narrator/pkg/camera"
	"github.com/teslashibe/go-narrator/pkg/caption"
	"github.com/teslashibe/go-narrator/pkg/detection"
	"github.com/teslashibe/go-narrator/pkg/detection/yolo"
	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/exchange"
	"github.com/teslashibe/go-narrator/pkg/journal"
	"github.com/teslashibe/go-narrator/pkg/narration"
	"github.com/teslashibe/go-narrator/pkg/web"
)

var (
	runCamera        int
	runVideo         string
	runLoop          bool
	runPreset        string
	runModel         string
	runVisionModel   string
	runDetectorModel string
	runPort          string
	runJournal       string
	runMQTT          string
	runMute          bool
	runNoWeb         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the narrator",
	Long: `Start the reflex and cognitive loops on a camera or video file.

Press Enter (or POST /api/narrate) to hear a description of the scene.
Approaching objects are announced without being asked.`,
	RunE: runNarrator,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runCamera, "camera", config.DefaultCameraID, "Camera device index")
	runCmd.Flags().StringVar(&runVideo, "video", "", "Read frames from a video file instead of a camera")
	runCmd.Flags().BoolVar(&runLoop, "loop", false, "Restart the video file at its end")
	runCmd.Flags().StringVar(&runPreset, "preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	runCmd.Flags().StringVar(&runModel, "model", "", "Narration model")
	runCmd.Flags().StringVar(&runVisionModel, "vision-model", "", "Captioning model")
	runCmd.Flags().StringVar(&runDetectorModel, "detector-model", "", "Path to the YOLO ONNX model")
	runCmd.Flags().StringVar(&runPort, "port", "", "Dashboard port")
	runCmd.Flags().StringVar(&runJournal, "journal", "", "SQLite file for the hazard and narration journal")
	runCmd.Flags().StringVar(&runMQTT, "mqtt", "", "MQTT broker URL for event forwarding")
	runCmd.Flags().BoolVar(&runMute, "mute", false, "Do not play audio")
	runCmd.Flags().BoolVar(&runNoWeb, "no-web", false, "Do not serve the dashboard")
}

// applyRunFlags overrides the environment with flags the user set.
func applyRunFlags(cmd *cobra.Command, cfg *config.App) {
	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.CameraID = runCamera
	}
	if flags.Changed("video") {
		cfg.VideoPath = runVideo
	}
	if flags.Changed("model") {
		cfg.LLMModel = runModel
	}
	if flags.Changed("vision-model") {
		cfg.VisionModel = runVisionModel
	}
	if flags.Changed("detector-model") {
		cfg.DetectorModel = runDetectorModel
	}
	if flags.Changed("port") {
		cfg.HTTPPort = runPort
	}
	if flags.Changed("journal") {
		cfg.JournalPath = runJournal
	}
	if flags.Changed("mqtt") {
		cfg.MQTTBroker = runMQTT
	}
	if flags.Changed("mute") {
		cfg.Muted = runMute
	}
}

func cameraConfig(cfg *config.App) (camera.Config, error) {
	camCfg := camera.Config{Width: cfg.Width, Height: cfg.Height, Framerate: cfg.FPS}
	if runPreset != "" {
		preset := camera.GetPreset(runPreset)
		if preset == nil {
			return camera.Config{}, fmt.Errorf("unknown camera preset %q (available: %s)", runPreset, strings.Join(camera.PresetNames(), ", "))
		}
		camCfg = *preset
	}
	camCfg.Device = cfg.CameraID
	camCfg.VideoPath = cfg.VideoPath
	camCfg.Loop = runLoop

	if problems := camCfg.Validate(); len(problems) > 0 {
		return camera.Config{}, fmt.Errorf("camera config: %s", strings.Join(problems, "; "))
	}
	return camCfg, nil
}

func runNarrator(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	applyRunFlags(cmd, cfg)
	logger := log.Component("narrator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	camCfg, err := cameraConfig(cfg)
	if err != nil {
		return err
	}
	cam, err := camera.Open(camCfg, log.Component("camera"))
	if err != nil {
		return err
	}
	defer cam.Close()

	detCfg := detection.DefaultConfig()
	detCfg.ModelPath = cfg.DetectorModel
	detCfg.Confidence = cfg.DetectorConfidence
	detector, err := yolo.New(detCfg, log.Component("detection"))
	if err != nil {
		return fmt.Errorf("failed to load detector: %w", err)
	}
	defer detector.Close()

	provider, err := newProvider(cfg, log.Component("inference"))
	if err != nil {
		return err
	}
	defer provider.Close()

	speech, err := newSpeech(cfg, log.Component("tts"))
	if err != nil {
		return err
	}
	speechSink, toneSink, err := newSinks(cfg, log.Component("audioio"))
	if err != nil {
		speech.Close()
		return err
	}
	renderer := audio.NewSpeechRenderer(speech, speechSink, toneSink, audio.DefaultTone())
	defer renderer.Close()

	scheduler := audio.NewScheduler(renderer, audio.Config{Logger: log.Component("audio")})

	// The dashboard is appended once it exists; it needs the system.
	publishers := events.Multi{}

	var store *journal.Journal
	if cfg.JournalPath != "" {
		store, err = journal.Open(ctx, cfg.JournalPath, log.Component("journal"))
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		publishers = append(publishers, store)
	}

	if cfg.MQTTBroker != "" {
		mqttCfg := events.DefaultMQTTConfig()
		mqttCfg.Broker = cfg.MQTTBroker
		mqttCfg.Topic = cfg.MQTTTopic
		mqttCfg.Logger = log.Component("mqtt")
		forwarder, err := events.DialMQTT(mqttCfg)
		if err != nil {
			logger.Warn("event forwarding disabled", "broker", cfg.MQTTBroker, "error", err)
		} else {
			defer forwarder.Close()
			publishers = append(publishers, forwarder)
		}
	}

	sysCfg := assistant.DefaultConfig()
	sysCfg.ReflexFPS = camCfg.Framerate
	sysCfg.CaptionTimeout = cfg.LLMTimeout
	sysCfg.NarrateTimeout = cfg.LLMTimeout + cfg.LLMTimeout/2
	sysCfg.Logger = log.Component("assistant")

	system, err := assistant.New(assistant.Components{
		Source:    cam,
		Detector:  detector,
		Scheduler: scheduler,
		Captioner: caption.New(provider, caption.Config{Timeout: cfg.LLMTimeout, Logger: log.Component("caption")}),
		Narrator:  narration.New(provider, narration.Config{Model: cfg.LLMModel, Timeout: cfg.LLMTimeout, Logger: log.Component("narration")}),
		Publisher: &publishers,
	}, sysCfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if !runNoWeb {
		server := web.NewServer(system, web.Config{Port: cfg.HTTPPort, Logger: log.Component("web")})
		if store != nil {
			server.SetJournal(store)
		}
		publishers = append(publishers, server)
		g.Go(func() error { return server.Start(ctx) })
	}

	g.Go(func() error { return system.Run(ctx) })

	// Scanning stdin cannot be cancelled, so it stays outside the group.
	go readTriggers(ctx, os.Stdin, system)

	logger.Info("narrator running",
		"input", camCfg.Label(),
		"model", cfg.LLMModel,
		"vision_model", cfg.VisionModel,
		"tts", cfg.TTSProvider,
		"muted", cfg.Muted,
	)
	fmt.Println("Press Enter to describe the scene, Ctrl+C to quit.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("narrator stopped", "status", system.Status())
	return nil
}

type triggerer interface {
	Trigger(source string) exchange.Trigger
}

// readTriggers requests a narration for every line read from r.
func readTriggers(ctx context.Context, r io.Reader, t triggerer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		t.Trigger("keyboard")
	}
}
