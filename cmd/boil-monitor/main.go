// Command boil-monitor watches a kettle probe and alerts when the water boils.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/boil-monitor/internal/config"
	"github.com/sweeney/boil-monitor/internal/gpio"
	"github.com/sweeney/boil-monitor/internal/heartbeat"
	"github.com/sweeney/boil-monitor/internal/logger"
	"github.com/sweeney/boil-monitor/internal/logic"
	"github.com/sweeney/boil-monitor/internal/metrics"
	"github.com/sweeney/boil-monitor/internal/mqtt"
	"github.com/sweeney/boil-monitor/internal/notify"
	"github.com/sweeney/boil-monitor/internal/portal"
	"github.com/sweeney/boil-monitor/internal/sensor"
	"github.com/sweeney/boil-monitor/internal/session"
	"github.com/sweeney/boil-monitor/internal/settings"
	"github.com/sweeney/boil-monitor/internal/status"
	"github.com/sweeney/boil-monitor/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "boil-monitor",
		Short:         "Kettle boil detector with Pushover and Alexa alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $BOILMON_CONFIG)")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newStateCmd(&configPath))
	root.AddCommand(newConfigureCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr), nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor until SIGINT or SIGTERM",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return run(cfg, log)
		},
	}
}

func newStateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print one temperature reading, the button level and the saved configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return printState(cmd, cfg, log)
		},
	}
}

func newConfigureCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Open the configuration portal once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := settings.OpenSQLite(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer store.Close()

			dispatcher := newDispatcher(cfg, log)
			current := settings.LoadConfiguration(store)
			dispatcher.Configure(current)

			sess := session.New(portal.NewHTTPPortal(cfg.PortalAddr, log), store, dispatcher, cfg.PortalTimeout, log)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			next, err := sess.Run(ctx, current)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", next)
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective daemon configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newDispatcher(cfg *config.Config, log logrus.FieldLogger) *notify.Dispatcher {
	client := &http.Client{Timeout: cfg.NotifyTimeout}
	return notify.NewDispatcher(log,
		notify.NewPushover(cfg.PushoverURL, client),
		notify.NewVoice(cfg.VoiceURL, client, cfg.VoiceToken, cfg.VoiceDevice),
	)
}

// recordResults counts every dispatch outcome on the metrics and the status page.
func recordResults(mtr *metrics.Manager, tracker *status.Tracker) func(notify.Result) {
	return func(res notify.Result) {
		mtr.RecordNotification(string(res.Channel), string(res.Outcome()))
		tracker.RecordNotification(string(res.Channel), string(res.Outcome()))
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		PollMs:     cfg.PollInterval.Milliseconds(),
		SampleMs:   cfg.SampleInterval.Milliseconds(),
		DebounceMs: cfg.Debounce.Milliseconds(),
		StableMs:   cfg.StableTime.Milliseconds(),
		Heartbeat:  cfg.Heartbeat,
		Broker:     cfg.Broker,
		HTTPPort:   cfg.HTTPAddr,
	}
}

func printState(cmd *cobra.Command, cfg *config.Config, log logrus.FieldLogger) error {
	button, err := gpio.NewRealButton(cfg.ButtonChip, cfg.ButtonPin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer button.Close()

	reader := sensor.NewW1Reader(cfg.SensorPath)
	defer reader.Close()

	store, err := settings.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	pressed, err := button.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	r := sensor.NewSampler(reader, cfg.SampleInterval).Sample(time.Now())

	out := cmd.OutOrStdout()
	if r.Valid {
		_, _ = fmt.Fprintf(out, "temperature: %.2f C\n", r.ValueC)
	} else {
		_, _ = fmt.Fprintln(out, "temperature: sensor fault")
	}
	_, _ = fmt.Fprintf(out, "button: %s\n", map[bool]string{true: "pressed", false: "released"}[pressed])
	_, _ = fmt.Fprintf(out, "configuration: %s\n", settings.LoadConfiguration(store))
	return nil
}

func run(cfg *config.Config, log *logrus.Logger) error {
	store, err := settings.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer store.Close()
	appCfg := settings.LoadConfiguration(store)

	button, err := gpio.NewRealButton(cfg.ButtonChip, cfg.ButtonPin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer button.Close()

	reader := sensor.NewW1Reader(cfg.SensorPath)
	defer reader.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	mtr := metrics.NewManager()

	dispatcher := newDispatcher(cfg, log)
	dispatcher.Configure(appCfg)
	dispatcher.OnResult(recordResults(mtr, tracker))

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p := mqtt.NewRealPublisher(cfg.Broker, "boil-monitor", log)
		publisher, mqttStatus = p, p
	} else {
		log.Info("mqtt disabled")
	}
	defer publisher.Close()

	m := &monitor{
		button:     button,
		sampler:    sensor.NewSampler(reader, cfg.SampleInterval),
		debouncer:  logic.NewDebouncer(cfg.Debounce),
		detector:   logic.NewBoilDetector(cfg.StableTime),
		session:    session.New(portal.NewHTTPPortal(cfg.PortalAddr, log), store, dispatcher, cfg.PortalTimeout, log),
		alerts:     dispatcher,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		metrics:    mtr,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	m.setConfiguration(appCfg)
	m.publishStatus(mqtt.EventStartup, "")

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, mtr.Handler(), log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	if cfg.Heartbeat != "" && cfg.Broker != "" {
		hb, err := heartbeat.New(cfg.Heartbeat, func() {
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			snap := tracker.Snapshot()
			if err := publisher.PublishSystem(mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      mqtt.EventHeartbeat,
				RawPayload: status.FormatStatusEvent(snap, mqtt.EventHeartbeat, ""),
			}); err != nil {
				log.WithError(err).Warn("heartbeat publish error")
			}
		}, log)
		if err != nil {
			return err
		}
		hb.Start()
		defer hb.Stop()
	}

	log.WithFields(logrus.Fields{
		"poll":      cfg.PollInterval,
		"sample":    cfg.SampleInterval,
		"debounce":  cfg.Debounce,
		"stable":    cfg.StableTime,
		"threshold": appCfg.BoilingThresholdC,
		"broker":    cfg.Broker,
	}).Info("started")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	// A signal cancels any open portal, then reaches the loop.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rawSig := make(chan os.Signal, 1)
	signal.Notify(rawSig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(rawSig)
	sig := make(chan os.Signal, 1)
	go func() {
		s := <-rawSig
		cancel()
		sig <- s
	}()

	return m.runLoop(ctx, ticker.C, sig)
}
