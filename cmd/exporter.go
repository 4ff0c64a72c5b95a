package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tapocam-cli/internal/camera"
	"tapocam-cli/internal/config"
)

// Variables to hold flag values
var (
	expListenPort string
	serviceAction string // "install", "uninstall", "start", "stop"
)

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	exit    chan struct{}
	server  *http.Server
	profile config.Profile
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	registry := prometheus.NewRegistry()
	collector := &ptzCollector{
		profile:      p.profile,
		profileToken: flagMediaProfile,
		log:          zap.NewNop(),
	}
	registry.MustRegister(collector)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	addr := fmt.Sprintf(":%s", expListenPort)
	p.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Printf("Tapo camera exporter listening on %s", addr)

	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("HTTP Server error: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	// Stop should not block. Signal the app to stop.
	log.Println("Stopping service...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
	close(p.exit)
	return nil
}

// --- COLLECTOR LOGIC ---

// ptzCollector opens a fresh session per scrape. Tapo cameras drop idle
// connections aggressively, so holding a session between scrapes buys
// nothing.
type ptzCollector struct {
	profile      config.Profile
	profileToken string
	log          *zap.Logger
	mutex        sync.Mutex
}

var (
	upDesc = prometheus.NewDesc(
		"tapocam_up", "Was the last scrape successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"tapocam_scrape_duration_seconds", "Time taken to scrape the camera.", nil, nil,
	)
	deviceInfoDesc = prometheus.NewDesc(
		"tapocam_device_info", "Device identity (always 1).", []string{"manufacturer", "model", "firmware", "serial"}, nil,
	)
	positionDesc = prometheus.NewDesc(
		"tapocam_position", "Current PTZ position per axis.", []string{"axis"}, nil,
	)
	presetsTotalDesc = prometheus.NewDesc(
		"tapocam_presets_total", "Number of stored presets.", nil, nil,
	)
)

func (c *ptzCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- deviceInfoDesc
	ch <- positionDesc
	ch <- presetsTotalDesc
}

func (c *ptzCollector) Collect(ch chan<- prometheus.Metric) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	start := time.Now()
	success := 1.0

	session, err := camera.Connect(c.profile, c.profileToken, sessionTimeout, c.log)
	if err != nil {
		log.Printf("Error connecting to camera: %v", err)
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
		return
	}

	ch <- prometheus.MustNewConstMetric(deviceInfoDesc, prometheus.GaugeValue, 1,
		session.Info.Manufacturer, session.Info.Model, session.Info.FirmwareVersion, session.Info.SerialNumber)

	if pos, ok, err := session.PTZStatus(); err == nil && ok {
		ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Pan, "pan")
		ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Tilt, "tilt")
		ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Zoom, "zoom")
	} else if err != nil {
		success = 0.0
		log.Printf("Error scraping position: %v", err)
	}

	if presets, err := session.Presets(); err == nil {
		ch <- prometheus.MustNewConstMetric(presetsTotalDesc, prometheus.GaugeValue, float64(len(presets)))
	} else {
		success = 0.0
		log.Printf("Error scraping presets: %v", err)
	}

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

// --- COMMAND ---

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start Prometheus Exporter service",
	Long: `Starts a long-running HTTP server that exposes camera metrics.
Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Resolve the connection profile once, up front.
		profile, err := resolveProfile()
		if err != nil {
			fail(err)
		}

		// 2. Define Service Configuration
		svcConfig := &service.Config{
			Name:        "tapocam-exporter",
			DisplayName: "Tapo Camera Prometheus Exporter",
			Description: "Exposes Tapo camera PTZ metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--address", profile.Address,
				"--username", profile.Username,
				"--password", profile.Password,
				"--port", fmt.Sprintf("%d", profile.Port),
				"--listen-port", expListenPort,
			},
		}

		prg := &program{profile: profile}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			log.Fatal(err)
		}

		// 3. Handle Service Control Actions (Install, Start, Stop, Uninstall)
		if serviceAction != "" {
			if serviceAction == "install" && profile.Password == "" {
				log.Fatal("Error: You must provide credentials (--username, --password) to install the service.")
			}

			err = service.Control(s, serviceAction)
			if err != nil {
				log.Fatalf("Failed to %s service: %v", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// 4. Run the Service (Blocking)
		logger, err := s.Logger(nil)
		if err != nil {
			log.Fatal(err)
		}
		if err = s.Run(); err != nil {
			logger.Error(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expListenPort, "listen-port", "9834", "Port to serve /metrics on")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
