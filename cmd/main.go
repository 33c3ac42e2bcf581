package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/entitygrid/archive"
	"github.com/aukilabs/entitygrid/featureflag"
	gridhttp "github.com/aukilabs/entitygrid/http"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/modules"
	"github.com/aukilabs/entitygrid/modules/neighbors"
	"github.com/aukilabs/entitygrid/modules/occupancy"
	"github.com/aukilabs/entitygrid/placement"
	"github.com/aukilabs/entitygrid/smoketest"
	gwebsocket "github.com/aukilabs/entitygrid/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The entitygrid version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "entitygrid_info",
		Help:        "Entitygrid information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"ENTITYGRID_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"ENTITYGRID_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"ENTITYGRID_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	ServerID           string        `cli:""        env:"ENTITYGRID_SERVER_ID"            help:"The prefix of the global session ids."`
	LogLevel           string        `cli:""        env:"ENTITYGRID_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"ENTITYGRID_LOG_INDENT"           help:"Indent logs."`
	CellSize           float64       `cli:""        env:"ENTITYGRID_CELL_SIZE"            help:"The size of a grid cell in world units."`
	UpOffset           float64       `cli:""        env:"ENTITYGRID_UP_OFFSET"            help:"The height at which objects are placed above the grid."`
	SettingsFile       string        `cli:""        env:"ENTITYGRID_SETTINGS_FILE"        help:"A YAML file that overrides the grid settings."`
	MaxRadius          int           `cli:""        env:"ENTITYGRID_MAX_RADIUS"           help:"The largest radius accepted by neighbor queries."`
	AppKeys            []string      `cli:""        env:"ENTITYGRID_APP_KEYS"             help:"Comma separated app keys allowed to connect. Empty allows all."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"ENTITYGRID_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"ENTITYGRID_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	FrameDuration      time.Duration `cli:",hidden" env:"ENTITYGRID_FRAME_DURATION"       help:"The duration of a session frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"ENTITYGRID_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Archive            archiveConfig `cli:",hidden" env:"-"                               help:"Session archive configuration."`
	Events             eventsConfig  `cli:",hidden" env:"-"                               help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"ENTITYGRID_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                               help:"Show version."`
	Help               bool          `cli:""        env:"-"                               help:"Show help."`
}

type archiveConfig struct {
	Endpoint  string        `cli:",hidden" env:"ENTITYGRID_ARCHIVE_ENDPOINT"   help:"Endpoint where the grids of closed sessions are posted."`
	QueueSize int           `cli:",hidden" env:"ENTITYGRID_ARCHIVE_QUEUE_SIZE" help:"The number of snapshots waiting to be archived."`
	Timeout   time.Duration `cli:",hidden" env:"ENTITYGRID_ARCHIVE_TIMEOUT"    help:"The time to post a snapshot."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"ENTITYGRID_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"ENTITYGRID_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"ENTITYGRID_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"ENTITYGRID_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	settings := placement.DefaultSettings()

	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		ServerID:           "entitygrid",
		LogLevel:           logs.InfoLevel.String(),
		CellSize:           float64(settings.CellSize),
		UpOffset:           float64(settings.UpOffset),
		MaxRadius:          neighbors.DefaultMaxRadius,
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 15,
		LogSummaryInterval: time.Minute,
		Archive: archiveConfig{
			QueueSize: 128,
			Timeout:   time.Second * 10,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts entitygrid server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	settings, err := loadSettings(conf)
	if err != nil {
		logs.Fatal(err)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "entitygrid",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	var archiveChan chan archive.Snapshot
	if conf.Archive.Endpoint != "" {
		archiveChan = make(chan archive.Snapshot, conf.Archive.QueueSize)
		archiveHandler := archive.Handler{
			Endpoint:     conf.Archive.Endpoint,
			SnapshotChan: archiveChan,
			Transport:    transport,
			Timeout:      conf.Archive.Timeout,
		}
		archiveHandler.HandleSnapshots(ctx)
	}

	sessions := models.SessionStore{
		ServerID: conf.ServerID,
	}
	featureFlags := featureflag.New(conf.FeatureFlags)

	readinessCheck := func() bool {
		return ctx.Err() == nil
	}

	var service http.ServeMux
	service.Handle("/health", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleHealthCheck)))
	service.Handle("/ready", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleReadyCheck(readinessCheck))))
	service.Handle("/version", gridhttp.HandleWithCORS(http.HandlerFunc(gridhttp.HandleVersion(version))))

	service.Handle("GET /sessions", gridhttp.VerifyAppKeyHandler(conf.AppKeys,
		gridhttp.HandleSessions(&sessions)))
	service.Handle("GET /sessions/{id}/grid", gridhttp.VerifyAppKeyHandler(conf.AppKeys,
		gridhttp.HandleGridDebugInfo(&sessions)))
	service.Handle("GET /sessions/{id}/grid/snapshot", gridhttp.VerifyAppKeyHandler(conf.AppKeys,
		gridhttp.HandleGridSnapshot(&sessions)))
	service.Handle("PUT /sessions/{id}/grid/snapshot", gridhttp.VerifyAppKeyHandler(conf.AppKeys,
		gridhttp.HandleGridRestore(&sessions)))

	service.Handle("POST /smoke-test", gridhttp.VerifyAppKeyHandler(conf.AppKeys,
		smoketest.HandleSmokeTest(ctx, smoketest.Options{
			Endpoint:  conf.PublicEndpoint,
			UserAgent: fmt.Sprintf("entitygrid %s", version),
			SendResult: func(ctx context.Context, res smoketest.Results) error {
				logs.WithTag("from_endpoint", res.FromEndpoint).
					WithTag("to_endpoint", res.ToEndpoint).
					WithTag("status", res.Status).
					WithTag("latency_ms", res.LatencyMilliSec).
					WithTag("error", res.Error).
					Info("smoke test completed")
				return nil
			},
		})))

	service.Handle("/", gridhttp.HandleWithCORS(websocket.Server{
		Handshake: gridhttp.VerifyAppKey(conf.AppKeys),
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh gwebsocket.Handler = &gwebsocket.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				FrameDuration:           conf.FrameDuration,
				Sessions:                &sessions,
				Modules: []modules.Module{
					&occupancy.Module{
						Settings:     settings,
						FeatureFlags: featureFlags,
					},
					&neighbors.Module{
						MaxRadius: int32(conf.MaxRadius),
					},
				},
				FeatureFlags: featureFlags,
				ArchiveChan:  archiveChan,
			}
			h := gwebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = gwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			gwebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", gridhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", gridhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("server_id", conf.ServerID).
		WithTag("cell_size", settings.CellSize).
		WithTag("up_offset", settings.UpOffset).
		WithTag("archive", conf.Archive.Endpoint != "").
		WithTag("feature_flags", featureFlags.List()).
		Info("starting entitygrid server")

	gridhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			gridhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// loadSettings returns the grid settings from the command line, overridden
// by the settings file when one is given.
func loadSettings(conf config) (placement.Settings, error) {
	settings := placement.Settings{
		CellSize: float32(conf.CellSize),
		UpOffset: float32(conf.UpOffset),
	}

	if conf.SettingsFile != "" {
		s, err := placement.LoadSettings(conf.SettingsFile)
		if err != nil {
			return placement.Settings{}, errors.New("error loading grid settings").
				WithTag("file_name", conf.SettingsFile).
				Wrap(err)
		}
		settings = s
	}

	if err := settings.Validate(); err != nil {
		return placement.Settings{}, errors.New("invalid grid settings").Wrap(err)
	}
	return settings, nil
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.ServerID == "" {
		return errors.New("server id is empty")
	}

	if conf.MaxRadius <= 0 || conf.MaxRadius > math.MaxInt32 {
		return errors.New("max radius must be positive").
			WithTag("max_radius", conf.MaxRadius)
	}

	if conf.Archive.Endpoint != "" {
		if _, err := url.ParseRequestURI(conf.Archive.Endpoint); err != nil {
			return errors.New("invalid archive endpoint").Wrap(err)
		}
		if conf.Archive.QueueSize <= 0 {
			return errors.New("archive queue size must be positive")
		}
	}
	return nil
}
