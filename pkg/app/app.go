package app

import (
	"net/url"
	"sync"

	"ws3000/pkg/app/config"
	"ws3000/pkg/mqtt"
	"ws3000/pkg/simulator"
	"ws3000/pkg/usb"
	"ws3000/pkg/ws3000"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// dataSource delivers one current-values packet per call.
// Implemented by the hardware station and the simulator.
type dataSource interface {
	GetCurrentValues() (ws3000.Packet, error)
	Close() error
}

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// source delivers the measurement packets (hardware station or simulator)
	source dataSource

	// dial overrides the usb transport factory, tests inject failing links
	dial ws3000.DialFunc

	// current holds the last captured packet for the web api
	current struct {
		sync.RWMutex
		packet ws3000.Packet
	}

	// shutdown signals a fatal datalogger error to the main goroutine
	shutdown chan struct{}
	// quit stops the datalogger loop
	quit chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    cfg,
		urlParsed: u,

		web:  fiber.New(),
		mqtt: mqtt.New(),

		shutdown: make(chan struct{}),
		quit:     make(chan struct{}),
	}, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.runDatalogger()

	return nil
}

// init opens the data source and the mqtt connection.
func (app *App) init() (err error) {
	if app.source, err = app.openSource(); err != nil {
		debug.ErrorLog.Printf("can't open station: %v", err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may access
	// handlers which must be initialized before.
	app.initDefaultRoutes()

	return nil
}

// openSource creates the configured data source. In simulation mode no usb
// device is required at all; the synthetic generator never touches the
// transport or the retry machinery.
func (app *App) openSource() (dataSource, error) {
	sensorMap := ws3000.DefaultSensorMap()
	sensorMap.Merge(app.config.Station.SensorMap)
	debug.InfoLog.Printf("sensor map is %v", sensorMap)

	if app.config.Station.Mode == config.ModeSimulation {
		debug.InfoLog.Print("running in simulation mode")
		return simulator.New(sensorMap), nil
	}

	stn := app.config.Station
	dial := app.dial
	if dial == nil {
		dial = func() (ws3000.Transport, error) {
			return usb.Open(stn.VendorID, stn.ProductID, stn.Interface, stn.Timeout)
		}
	}

	s, err := ws3000.Connect(ws3000.Config{
		Model:           stn.Model,
		MaxTries:        stn.MaxTries,
		WaitBeforeRetry: stn.WaitBeforeRetry,
		PacketSize:      stn.PacketSize,
		SensorMap:       sensorMap,
	}, dial)
	if err != nil {
		// a nil *Station must not end up as a typed non-nil data source
		return nil, err
	}

	return s, nil
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on a fatal datalogger error. (see cmd/ws3000.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Close stops the datalogger loop and releases the data source and the broker
// connection.
func (app *App) Close() error {
	close(app.quit)

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	if app.source != nil {
		_ = app.source.Close()
	}

	return nil
}
