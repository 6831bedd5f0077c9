package station

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/robotalks/uartcam/pkg/framework"
	"github.com/robotalks/uartcam/pkg/serial"
	"github.com/robotalks/uartcam/pkg/sink"
	"github.com/robotalks/uartcam/pkg/sink/mqtt"
	"github.com/robotalks/uartcam/pkg/sink/rawlog"
	"github.com/robotalks/uartcam/pkg/sink/snapshot"
	"github.com/robotalks/uartcam/pkg/sink/websocket"
)

// Config selects the ports to receive from and where frames go.
type Config struct {
	Ports  []string
	NodeID string

	// MQTTBrokerURL e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebSocketAddr is the listen address of the viewer endpoint.
	WebSocketAddr string
	SnapshotDir   string
	RecordDir     string
	// Attempts per port, 0 for unlimited.
	Attempts int

	Serial *serial.Config
}

var defaultConfig = Config{
	Serial: serial.Default(),
}

func init() {
	if val := os.Getenv("UARTCAM_PORTS"); val != "" {
		defaultConfig.Ports = splitList(val)
	}
	if val := os.Getenv("UARTCAM_NODE_ID"); val != "" {
		defaultConfig.NodeID = val
	}
	if val := os.Getenv("UARTCAM_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

type listFlag struct {
	list *[]string
}

func (f listFlag) String() string {
	if f.list == nil {
		return ""
	}
	return strings.Join(*f.list, ",")
}

func (f listFlag) Set(val string) error {
	*f.list = splitList(val)
	return nil
}

func splitList(val string) (items []string) {
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return
}

// SetupFlags sets command line flags, including the serial ones.
func SetupFlags() {
	serial.SetupFlags()
	flag.Var(listFlag{&defaultConfig.Ports}, "ports", "Comma separated serial devices, defaults to -port.")
	flag.StringVar(&defaultConfig.NodeID, "node-id", defaultConfig.NodeID, "Node ID used in published frames, defaults to machine ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL to publish frames.")
	flag.StringVar(&defaultConfig.WebSocketAddr, "ws", defaultConfig.WebSocketAddr, "Listen address for websocket viewers.")
	flag.StringVar(&defaultConfig.SnapshotDir, "png-dir", defaultConfig.SnapshotDir, "Directory to save PNG snapshots.")
	flag.StringVar(&defaultConfig.RecordDir, "record-dir", defaultConfig.RecordDir, "Directory to record raw frames.")
	flag.IntVar(&defaultConfig.Attempts, "attempts", defaultConfig.Attempts, "Receive attempts per port, 0 for unlimited.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NodeID identifies this machine without exposing its raw machine ID.
func NodeID() string {
	id, err := machineid.ProtectedID("uartcam")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "uartcam"
		}
		return id
	}
	return id[:12]
}

// OpenFunc opens the byte source of a port.
type OpenFunc func(*serial.Config) (serial.Port, error)

// Env is the assembled set of stations and sinks.
type Env struct {
	Config   *Config
	Stations []*Station
	Handler  *sink.Mux

	runners []fx.Runnable
	closers []func() error
}

// NewEnv opens all ports with the native serial driver and creates sinks.
func (c *Config) NewEnv() (*Env, error) {
	return c.NewEnvWith(OpenNative)
}

// OpenNative opens a port with the native serial driver.
func OpenNative(conf *serial.Config) (serial.Port, error) {
	port, err := serial.Open(conf)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// NewEnvWith is NewEnv with a custom port opener.
func (c *Config) NewEnvWith(open OpenFunc) (_ *Env, err error) {
	ports := c.Ports
	if len(ports) == 0 && c.Serial != nil && c.Serial.Device != "" {
		ports = []string{c.Serial.Device}
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("at least one port is required")
	}
	nodeID := c.NodeID
	if nodeID == "" {
		nodeID = NodeID()
	}

	env := &Env{Config: c, Handler: &sink.Mux{}}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()

	if c.SnapshotDir != "" {
		w, err := snapshot.NewWriter(c.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
		env.Handler.Add(w)
	}
	if c.RecordDir != "" {
		w, err := rawlog.Create(c.RecordDir, nodeID)
		if err != nil {
			return nil, fmt.Errorf("create raw log: %w", err)
		}
		env.closers = append(env.closers, w.Close)
		env.Handler.Add(w)
	}
	if c.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, nodeID)
		if err != nil {
			return nil, fmt.Errorf("create MQTT publisher: %w", err)
		}
		pub.Ports = ports
		env.runners = append(env.runners, fx.NamedRun("mqtt", pub))
		env.Handler.Add(pub)
	}
	if c.WebSocketAddr != "" {
		hub := websocket.NewHub()
		env.closers = append(env.closers, hub.Close)
		env.runners = append(env.runners, fx.NamedRun("websocket", fx.RunFunc(func(ctx context.Context) error {
			return serveHTTP(ctx, c.WebSocketAddr, hub)
		})))
		env.Handler.Add(hub)
	}

	serialConf := c.Serial
	if serialConf == nil {
		serialConf = serial.Default()
	}
	for _, port := range ports {
		src, err := open(serialConf.WithDevice(port))
		if err != nil {
			return nil, err
		}
		src = &onceCloser{Port: src}
		env.closers = append(env.closers, src.Close)
		st := New(port, src, env.Handler)
		st.NodeID, st.Attempts = nodeID, c.Attempts
		env.Stations = append(env.Stations, st)
	}
	return env, nil
}

// onceCloser lets both the station and Env.Close close a port.
type onceCloser struct {
	serial.Port
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() {
		c.err = c.Port.Close()
	})
	return c.err
}

func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("websocket viewers on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		srv.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Run runs all stations and sinks until every station stops or ctx is done.
func (e *Env) Run(ctx context.Context) error {
	sinkCtx, cancel := context.WithCancel(ctx)
	sinks := fx.NewRunnerWith(sinkCtx).Go(e.runners...)
	stations := fx.NewRunnerWith(ctx)
	for _, st := range e.Stations {
		stations.Go(fx.NamedRun(st.Name, st))
	}
	err := stations.Wait()
	cancel()
	var errs fx.AggregatedError
	errs.Add(err, sinks.Wait())
	return errs.Aggregate()
}

// Close closes ports and sinks.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs.Add(e.closers[i]())
	}
	e.closers = nil
	return errs.Aggregate()
}
