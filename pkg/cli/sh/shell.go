// Package sh provides the interactive receiver shell.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/serial"
	"github.com/robotalks/uartcam/pkg/sink"
	"github.com/robotalks/uartcam/pkg/sink/mqtt"
	"github.com/robotalks/uartcam/pkg/sink/rawlog"
	"github.com/robotalks/uartcam/pkg/sink/snapshot"
	"github.com/robotalks/uartcam/pkg/station"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Serial *serial.Config
	Open   station.OpenFunc

	Port     serial.Port
	Station  *station.Station
	Last     *frame.Frame
	LastMeta sink.Meta
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
	watchTimeout = 30 * time.Second
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&FormatsCmd,
		&OpenCmd,
		&CloseCmd,
		&ReceiveCmd,
		&InfoCmd,
		&SaveCmd,
		&DumpCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *serial.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Serial: conf,
		Open:   station.OpenNative,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open port.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Station == nil {
			c.Err(fmt.Errorf("no port open"))
			return
		}
		fn(c)
	}
}

// OpenPort opens a port, closing the current one.
func (s *Shell) OpenPort(device string) error {
	conf := s.Serial.WithDevice(device)
	port, err := s.Open(conf)
	if err != nil {
		return err
	}
	s.ClosePort()
	s.Port = port
	s.Station = station.New(device, port, nil)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", device))
	return nil
}

// ClosePort closes the current port.
func (s *Shell) ClosePort() {
	if s.Port != nil {
		s.Port.Close()
		s.Port, s.Station = nil, nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Receive runs a single receive attempt on the open port.
func (s *Shell) Receive() (*frame.Frame, error) {
	fr, err := s.Station.ReceiveOne()
	if err == nil {
		s.Last = fr
		s.LastMeta = s.Station.Meta()
	}
	return fr, err
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) bool {
	if !s.OutputJSON {
		return false
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return true
	}
	c.Println(string(out))
	return true
}

type frameInfo struct {
	Port   string `json:"port,omitempty"`
	Seq    uint64 `json:"seq"`
	Format string `json:"format"`
	Code   uint8  `json:"code"`
	Width  uint8  `json:"width"`
	Height uint8  `json:"height"`
	Size   uint32 `json:"size"`
	Known  bool   `json:"known"`
}

func newFrameInfo(fr *frame.Frame, meta sink.Meta) frameInfo {
	return frameInfo{
		Port:   meta.Port,
		Seq:    meta.Seq,
		Format: fr.Descriptor.Name,
		Code:   uint8(fr.Header.Format),
		Width:  fr.Header.Width,
		Height: fr.Header.Height,
		Size:   fr.Header.PayloadSize,
		Known:  fr.Header.Format.Known(),
	}
}

// FormatFrame prints a frame summary for display.
func FormatFrame(fr *frame.Frame, meta sink.Meta) string {
	msg := fmt.Sprintf("#%d %s %dx%d, size=%d, bpp=%d",
		meta.Seq, fr.Header.Format, fr.Header.Width, fr.Header.Height,
		fr.Header.PayloadSize, fr.Descriptor.BytesPerPixel)
	if meta.Port != "" {
		msg = meta.Port + ": " + msg
	}
	return msg
}

func (s *Shell) printFrame(c *ishell.Context, fr *frame.Frame, meta sink.Meta) {
	if !s.printJSON(c, newFrameInfo(fr, meta)) {
		c.Println(FormatFrame(fr, meta))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// FormatsCmd lists known pixel formats.
	FormatsCmd = ishell.Cmd{
		Name:    "formats",
		Aliases: []string{"f"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var list []frame.Descriptor
			for _, f := range frame.Formats() {
				list = append(list, frame.Describe(f))
			}
			if s.printJSON(c, list) {
				return
			}
			for _, f := range frame.Formats() {
				d := frame.Describe(f)
				c.Printf("0x%02X  %-16s %d byte(s)/px\n", uint8(f), d.Name, d.BytesPerPixel)
			}
			c.Println("other codes decode as 1 byte/px single channel")
		},
	}

	// OpenCmd opens a serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			device := s.Serial.Device
			if len(c.Args) > 0 {
				device = c.Args[0]
			}
			if err := s.OpenPort(device); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current port.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).ClosePort()
		},
	}

	// ReceiveCmd waits for frames.
	ReceiveCmd = ishell.Cmd{
		Name:    "receive",
		Aliases: []string{"recv", "r"},
		Help:    "[COUNT]",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			count := 1
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid count %q", c.Args[0]))
					return
				}
				count = n
			}
			for i := 0; i < count; i++ {
				if !s.OutputJSON {
					c.Println("Waiting for AA55...")
				}
				fr, err := s.Receive()
				if frame.IsNoSync(err) {
					c.Println("Timeout waiting for sync.")
					continue
				}
				if err != nil {
					c.Err(err)
					continue
				}
				s.printFrame(c, fr, s.LastMeta)
			}
		}),
	}

	// InfoCmd shows the last frame and counters.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			stats := s.Station.Stats()
			if s.OutputJSON {
				outcomes := make(map[string]int)
				for state, n := range stats.Outcomes {
					outcomes[state.String()] = n
				}
				s.printJSON(c, map[string]interface{}{
					"port":     s.Station.Name,
					"attempts": stats.Attempts,
					"outcomes": outcomes,
				})
				return
			}
			c.Printf("%s: %d attempt(s)\n", s.Station.Name, stats.Attempts)
			states := make([]frame.State, 0, len(stats.Outcomes))
			for state := range stats.Outcomes {
				states = append(states, state)
			}
			sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
			for _, state := range states {
				c.Printf("  %-18s %d\n", state, stats.Outcomes[state])
			}
			if stats.LastErr != nil {
				c.Printf("last error: %v\n", stats.LastErr)
			}
			if s.Last != nil {
				c.Println("last frame: " + FormatFrame(s.Last, s.LastMeta))
			}
		}),
	}

	// SaveCmd saves the last frame as PNG.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "FILE.png",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Last == nil {
				c.Err(fmt.Errorf("no frame received"))
				return
			}
			path := snapshot.FileName(s.Last, s.LastMeta)
			if len(c.Args) > 0 {
				path = c.Args[0]
			}
			if err := snapshot.Save(path, s.Last); err != nil {
				c.Err(err)
				return
			}
			c.Println("saved " + path)
		},
	}

	// DumpCmd prints records of a raw frame log.
	DumpCmd = ishell.Cmd{
		Name: "dump",
		Help: "FILE [LIMIT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("log file expected"))
				return
			}
			limit := 0
			if len(c.Args) > 1 {
				n, err := strconv.Atoi(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("invalid limit %q", c.Args[1]))
					return
				}
				limit = n
			}
			r, err := rawlog.Open(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			defer r.Close()
			_, err = r.Replay(context.Background(), sink.HandleFrameFunc(
				func(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
					s.Last, s.LastMeta = fr, meta
					s.printFrame(c, fr, meta)
					return nil
				}), limit)
			if err != nil {
				c.Err(err)
			}
		},
	}

	// WatchCmd prints frames published by receivers to a broker.
	WatchCmd = ishell.Cmd{
		Name: "watch",
		Help: "MQTT-URL [NODE [PORT]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("broker URL expected"))
				return
			}
			node, port := "+", "+"
			if len(c.Args) > 1 {
				node = c.Args[1]
			}
			if len(c.Args) > 2 {
				port = c.Args[2]
			}
			q, err := mqtt.NewQueueFromURL(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), watchTimeout)
			defer cancel()
			sub := mqtt.Watch(ctx, q, node, port, sink.HandleFrameFunc(
				func(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
					s.printFrame(c, fr, meta)
					return nil
				}))
			defer sub.Close()
			if err = q.Connect(); err != nil {
				c.Err(err)
				return
			}
			defer q.Close()
			c.Printf("watching for %v\n", watchTimeout)
			<-ctx.Done()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(serial.NewConfig()).Run(flag.Args()...)
}
