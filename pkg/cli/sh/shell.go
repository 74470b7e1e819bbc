// Package sh provides the interactive host shell.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	env "github.com/robotalks/dbglink/pkg/env/host"
	"github.com/robotalks/dbglink/pkg/host"
	"github.com/robotalks/dbglink/pkg/transport/uart"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open connection to a device.
type Conn struct {
	Name   string
	Client *host.Client
	Closer io.Closer
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// ClientFrom gets the connected client from ishell context.
func ClientFrom(c *ishell.Context) *host.Client {
	return ShellFrom(c).Conn.Client
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Output prints v as JSON if requested, otherwise calls text.
func Output(c *ishell.Context, v interface{}, text func()) error {
	if !ShellFrom(c).OutputJSON {
		text()
		return nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// Check prints OK or the error.
func Check(c *ishell.Context, err error) error {
	if err != nil {
		c.Err(err)
		return err
	}
	return Output(c, map[string]string{"result": "OK"}, func() {
		c.Println("OK")
	})
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

func (s *Shell) target() string {
	if s.Config.WSURL != "" {
		return s.Config.WSURL
	}
	return s.Config.Port
}

// Connect opens the configured device and sends connect.
func (s *Shell) Connect() error {
	client, closer, err := s.Config.Connect()
	if err != nil {
		return err
	}
	if err = client.Connect(); err != nil {
		closer.Close()
		return fmt.Errorf("connect %s: %w", s.target(), err)
	}
	s.Disconnect()
	s.Conn = &Conn{Name: s.target(), Client: client, Closer: closer}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Conn.Name))
	return nil
}

// Disconnect sends disconnect and closes current connection.
func (s *Shell) Disconnect() {
	if s.Conn == nil {
		return
	}
	if err := s.Conn.Client.Disconnect(); err != nil {
		s.Shell.Printf("disconnect: %v\n", err)
	}
	s.Conn.Closer.Close()
	s.Conn = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.target() != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.target())
		}
		if err := s.Connect(); err != nil {
			log.Fatalln(err)
		}
	}
	defer s.Disconnect()

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
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := uart.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			Output(c, ports, func() {
				if len(ports) == 0 {
					c.Println("No serial ports found")
				}
				for _, port := range ports {
					c.Println(port)
				}
			})
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT|ws://HOST:PORT/PATH]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				if isURL(c.Args[0]) {
					s.Config.WSURL = c.Args[0]
				} else {
					s.Config.Port, s.Config.WSURL = c.Args[0], ""
				}
			}
			if s.target() == "" {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			Check(c, s.Connect())
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

func isURL(s string) bool {
	return strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
