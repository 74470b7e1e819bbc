// Package dbg adds the debug protocol commands to the shell.
package dbg

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dbglink/pkg/cli/sh"
	"github.com/robotalks/dbglink/pkg/host"
)

var (
	// PingCmd sends keep-alive.
	PingCmd = ishell.Cmd{
		Name:    "ping",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Check(c, sh.ClientFrom(c).KeepAlive())
		}),
	}

	// ErrorLogCmd reads the error log.
	ErrorLogCmd = ishell.Cmd{
		Name:    "errlog",
		Aliases: []string{"e"},
		Help:    "[all]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			log, err := sh.ClientFrom(c).ReadErrorLog()
			if err != nil {
				c.Err(err)
				return
			}
			codes := log.Recorded()
			if len(c.Args) > 0 && c.Args[0] == "all" {
				codes = log.Codes
			}
			sh.Output(c, map[string]interface{}{"version": log.Version, "codes": codes}, func() {
				c.Printf("version %d, %d of %d recorded\n", log.Version, len(log.Recorded()), len(log.Codes))
				for n, code := range codes {
					c.Printf("%3d: %d\n", n, code)
				}
			})
		}),
	}

	// BuffersCmd reads buffer properties.
	BuffersCmd = ishell.Cmd{
		Name:    "buffers",
		Aliases: []string{"b"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			props, err := sh.ClientFrom(c).ReadBufferProperties()
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, props, func() {
				c.Printf("%d buffers, capacity %d\n", props.Count, props.Capacity)
			})
		}),
	}

	// ReadCmd reads one buffer.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "INDEX",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("INDEX required"))
				return
			}
			index, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid INDEX: %v", err))
				return
			}
			client := sh.ClientFrom(c)
			props, err := client.ReadBufferProperties()
			if err != nil {
				c.Err(err)
				return
			}
			data, err := client.ReadBuffer(index, props.Capacity)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, data, func() {
				c.Printf("buffer %d (%v): %v\n", data.Index, data.Type, data.Values)
			})
		}),
	}

	// DumpCmd reads all buffers as CSV.
	DumpCmd = ishell.Cmd{
		Name:    "dump",
		Aliases: []string{"csv"},
		Help:    "[FILE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			buffers, err := sh.ClientFrom(c).ReadAllBuffers()
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) == 0 {
				var out strings.Builder
				if err = host.WriteCSV(&out, buffers); err != nil {
					c.Err(err)
					return
				}
				c.Print(out.String())
				return
			}
			f, err := os.Create(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			defer f.Close()
			if err = host.WriteCSV(f, buffers); err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d buffers written to %s\n", len(buffers), c.Args[0])
		}),
	}

	// StreamCmd subscribes the stream and prints records, or saves them
	// as CSV with -o.
	StreamCmd = ishell.Cmd{
		Name:    "stream",
		Aliases: []string{"s"},
		Help:    "[-o FILE [-duration D]] [COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			fs := flag.NewFlagSet("stream", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			file := fs.String("o", "", "Save entries as CSV to FILE until the stream times out.")
			duration := fs.Duration("duration", 0, "Stop saving after this duration, 0 for no limit.")
			if err := fs.Parse(c.Args); err != nil {
				c.Err(err)
				return
			}
			if *file != "" {
				saveStream(c, *file, *duration)
				return
			}
			count := 1
			if fs.NArg() > 0 {
				n, err := strconv.Atoi(fs.Arg(0))
				if err != nil || n < 1 {
					c.Err(fmt.Errorf("invalid COUNT: %s", fs.Arg(0)))
					return
				}
				count = n
			}
			client := sh.ClientFrom(c)
			info, err := client.StartStreaming()
			if err != nil {
				c.Err(err)
				return
			}
			defer func() {
				if err := client.StopStreaming(); err != nil {
					c.Err(err)
				}
			}()
			sh.Output(c, info, func() {
				c.Printf("stream %d: fields %v, %d entries per record\n",
					info.ID, info.FieldTypes, info.EntriesPerMessage)
			})
			for n := 0; n < count; n++ {
				rec, err := client.ReadStreamRecord()
				if err != nil {
					c.Err(err)
					return
				}
				sh.Output(c, rec, func() {
					for _, entry := range rec.Entries {
						c.Println(entry...)
					}
				})
			}
		}),
	}

	// TraceCmd converts profiling CSV to a trace event JSON file.
	TraceCmd = ishell.Cmd{
		Name:    "trace",
		Aliases: []string{"t"},
		Help:    "[-abs] CSV DESC [OUT]",
		Func: func(c *ishell.Context) {
			fs := flag.NewFlagSet("trace", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			absolute := fs.Bool("abs", false, "Start the timeline at 0.")
			if err := fs.Parse(c.Args); err != nil {
				c.Err(err)
				return
			}
			if fs.NArg() < 2 {
				c.Err(fmt.Errorf("CSV and DESC required"))
				return
			}
			out := fs.Arg(0) + ".json"
			if fs.NArg() > 2 {
				out = fs.Arg(2)
			}
			n, err := convertTrace(fs.Arg(0), fs.Arg(1), out, *absolute)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d events written to %s\n", n, out)
		},
	}

	// GenericCmd sends a generic request.
	GenericCmd = ishell.Cmd{
		Name:    "generic",
		Aliases: []string{"g"},
		Help:    "K (0-15)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("K required"))
				return
			}
			k, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid K: %v", err))
				return
			}
			sh.Check(c, sh.ClientFrom(c).Generic(k))
		}),
	}
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&ErrorLogCmd,
		&BuffersCmd,
		&ReadCmd,
		&DumpCmd,
		&StreamCmd,
		&TraceCmd,
		&GenericCmd,
	)
}

func saveStream(c *ishell.Context, file string, duration time.Duration) {
	f, err := os.Create(file)
	if err != nil {
		c.Err(err)
		return
	}
	defer f.Close()
	points, err := sh.ClientFrom(c).SaveStream(f, duration)
	if err != nil {
		c.Err(err)
	}
	c.Printf("%d points saved to %s\n", points, file)
}

func convertTrace(csvFile, descFile, outFile string, absolute bool) (int, error) {
	descIn, err := os.Open(descFile)
	if err != nil {
		return 0, err
	}
	defer descIn.Close()
	desc, err := host.ReadTraceDescription(descIn)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", descFile, err)
	}
	csvIn, err := os.Open(csvFile)
	if err != nil {
		return 0, err
	}
	defer csvIn.Close()
	trace, err := host.ConvertTrace(csvIn, desc, absolute)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", csvFile, err)
	}
	out, err := os.Create(outFile)
	if err != nil {
		return 0, err
	}
	if err = host.WriteTrace(out, trace); err != nil {
		out.Close()
		return 0, err
	}
	return len(trace.TraceEvents), out.Close()
}
