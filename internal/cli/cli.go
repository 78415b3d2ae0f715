package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/mbim-tool/internal/config"
	"github.com/vitaminmoo/mbim-tool/internal/device"
	"github.com/vitaminmoo/mbim-tool/internal/phonebook"
	"github.com/vitaminmoo/mbim-tool/internal/tui"
)

// CLI is the root command structure for mbim.
type CLI struct {
	Device     string           `short:"d" env:"MBIM_DEVICE" placeholder:"PATH" help:"MBIM control device (default /dev/cdc-wdm0)"`
	Config     string           `type:"path" placeholder:"FILE" help:"Config file (default $XDG_CONFIG_HOME/mbim/config.yaml)"`
	Verbose    bool             `short:"v" help:"Enable verbose debug output"`
	NoOpen     bool             `help:"Do not send MBIM OPEN before the command"`
	NoClose    bool             `help:"Leave the MBIM session open afterwards"`
	NoProgress bool             `help:"Do not show a spinner while waiting for the device"`
	Version    kong.VersionFlag `help:"Print version and exit"`

	Phonebook PhonebookFlags `embed:"" prefix:"phonebook-"`
}

// PhonebookFlags are the mutually exclusive phonebook actions.
type PhonebookFlags struct {
	QueryConfiguration bool   `group:"Phonebook options" help:"Query the phonebook configuration"`
	Read               int32  `group:"Phonebook options" placeholder:"INDEX" help:"Read phonebook entry with given index"`
	ReadAll            bool   `group:"Phonebook options" help:"Read all phonebook entries"`
	Write              string `group:"Phonebook options" placeholder:"NAME,NUMBER" help:"Add new phonebook entry"`
	EntryUpdate        string `group:"Phonebook options" placeholder:"NAME,NUMBER,INDEX" help:"Update phonebook entry with given index"`
	Delete             int32  `group:"Phonebook options" placeholder:"INDEX" help:"Delete phonebook entry with given index"`
	DeleteAll          bool   `group:"Phonebook options" help:"Delete all phonebook entries"`
}

func (f PhonebookFlags) options() phonebook.Options {
	return phonebook.Options{
		QueryConfiguration: f.QueryConfiguration,
		Read:               f.Read,
		ReadAll:            f.ReadAll,
		Write:              f.Write,
		EntryUpdate:        f.EntryUpdate,
		Delete:             f.Delete,
		DeleteAll:          f.DeleteAll,
	}
}

// loadConfig merges the config file with the command line. Flags and
// environment win over the file.
func (c *CLI) loadConfig() (config.Config, error) {
	path, required := c.Config, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, err
	}

	if c.Device != "" {
		cfg.Device = c.Device
	}
	cfg.Verbose = cfg.Verbose || c.Verbose
	cfg.NoOpen = cfg.NoOpen || c.NoOpen
	cfg.NoClose = cfg.NoClose || c.NoClose
	cfg.NoProgress = cfg.NoProgress || c.NoProgress
	return cfg, nil
}

// waiter returns the spinner hook, or nil when stderr is not a terminal or
// the spinner would interleave with debug output.
func waiter(cfg config.Config, stderr io.Writer) phonebook.Waiter {
	f, ok := stderr.(*os.File)
	if !ok || cfg.Verbose || cfg.NoProgress || !tui.IsTerminal(f) {
		return nil
	}
	return func(call *device.Call, label string) {
		tui.Await(f, call, label)
	}
}

// env holds what Run takes from the outside world.
type env struct {
	open           func(path string, opts ...device.Option) (*device.Device, error)
	commandTimeout time.Duration
}

// Run executes the requested phonebook action and returns the process exit
// status.
func (c *CLI) Run(ctx context.Context, stdout, stderr io.Writer) int {
	return c.run(ctx, stdout, stderr, env{open: device.Open, commandTimeout: config.CommandTimeout})
}

func (c *CLI) run(ctx context.Context, stdout, stderr io.Writer, e env) int {
	sel := phonebook.NewSelector(c.Phonebook.options(), stderr)
	enabled, err := sel.Enabled()
	if err != nil {
		return 1
	}
	if !enabled {
		fmt.Fprintln(stderr, "error: no actions specified")
		return 1
	}
	action, _ := sel.Action()

	cfg, err := c.loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	log := config.NewLogger(stderr, cfg.Verbose)
	log.Debug("configuration", "device", cfg.Device, "open_timeout", cfg.OpenTimeout,
		"no_open", cfg.NoOpen, "no_close", cfg.NoClose)

	dev, err := e.open(cfg.Device, device.WithLogger(log))
	if err != nil {
		fmt.Fprintf(stderr, "error: couldn't open the MBIM device: %v\n", err)
		return 1
	}
	defer dev.Close()

	if !cfg.NoOpen {
		if err := dev.OpenSession(ctx, cfg.OpenTimeout); err != nil {
			fmt.Fprintf(stderr, "error: couldn't open the MBIM session: %v\n", err)
			return 1
		}
	}

	opts := []phonebook.RunnerOption{
		phonebook.WithLogger(log),
		phonebook.WithTimeout(e.commandTimeout),
	}
	if w := waiter(cfg, stderr); w != nil {
		opts = append(opts, phonebook.WithWaiter(w))
	}

	runner := phonebook.NewRunner(dev, phonebook.NewFormatter(stdout, stderr), opts...)
	runErr := runner.Run(ctx, action)
	if runErr != nil {
		log.Debug("phonebook action failed", "code", phonebook.Kind(runErr), "error", runErr)
	}

	if !cfg.NoClose {
		closeSession(dev, cfg.OpenTimeout, log, stderr)
	}

	if runErr != nil {
		return 1
	}
	return 0
}

// closeSession sends MBIM CLOSE even if the run was interrupted.
func closeSession(dev *device.Device, timeout time.Duration, log *slog.Logger, stderr io.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := dev.CloseSession(ctx, timeout); err != nil {
		log.Debug("close failed", "device", dev.Name(), "error", err)
		fmt.Fprintf(stderr, "error: couldn't close the MBIM session: %v\n", err)
	}
}
