// Package mapper implements the command line program that tags routes
// sent to BGP peers with a community.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"

	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/inventory"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
	"github.com/spf13/pflag"
)

var version = "devel"

type options struct {
	config    string
	inventory string
	devices   []string
	community string
	compare   bool
	yes       bool
	logDir    string
	showDiff  bool
	summary   bool
	workers   int
	user      string
	quiet     bool
	logFile   string
}

func Main() int {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

	// Setup custom usage function.
	fs.Usage = func() {
		prog := path.Base(os.Args[0])
		fmt.Fprintf(os.Stderr,
			"Usage: %s [options]\n"+
				"     : %s [options] FILE ...\n", prog, prog)
		fs.PrintDefaults()
	}

	// Command line flags
	var o options
	fs.StringVarP(&o.config, "config", "c", "", "Read program config from FILE")
	fs.StringVarP(&o.inventory, "inventory", "i", "", "Read devices from FILE")
	fs.StringArrayVarP(&o.devices, "device", "d", nil,
		"Only process device NAME; may be given multiple times")
	fs.StringVarP(&o.community, "community", "m", "",
		"Community to add, overrides inventory and config")
	fs.BoolVarP(&o.compare, "compare", "C", false, "Compare only")
	fs.BoolVarP(&o.yes, "yes", "y", false, "Apply changes without asking")
	fs.StringVarP(&o.logDir, "logdir", "L", "",
		"Path for saving session logs and change plans")
	fs.BoolVarP(&o.showDiff, "diff", "D", false,
		"Show difference to change plan of previous run")
	fs.BoolVarP(&o.summary, "summary", "S", false, "Show summary table")
	fs.IntVarP(&o.workers, "workers", "w", 0,
		"Number of devices read in parallel")
	fs.StringVarP(&o.user, "user", "u", "",
		"Username for login to remote device")
	fs.StringVarP(&o.logFile, "LOGFILE", "", "", "Path to redirect STDERR")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "No info messages")
	showVer := fs.BoolP("version", "v", false, "Show version")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return 1
	}
	if *showVer {
		fmt.Fprintf(os.Stderr, "version %s\n", version)
		return 0
	}
	files := fs.Args()
	offline := len(files) > 0
	usageErr := func(msg string) int {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		fs.Usage()
		return 1
	}
	switch {
	case offline && (len(o.devices) > 0 || o.inventory != ""):
		return usageErr("FILE can't be combined with --device or --inventory")
	case o.showDiff && o.logDir == "":
		return usageErr("--diff needs --logdir")
	case o.workers < 0:
		return usageErr("--workers must not be negative")
	case o.compare && o.yes:
		return usageErr("--compare can't be combined with --yes")
	}

	return errlog.HandleAbort(func() int {
		errlog.Quiet = o.quiet
		errlog.SetStderrLog(o.logFile)
		cfg := loadConfig(o.config, offline)
		cfg.User = o.user
		if o.workers != 0 {
			cfg.Workers = o.workers
		}
		var l []*deviceRun
		if offline {
			l = offlineDevices(files, o.community)
		} else {
			l = onlineDevices(cfg, &o)
			if len(l) == 0 {
				errlog.Warning("No devices selected")
				return 0
			}
			// Ask only once for password.
			if cfg.User != "" {
				if _, _, err := cfg.GetUserPass(""); err != nil {
					errlog.Abort("%v", err)
				}
			}
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		r := newRun(cfg, &o)
		defer r.close()
		return r.process(ctx, l)
	})
}

// Config is optional, when only files are compared.
func loadConfig(file string, offline bool) *program.Config {
	cfg, err := program.LoadConfig(file)
	if err != nil {
		if offline && errors.Is(err, program.ErrNotFound) {
			return &program.Config{
				Exclude: program.DefaultExclude,
				Workers: 4,
			}
		}
		errlog.Abort("%v", err)
	}
	return cfg
}

func offlineDevices(files []string, community string) []*deviceRun {
	var result []*deviceRun
	for _, f := range files {
		name := path.Base(f)
		name = strings.TrimSuffix(name, path.Ext(name))
		result = append(result,
			&deviceRun{name: name, file: f, community: community})
	}
	return result
}

func onlineDevices(cfg *program.Config, o *options) []*deviceRun {
	fname := o.inventory
	if fname == "" {
		fname = cfg.Path(cfg.Inventory)
	}
	inv, err := inventory.Load(fname)
	if err != nil {
		errlog.Abort("%v", err)
	}
	devices, err := inv.Select(o.devices)
	if err != nil {
		errlog.Abort("%v", err)
	}
	var result []*deviceRun
	for _, d := range devices {
		c := o.community
		if c == "" {
			c = d.Community
		}
		result = append(result, &deviceRun{name: d.Name, ip: d.IP, community: c})
	}
	return result
}
