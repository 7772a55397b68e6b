package mapper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/mytime"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
	"github.com/hknutzen/bgp-route-mapper/pkg/status"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/diff"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var stars = strings.Repeat("*", 40)

// report shows the final message of device and appends it together with
// plan to the logfile.
func (r *run) report(d *deviceRun, msg string) {
	msg = fmt.Sprintf("\n%s\n%s\n%s\n", stars, msg, stars)
	fmt.Print(msg)
	if r.cfg.LogFile == "" {
		return
	}
	fh, err := errlog.AppendWithPath(r.cfg.Path(r.cfg.LogFile))
	if err != nil {
		errlog.Warning("Can't %v", err)
		return
	}
	defer fh.Close()
	fmt.Fprint(fh, d.plan.RenderLog()+d.plan.Render()+msg)
}

// savePlan writes commands of plan to logdir. The previous plan is
// kept with a timestamp and compared if requested.
func (r *run) savePlan(d *deviceRun) error {
	fname := path.Join(r.opts.logDir, d.name) + ".plan"
	current := d.plan.Render()
	if r.opts.showDiff {
		prev, err := os.ReadFile(fname)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			errlog.Info("%s: no previous plan", d.name)
		case err != nil:
			return fmt.Errorf("Can't %v", err)
		case string(prev) == current:
			errlog.Info("%s: plan unchanged since previous run", d.name)
		default:
			err := diff.Text(fname+" (previous)", fname, prev, current, os.Stdout)
			if err != nil {
				return err
			}
		}
	}
	errlog.MoveLogFile(fname)
	fh, err := errlog.CreateWithPath(fname)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = fh.WriteString(current)
	return err
}

// openHistory opens file "history" in basedir, that gets one JSON line
// for each device processed.
func openHistory(cfg *program.Config) *zap.Logger {
	if cfg.BaseDir == "" {
		return zap.NewNop()
	}
	fh, err := errlog.AppendWithPath(cfg.Path("history"))
	if err != nil {
		errlog.Warning("Can't %v", err)
		return zap.NewNop()
	}
	return zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zapcore.EncoderConfig{
				MessageKey:  "msg",
				LevelKey:    "level",
				EncodeLevel: zapcore.LowercaseLevelEncoder,
			}),
			zapcore.AddSync(fh),
			zapcore.InfoLevel),
	)
}

func (r *run) record(d *deviceRun) {
	fields := []zap.Field{
		zap.String("time", mytime.Stamp()),
		zap.String("device", d.name),
		zap.String("status", d.status),
	}
	if d.file != "" {
		fields = append(fields, zap.String("file", d.file))
	}
	if p := d.plan; p != nil {
		fields = append(fields,
			zap.Int("peers", len(p.Peers)),
			zap.Int("changed", p.Count(bgp.Created, bgp.Bound, bgp.Extended)),
			zap.Strings("commands", p.Lines),
		)
	}
	if d.err != nil {
		r.history.Error("route-map", append(fields, zap.Error(d.err))...)
		return
	}
	r.history.Info("route-map", fields...)
}

// updateStatus records result of device in directory "status" of basedir.
func (r *run) updateStatus(d *deviceRun) {
	if r.cfg.BaseDir == "" {
		return
	}
	dir := r.cfg.Path("status")
	var err error
	switch d.status {
	case stUnchanged, stCompared:
		err = status.SetCompare(dir, d.name, d.status == stCompared)
	case stApplied:
		err = status.SetApply(dir, d.name, "OK", len(d.plan.Lines))
	}
	if err != nil {
		errlog.Warning("Can't update status of %s: %v", d.name, err)
	}
}

func (r *run) showSummary(l []*deviceRun) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{
		"DEVICE", "PEERS", "ELIGIBLE", "CHANGED", "SKIPPED", "FAILED", "STATUS"})
	for _, d := range l {
		row := []string{d.name, "-", "-", "-", "-", "-", d.status}
		if p := d.plan; p != nil {
			n := len(p.Peers)
			skipped := p.Count(bgp.Skipped)
			row[1] = strconv.Itoa(n)
			row[2] = strconv.Itoa(n - skipped)
			row[3] = strconv.Itoa(p.Count(bgp.Created, bgp.Bound, bgp.Extended))
			row[4] = strconv.Itoa(skipped)
			row[5] = strconv.Itoa(p.Count(bgp.Failed))
		}
		table.Append(row)
	}
	fmt.Println()
	table.Render()
}
