package mapper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result of a device after processing.
const (
	stUnchanged = "unchanged"
	stCompared  = "compared"
	stApplied   = "applied"
	stDeclined  = "declined"
	stFailed    = "failed"
)

type deviceRun struct {
	name      string
	ip        string
	file      string // Captured configuration; device isn't contacted.
	community string
	plan      *bgp.ChangePlan
	status    string
	err       error
}

type run struct {
	cfg     *program.Config
	opts    *options
	in      *bufio.Reader
	history *zap.Logger
}

func newRun(cfg *program.Config, o *options) *run {
	return &run{
		cfg:     cfg,
		opts:    o,
		in:      bufio.NewReader(os.Stdin),
		history: openHistory(cfg),
	}
}

func (r *run) close() {
	r.history.Sync()
}

// process reads devices in parallel, then shows and applies changes
// device by device.
func (r *run) process(ctx context.Context, l []*deviceRun) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))
	for _, d := range l {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				d.err = err
				return nil
			}
			d.plan, d.err = r.computePlan(d)
			return nil
		})
	}
	g.Wait()

	var failed []string
	for _, d := range l {
		if ctx.Err() != nil && d.err == nil {
			d.err = ctx.Err()
		}
		r.finish(d)
		r.record(d)
		r.updateStatus(d)
		if d.status == stFailed {
			failed = append(failed, d.name)
		}
	}
	if r.opts.summary {
		r.showSummary(l)
	}
	if failed != nil {
		fmt.Printf("\nFailed hosts:\n%s\n", strings.Join(failed, "\n"))
		return 1
	}
	return 0
}

func (r *run) computePlan(d *deviceRun) (*bgp.ChangePlan, error) {
	snap, err := r.readState(d)
	if err != nil {
		return nil, err
	}
	policy := r.cfg.Policy(d.community)
	if policy.Community == "" {
		return nil, fmt.Errorf("No community configured for %s", d.name)
	}
	plan, err := bgp.Synthesize(snap, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	return plan, nil
}

// finish shows the plan of d and applies it after confirmation.
func (r *run) finish(d *deviceRun) {
	if d.err != nil {
		r.fail(d, d.err)
		return
	}
	p := d.plan
	fmt.Print(p.RenderLog())
	fmt.Print(p.Render())
	if r.opts.logDir != "" {
		if err := r.savePlan(d); err != nil {
			r.fail(d, err)
			return
		}
	}
	switch {
	case !p.HasChanges():
		d.status = stUnchanged
		errlog.Info("%s: device unchanged", d.name)
		return
	case d.file != "" || r.opts.compare:
		d.status = stCompared
		errlog.Info("%s: *** device changed ***", d.name)
		return
	}
	if !r.opts.yes && !r.confirm() {
		d.status = stDeclined
		r.report(d, fmt.Sprintf("CONFIG NOT APPLIED TO %s", d.name))
		return
	}
	if err := r.apply(d); err != nil {
		r.fail(d, err)
		r.report(d, fmt.Sprintf("CONFIG NOT APPLIED TO %s", d.name))
		return
	}
	d.status = stApplied
	r.report(d, fmt.Sprintf("%s COMPLETE", d.name))
}

// Message of AbortError has already been shown.
func (r *run) fail(d *deviceRun, err error) {
	d.status = stFailed
	d.err = err
	var ae *errlog.AbortError
	if !errors.As(err, &ae) {
		errlog.Error("%v", err)
	}
}

var promptBanner = strings.Repeat("#", 60) + "\n" + strings.Repeat("#", 60)

func (r *run) confirm() bool {
	fmt.Printf("%s\n****** PROCEED WITH APPLYING ABOVE CONFIG? (YES / NO) ******\n%s\n",
		promptBanner, promptBanner)
	answer, _ := r.in.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
