package mapper

import (
	"fmt"
	"os"
	"path"
	"slices"
	"syscall"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/cisco"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/ios"
)

func (r *run) readState(d *deviceRun) (*bgp.Snapshot, error) {
	if d.file != "" {
		data, err := os.ReadFile(d.file)
		if err != nil {
			return nil, fmt.Errorf("Can't %v", err)
		}
		s, err := cisco.Parse(data, d.name)
		if err != nil {
			return nil, fmt.Errorf("While reading file %s: %v", path.Base(d.file), err)
		}
		return s, nil
	}
	var snap *bgp.Snapshot
	err := errlog.Try(func() error {
		s := &ios.State{}
		defer s.CloseConnection()
		var err error
		snap, err = r.loadDevice(s, d)
		return err
	})
	return snap, err
}

func (r *run) loadDevice(s *ios.State, d *deviceRun) (*bgp.Snapshot, error) {
	logConfig, err := r.getLogFH(d, ".config")
	if err != nil {
		return nil, err
	}
	defer closeLogFH(logConfig)
	logLogin, err := r.getLogFH(d, ".login")
	if err != nil {
		return nil, err
	}
	defer closeLogFH(logLogin)
	return s.LoadDevice(d.name, d.ip, r.cfg, logLogin, logConfig)
}

// apply logs in again and checks that device is still in the state the
// plan was computed from. Otherwise changes of some other session
// would be overwritten.
func (r *run) apply(d *deviceRun) error {
	lock, err := r.setLock(d)
	if err != nil {
		return err
	}
	defer lock.Close()
	return errlog.Try(func() error {
		s := &ios.State{}
		defer s.CloseConnection()
		snap, err := r.loadDevice(s, d)
		if err != nil {
			return err
		}
		plan, err := bgp.Synthesize(snap, r.cfg.Policy(d.community))
		if err != nil {
			return err
		}
		if !slices.Equal(plan.Lines, d.plan.Lines) {
			return fmt.Errorf("%s was changed while waiting for confirmation",
				d.name)
		}
		logFH, err := r.getLogFH(d, ".change")
		if err != nil {
			return err
		}
		defer closeLogFH(logFH)
		return s.ApplyCommands(d.plan.Lines, logFH)
	})
}

// Set lock for exclusive change of device.
func (r *run) setLock(d *deviceRun) (*os.File, error) {
	lockDir := r.cfg.Path("lock")
	os.Mkdir(lockDir, 0755)
	fh, err := os.OpenFile(path.Join(lockDir, d.name),
		os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, err
	}
	err = syscall.Flock(int(fh.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("Change in progress for %s", d.name)
	}
	return fh, nil
}

func (r *run) getLogFH(d *deviceRun, ext string) (*os.File, error) {
	if r.opts.logDir == "" {
		return nil, nil
	}
	fname := path.Join(r.opts.logDir, d.name) + ext
	errlog.MoveLogFile(fname)
	return errlog.CreateWithPath(fname)
}

func closeLogFH(fh *os.File) {
	if fh != nil {
		fh.Close()
	}
}
