package mapper

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
	"github.com/hknutzen/bgp-route-mapper/test/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowSummary(t *testing.T) {
	plan := &bgp.ChangePlan{
		Hostname: "r1",
		Peers: []bgp.PeerResult{
			{Status: bgp.Created},
			{Status: bgp.Skipped},
			{Status: bgp.Compliant},
			{Status: bgp.Failed},
		},
	}
	l := []*deviceRun{
		{name: "r1", plan: plan, status: stApplied},
		{name: "r2", status: stFailed, err: errors.New("x")},
	}
	r := &run{cfg: &program.Config{}, opts: &options{}}
	out := capture.Capture(&os.Stdout, func() { r.showSummary(l) })

	// Compare words only, padding depends on width of columns.
	var got [][]string
	for _, line := range strings.Split(out, "\n") {
		if w := strings.Fields(line); w != nil {
			got = append(got, w)
		}
	}
	expected := [][]string{
		{"DEVICE", "PEERS", "ELIGIBLE", "CHANGED", "SKIPPED", "FAILED", "STATUS"},
		{"r1", "4", "3", "1", "1", "1", "applied"},
		{"r2", "-", "-", "-", "-", "-", "failed"},
	}
	if d := cmp.Diff(expected, got); d != "" {
		t.Error(d)
	}
}

func TestSavePlanDiff(t *testing.T) {
	dir := t.TempDir()
	r := &run{
		cfg:  &program.Config{},
		opts: &options{logDir: dir, showDiff: true},
	}
	d := &deviceRun{
		name: "r1",
		plan: &bgp.ChangePlan{Lines: []string{
			"router bgp 65000",
			" neighbor 10.1.1.1 send-community both",
		}},
	}
	fname := dir + "/r1.plan"
	require.NoError(t, os.WriteFile(fname,
		[]byte("router bgp 65000\n neighbor 10.1.1.1 route-map X out\n"), 0644))
	var err error
	out := capture.Capture(&os.Stdout, func() { err = r.savePlan(d) })
	require.NoError(t, err)
	assert.Contains(t, out, "--- "+fname+" (previous)\n")
	assert.Contains(t, out, "+++ "+fname+"\n")
	assert.Contains(t, out, "- neighbor 10.1.1.1 route-map X out\n")
	assert.Contains(t, out, "+ neighbor 10.1.1.1 send-community both\n")

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, d.plan.Render(), string(data))
	// Previous plan is kept with timestamp.
	l, _ := os.ReadDir(dir)
	assert.Len(t, l, 2)
}
