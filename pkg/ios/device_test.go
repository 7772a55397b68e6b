package ios

import (
	"os"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/console"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
	"github.com/hknutzen/bgp-route-mapper/test/capture"
	"github.com/hknutzen/bgp-route-mapper/test/ciscosim"
)

const login = `Password:<!>
r1>
# enable
Password:<!>
`

const sectionsOK = `# show running-config | section router bgp
router bgp 65000
 neighbor 10.1.1.1 remote-as 65001
 neighbor 10.1.1.1 description Customer A
# show running-config | section route-map
route-map ATT_OUT permit 10
 set community 65000:1
# show running-config | section ip as-path
ip as-path access-list 5 permit ^$
`

var cfg = &program.Config{
	User: "admin", Password: "secret", Timeout: 1, LoginTimeout: 1,
}

// simulate connects next session to scenario.
func simulate(t *testing.T, scenario string) **ciscosim.Expecter {
	t.Helper()
	retryDelay = 0
	var e *ciscosim.Expecter
	console.Simulate = func(device string) (console.Expecter, error) {
		e = ciscosim.FromScenario("r1", scenario).Start()
		return e, nil
	}
	t.Cleanup(func() { console.Simulate = nil })
	return &e
}

func commands(e *ciscosim.Expecter) []string {
	return slices.DeleteFunc(slices.Clone(e.Sent()),
		func(c string) bool { return c == "" })
}

func TestLoadDevice(t *testing.T) {
	simulate(t, login+sectionsOK)
	s := &State{}
	snap, err := s.LoadDevice("r1", "10.0.0.1", cfg, nil, nil)
	s.CloseConnection()
	if err != nil {
		t.Fatal(err)
	}
	expected := &bgp.Snapshot{
		Hostname: "r1",
		ASN:      "65000",
		Neighbors: []bgp.NeighborRecord{
			{PeerIP: "10.1.1.1", RemoteAS: "65001", Description: "Customer A"},
		},
		RouteMaps: []bgp.RouteMapEntry{
			{Name: "ATT_OUT", Seq: 10, Action: bgp.Permit,
				Set: []string{"community 65000:1"}},
		},
		ASPathACLs: []bgp.ASPathACL{{ID: 5, Action: bgp.Permit, Pattern: "^$"}},
	}
	if d := cmp.Diff(expected, snap); d != "" {
		t.Error(d)
	}
}

func TestLoadDeviceLogs(t *testing.T) {
	simulate(t, login+sectionsOK)
	dir := t.TempDir()
	logLogin, _ := os.Create(dir + "/r1.login")
	logConfig, _ := os.Create(dir + "/r1.config")
	s := &State{}
	_, err := s.LoadDevice("r1", "10.0.0.1", cfg, logLogin, logConfig)
	s.CloseConnection()
	logLogin.Close()
	logConfig.Close()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(dir + "/r1.login")
	expected := "Password:secret\n\nr1>enable\nPassword:secret\n\nr1#\nr1#" +
		"terminal length 0\nr1#terminal width 512\nr1#\nr1#"
	if d := cmp.Diff(expected, string(data)); d != "" {
		t.Error(d)
	}
	data, _ = os.ReadFile(dir + "/r1.config")
	expected = "show running-config | section router bgp\n" +
		"router bgp 65000\n" +
		" neighbor 10.1.1.1 remote-as 65001\n" +
		" neighbor 10.1.1.1 description Customer A\n" +
		"r1#show running-config | section route-map\n" +
		"route-map ATT_OUT permit 10\n" +
		" set community 65000:1\n" +
		"r1#show running-config | section ip as-path\n" +
		"ip as-path access-list 5 permit ^$\n" +
		"r1#"
	if d := cmp.Diff(expected, string(data)); d != "" {
		t.Error(d)
	}
}

func TestLoadDeviceWrongName(t *testing.T) {
	simulate(t, login)
	s := &State{}
	var status int
	stderr := capture.Capture(&os.Stderr, func() {
		errlog.SetStderrLog("")
		status = errlog.HandleAbort(func() int {
			s.LoadDevice("r2", "10.0.0.1", cfg, nil, nil)
			return 0
		})
	})
	s.CloseConnection()
	if status != 1 {
		t.Errorf("expected abort, got status %d", status)
	}
	expected := "ERROR>>> Wrong device name: \"r1\", expected: \"r2\"\n"
	if d := cmp.Diff(expected, stderr); d != "" {
		t.Error(d)
	}
}

func TestLoadDeviceBadPassword(t *testing.T) {
	simulate(t, "Password:\nEOF")
	s := &State{}
	stderr := capture.Capture(&os.Stderr, func() {
		errlog.SetStderrLog("")
		errlog.HandleAbort(func() int {
			s.LoadDevice("r1", "10.0.0.1", cfg, nil, nil)
			return 0
		})
	})
	s.CloseConnection()
	expected := "ERROR>>> while waiting for prompt " +
		"'(?i)password:|\\r\\n\\r?[^#> ]+[>#] ?$': expect: Process not running\n"
	if d := cmp.Diff(expected, stderr); d != "" {
		t.Error(d)
	}
}

func TestApplyCommands(t *testing.T) {
	e := simulate(t, login+sectionsOK+`
# write memory
startup-config file open failed (Device or resource busy)
# write memory
Building configuration...
[OK]
`)
	s := &State{}
	if _, err := s.LoadDevice("r1", "10.0.0.1", cfg, nil, nil); err != nil {
		t.Fatal(err)
	}
	lines := []string{
		"route-map ATT_OUT permit 10",
		" match as-path 5",
		"router bgp 65000",
		" neighbor 10.1.1.1 route-map ATT_OUT out",
	}
	if err := s.ApplyCommands(lines, nil); err != nil {
		t.Fatal(err)
	}
	s.CloseConnection()
	expected := []string{
		"enable",
		"terminal length 0",
		"terminal width 512",
		"show running-config | section router bgp",
		"show running-config | section route-map",
		"show running-config | section ip as-path",
		"configure terminal",
		"route-map ATT_OUT permit 10",
		" match as-path 5",
		"router bgp 65000",
		" neighbor 10.1.1.1 route-map ATT_OUT out",
		"end",
		"write memory",
		"write memory",
		"exit",
	}
	if d := cmp.Diff(expected, commands(*e)); d != "" {
		t.Error(d)
	}
}

func TestApplyCommandsErrors(t *testing.T) {
	tests := []struct {
		title    string
		scenario string
		expected string
	}{
		{
			title: "invalid input",
			scenario: `
# neighbor 10.1.1.1 route-map X out
% Invalid input detected at '^' marker.
`,
			expected: `ERROR>>> Got unexpected output from ' neighbor 10.1.1.1 route-map X out':
ERROR>>> % Invalid input detected at '^' marker.
`,
		},
		{
			title: "write mem fails",
			scenario: `
# write memory
startup-config file open failed (Device or resource busy)
`,
			expected: "ERROR>>> write mem: startup-config open failed - giving up\n",
		},
		{
			title: "write mem unknown",
			scenario: `
# write memory
Error
`,
			expected: "ERROR>>> write mem: unexpected result: write memory\n" +
				"ERROR>>> Error\n" +
				"ERROR>>> r1#\n",
		},
		{
			title: "warning",
			scenario: `
# neighbor 10.1.1.1 route-map X out
WARNING: route-map X not defined
# write memory
[OK]
`,
			expected: `WARNING>>> Got unexpected output from ' neighbor 10.1.1.1 route-map X out':
WARNING>>> WARNING: route-map X not defined
`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			simulate(t, login+sectionsOK+tc.scenario)
			s := &State{}
			stderr := capture.Capture(&os.Stderr, func() {
				errlog.SetStderrLog("")
				errlog.HandleAbort(func() int {
					s.LoadDevice("r1", "10.0.0.1", cfg, nil, nil)
					s.ApplyCommands([]string{
						"router bgp 65000",
						" neighbor 10.1.1.1 route-map X out",
					}, nil)
					return 0
				})
			})
			s.CloseConnection()
			expected := "r1: Requesting device config\n" + tc.expected
			if d := cmp.Diff(expected, stderr); d != "" {
				t.Error(d)
			}
		})
	}
}
