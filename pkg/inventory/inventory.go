// Package inventory reads the list of managed devices.
//
// The file has the shape of a Nornir inventory merged into one YAML
// document:
//
//	hosts:
//	  r1:
//	    hostname: 10.0.0.1
//	    platform: cisco_ios
//	    groups: [core]
//	    data:
//	      community: "65000:100"
//	groups:
//	  core:
//	    data:
//	      community: "65000:200"
//	defaults:
//	  platform: cisco_ios
//
// Attributes not given at a host are taken from its groups in order,
// then from defaults.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hknutzen/bgp-route-mapper/pkg/sorted"
	"gopkg.in/yaml.v3"
)

// Platform of devices handled by this program.
const Platform = "cisco_ios"

type Inventory struct {
	Hosts    map[string]*Host `yaml:"hosts"`
	Groups   map[string]*Host `yaml:"groups"`
	Defaults Host             `yaml:"defaults"`
}

type Host struct {
	Hostname string         `yaml:"hostname"`
	Platform string         `yaml:"platform"`
	Groups   []string       `yaml:"groups"`
	Data     map[string]any `yaml:"data"`
}

// Device is a host with all inherited attributes resolved.
type Device struct {
	Name      string
	IP        string
	Platform  string
	Community string
}

func Load(fname string) (*Inventory, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("Can't %v", err)
	}
	inv, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("While reading %s: %v", fname, err)
	}
	return inv, nil
}

func Parse(data []byte) (*Inventory, error) {
	inv := &Inventory{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(inv); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	check := func(what, name string, h *Host) error {
		if h == nil {
			return fmt.Errorf("Empty definition of %s %q", what, name)
		}
		for _, g := range h.Groups {
			if _, found := inv.Groups[g]; !found {
				return fmt.Errorf("Unknown group %q referenced in %s %q",
					g, what, name)
			}
		}
		return nil
	}
	for _, name := range sorted.Keys(inv.Groups) {
		if err := check("group", name, inv.Groups[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sorted.Keys(inv.Hosts) {
		if err := check("host", name, inv.Hosts[name]); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// lookup returns first non empty value of attribute get in host h,
// its groups in depth first order and in defaults.
func (inv *Inventory) lookup(h *Host, get func(*Host) string) string {
	seen := make(map[string]bool)
	var walk func(h *Host) string
	walk = func(h *Host) string {
		if v := get(h); v != "" {
			return v
		}
		for _, g := range h.Groups {
			if seen[g] {
				continue
			}
			seen[g] = true
			if v := walk(inv.Groups[g]); v != "" {
				return v
			}
		}
		return ""
	}
	if v := walk(h); v != "" {
		return v
	}
	return get(&inv.Defaults)
}

func community(h *Host) string {
	if v, found := h.Data["community"]; found && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func (inv *Inventory) device(name string) Device {
	h := inv.Hosts[name]
	d := Device{
		Name:      name,
		IP:        inv.lookup(h, func(h *Host) string { return h.Hostname }),
		Platform:  inv.lookup(h, func(h *Host) string { return h.Platform }),
		Community: inv.lookup(h, community),
	}
	if d.IP == "" {
		d.IP = name
	}
	return d
}

// Select returns devices of Platform sorted by name.
// If names is not empty, only those devices are returned.
func (inv *Inventory) Select(names []string) ([]Device, error) {
	for _, n := range names {
		if _, found := inv.Hosts[n]; !found {
			return nil, fmt.Errorf("Unknown device %q", n)
		}
	}
	var result []Device
	for _, name := range sorted.Keys(inv.Hosts) {
		if names != nil && !slices.Contains(names, name) {
			continue
		}
		d := inv.device(name)
		if d.Platform != Platform {
			if names != nil {
				return nil, fmt.Errorf(
					"Device %q has platform %q, expected %q", name, d.Platform, Platform)
			}
			continue
		}
		result = append(result, d)
	}
	return result, nil
}
