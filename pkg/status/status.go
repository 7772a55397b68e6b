// Package status keeps the result of the last apply and compare of
// each device in a small JSON file.
package status

import (
	"encoding/json"
	"os"
	"path"

	"github.com/hknutzen/bgp-route-mapper/pkg/mytime"
)

type Action struct {
	Result   string `json:"result"`
	Commands int    `json:"commands,omitempty"`
	Time     int64  `json:"time"`
}

type Status struct {
	Apply   Action `json:"apply"`
	Compare Action `json:"compare"`
}

// SetApply records result of applying n commands to device.
func SetApply(dir, device, result string, n int) error {
	v := Read(dir, device)
	v.Apply = Action{result, n, mytime.Now().Unix()}
	return write(dir, device, v)
}

// SetCompare records, whether device needs changes.
func SetCompare(dir, device string, changed bool) error {
	v := Read(dir, device)
	result := ""
	if !changed {
		result = "UPTODATE"
	} else if v.Compare.Result != "DIFF" || v.Compare.Time < v.Apply.Time {
		// Keep time of first difference,
		// unless device was changed since then.
		result = "DIFF"
	} else {
		return nil
	}
	v.Compare = Action{Result: result, Time: mytime.Now().Unix()}
	return write(dir, device, v)
}

// Read returns the status of device; a missing or invalid file gives
// an empty status.
func Read(dir, device string) Status {
	data, _ := os.ReadFile(path.Join(dir, device))
	var v Status
	json.Unmarshal(data, &v)
	return v
}

func write(dir, device string, v Status) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, _ := json.Marshal(v)
	return os.WriteFile(path.Join(dir, device), data, 0644)
}
