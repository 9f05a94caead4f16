package capture

import (
	"encoding/json"
	"os"
	"time"
)

// CameraEntry describes the files of one rig camera.
type CameraEntry struct {
	Slot   int        `json:"slot"`
	Offset [3]float64 `json:"offset"`
	Color  string     `json:"color"`
	Depth  string     `json:"depth"`
}

// Manifest indexes one capture.
type Manifest struct {
	Taken       time.Time     `json:"taken"`
	Mode        string        `json:"mode"`
	Preview     int           `json:"preview_camera"`
	GridSide    int           `json:"grid_side"`
	Spacing     float64       `json:"spacing"`
	Cameras     []CameraEntry `json:"cameras"`
	OutputDepth string        `json:"output_depth"`
	Sheet       string        `json:"sheet"`
	Results     []Result      `json:"results"`
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
