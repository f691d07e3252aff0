package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/plume/fluid"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the host-side scene state: domain size and every solid.
// Field contents live on the engine and are not captured.
type Snapshot struct {
	Version int     `json:"version"`
	Tick    int32   `json:"tick"`
	SimTime float64 `json:"sim_time"`

	Width    int     `json:"width"`
	Height   int     `json:"height"`
	SimScale float64 `json:"sim_scale"`
	DyeScale float64 `json:"dye_scale"`

	Solids []SolidState `json:"solids"`
}

// SolidState holds one solid.
type SolidState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
	Radius  float64 `json:"radius"`
	Mass    float64 `json:"mass,omitempty"`
	Density float64 `json:"density,omitempty"`
}

// NewSnapshot captures the scene of sim.
func NewSnapshot(sim *fluid.Simulation, tick int32, simTime float64) *Snapshot {
	cfg := sim.Config()
	snap := &Snapshot{
		Version:  SnapshotVersion,
		Tick:     tick,
		SimTime:  simTime,
		Width:    cfg.Width,
		Height:   cfg.Height,
		SimScale: cfg.SimScale,
		DyeScale: cfg.DyeScale,
	}
	for _, b := range sim.Solids {
		if b == nil {
			continue
		}
		snap.Solids = append(snap.Solids, SolidState{
			X:       b.Position.X,
			Y:       b.Position.Y,
			VelX:    b.Velocity.X,
			VelY:    b.Velocity.Y,
			Radius:  b.Radius,
			Mass:    b.Mass,
			Density: b.Density,
		})
	}
	return snap
}

// Restore rebuilds the solids, rescaled to a domain of width×height.
func (s *Snapshot) Restore(width, height int) []*fluid.Solid {
	rx, ry := 1.0, 1.0
	if s.Width > 0 && s.Height > 0 {
		rx = float64(width) / float64(s.Width)
		ry = float64(height) / float64(s.Height)
	}
	out := make([]*fluid.Solid, 0, len(s.Solids))
	for _, st := range s.Solids {
		out = append(out, &fluid.Solid{
			Position: r2.Vec{X: st.X * rx, Y: st.Y * ry},
			Velocity: r2.Vec{X: st.VelX * rx, Y: st.VelY * ry},
			Radius:   st.Radius,
			Mass:     st.Mass,
			Density:  st.Density,
		})
	}
	return out
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
