package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/plume/fluid"
)

func TestSnapshotSaveLoad(t *testing.T) {
	sim := newTestSim(t, 40, 20)
	sim.Solids = []*fluid.Solid{
		{Position: r2.Vec{X: 10, Y: 5}, Velocity: r2.Vec{X: 1, Y: -2}, Radius: 3, Density: 0.5},
		nil,
		{Position: r2.Vec{X: 30, Y: 15}, Radius: 2, Mass: 4},
	}

	snap := NewSnapshot(sim, 120, 2.0)
	if len(snap.Solids) != 2 {
		t.Fatalf("captured %d solids, want 2", len(snap.Solids))
	}

	path, err := SaveSnapshot(snap, filepath.Join(t.TempDir(), "snaps"))
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if filepath.Base(path) != "snapshot_120.json" {
		t.Errorf("unexpected file name %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Tick != 120 || loaded.Width != 40 || loaded.Height != 20 {
		t.Errorf("header mismatch: %+v", loaded)
	}

	solids := loaded.Restore(40, 20)
	if solids[0].Position != sim.Solids[0].Position || solids[0].Velocity != sim.Solids[0].Velocity {
		t.Errorf("solid 0 = %+v, want %+v", solids[0], sim.Solids[0])
	}
	if solids[1].Mass != 4 || solids[0].Density != 0.5 {
		t.Errorf("mass/density lost: %+v %+v", solids[0], solids[1])
	}
}

func TestSnapshotRestoreRescales(t *testing.T) {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Width:   100,
		Height:  50,
		Solids:  []SolidState{{X: 50, Y: 25, VelX: 10, VelY: 10, Radius: 4}},
	}
	got := snap.Restore(200, 25)[0]
	if got.Position != (r2.Vec{X: 100, Y: 12.5}) {
		t.Errorf("position = %v", got.Position)
	}
	if got.Velocity != (r2.Vec{X: 20, Y: 5}) {
		t.Errorf("velocity = %v", got.Velocity)
	}
	if got.Radius != 4 {
		t.Errorf("radius changed to %v", got.Radius)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	old := filepath.Join(dir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(old); err == nil {
		t.Error("expected error for version mismatch")
	}
}
