package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/fluid"
)

// SolidRecord is one row of solids.csv.
type SolidRecord struct {
	Tick   int32   `csv:"tick"`
	Index  int     `csv:"index"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	VelX   float64 `csv:"vel_x"`
	VelY   float64 `csv:"vel_y"`
	Radius float64 `csv:"radius"`
}

// FieldRecord is one row of fields.csv.
type FieldRecord struct {
	Tick    int32   `csv:"tick"`
	Field   string  `csv:"field"`
	Channel int     `csv:"channel"`
	Width   int     `csv:"width"`
	Height  int     `csv:"height"`
	Sum     float64 `csv:"sum"`
	Mean    float64 `csv:"mean"`
	Min     float64 `csv:"min"`
	Max     float64 `csv:"max"`
}

// csvFile appends gocsv records, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	perf      *csvFile
	solids    *csvFile
	fields    *csvFile
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		dst  **csvFile
		name string
	}{
		{&om.telemetry, "telemetry.csv"},
		{&om.perf, "perf.csv"},
		{&om.solids, "solids.csv"},
		{&om.fields, "fields.csv"},
	}
	for _, spec := range files {
		f, err := createCSV(dir, spec.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*spec.dst = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSolids writes one row per solid to solids.csv.
func (om *OutputManager) WriteSolids(tick int32, solids []*fluid.Solid) error {
	if om == nil || len(solids) == 0 {
		return nil
	}
	records := make([]SolidRecord, 0, len(solids))
	for i, b := range solids {
		if b == nil {
			continue
		}
		records = append(records, SolidRecord{
			Tick:   tick,
			Index:  i,
			X:      b.Position.X,
			Y:      b.Position.Y,
			VelX:   b.Velocity.X,
			VelY:   b.Velocity.Y,
			Radius: b.Radius,
		})
	}
	if err := om.solids.write(records); err != nil {
		return fmt.Errorf("writing solids: %w", err)
	}
	return nil
}

// WriteFields writes field statistics to fields.csv.
func (om *OutputManager) WriteFields(tick int32, fields []fluid.FieldStats) error {
	if om == nil || len(fields) == 0 {
		return nil
	}
	records := make([]FieldRecord, len(fields))
	for i, fs := range fields {
		records[i] = FieldRecord{
			Tick:    tick,
			Field:   fs.Kind.String(),
			Channel: fs.Channel,
			Width:   fs.Width,
			Height:  fs.Height,
			Sum:     fs.Sum,
			Mean:    fs.Mean,
			Min:     fs.Min,
			Max:     fs.Max,
		}
	}
	if err := om.fields.write(records); err != nil {
		return fmt.Errorf("writing fields: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.solids, om.fields} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
