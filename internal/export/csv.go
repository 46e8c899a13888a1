// Package export serializes recorded pose samples to CSV. The write is
// atomic: samples go to a temp file in the target directory which is renamed
// into place only after a successful flush, so a failed export never leaves a
// partial file and the caller can safely retry with the same buffer.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

// Header is the fixed CSV column header for pose recordings.
var Header = []string{
	"timestamp",
	"device_index",
	"device_class",
	"pos_x", "pos_y", "pos_z",
	"rot_x", "rot_y", "rot_z", "rot_w",
}

// CSVFileName builds the export file name for a session.
func CSVFileName(tag string, t time.Time) string {
	return fmt.Sprintf("svr_debug_%s_%s.csv", tag, t.Format("20060102_150405"))
}

// ScreenshotFileName builds the numbered screenshot file name.
func ScreenshotFileName(n int) string {
	return fmt.Sprintf("svr_screenshot_%d.png", n)
}

// SceneFileName builds the scene export file name.
func SceneFileName(t time.Time) string {
	return fmt.Sprintf("svr_scene_%s.osgb", t.Format("20060102_150405"))
}

// UniquePath returns path unchanged when nothing exists there, otherwise the
// first numbered variant (name_2.csv, name_3.csv, ...) that is free. File
// names carry second resolution, so two exports inside the same second would
// otherwise rename onto the same target and the earlier rows would be lost.
func UniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

// WriteCSV writes samples to path. An empty sample set produces a
// header-only file. Returns the number of data rows written.
func WriteCSV(path string, samples []core.PoseSample) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)

	if err := w.Write(Header); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Timestamp, 'f', 4, 64),
			strconv.FormatUint(uint64(s.DeviceIndex), 10),
			s.Class.String(),
			formatCoord(s.Position.X),
			formatCoord(s.Position.Y),
			formatCoord(s.Position.Z),
			formatCoord(s.Orientation.X),
			formatCoord(s.Orientation.Y),
			formatCoord(s.Orientation.Z),
			formatCoord(s.Orientation.W),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("failed to write sample row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return len(samples), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
