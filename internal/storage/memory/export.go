// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Archive is the root JSON structure of the session export.
type Archive struct {
	Tag              string       `json:"tag"`
	StartTime        time.Time    `json:"startTime"`
	EndTime          time.Time    `json:"endTime"`
	HostName         string       `json:"hostName"`
	ExtensionVersion string       `json:"extensionVersion"`
	Devices          []DeviceJSON `json:"devices"`
}

// DeviceJSON represents one tracked device with its recorded samples.
type DeviceJSON struct {
	Index   uint32       `json:"index"`
	Class   string       `json:"class"`
	Serial  string       `json:"serial,omitempty"`
	Samples []SampleJSON `json:"samples"`
}

// SampleJSON is the compact sample form:
// [timestamp, [x,y,z], [qx,qy,qz,qw]].
type SampleJSON [3]any

// exportJSON writes the session archive. Caller holds the lock.
func (b *Backend) exportJSON() error {
	archive := b.buildArchive()

	tag := strings.ReplaceAll(b.session.Tag, " ", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("svr_session_%s_%s.json.gz", tag, timestamp)
	} else {
		filename = fmt.Sprintf("svr_session_%s_%s.json", tag, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, archive); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, archive); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildArchive() Archive {
	archive := Archive{
		Tag:              b.session.Tag,
		StartTime:        b.session.StartTime,
		EndTime:          time.Now(),
		HostName:         b.session.HostName,
		ExtensionVersion: b.session.ExtensionVersion,
		Devices:          make([]DeviceJSON, 0, len(b.devices)),
	}

	for _, rec := range b.devices {
		dev := DeviceJSON{
			Index:   rec.Device.Index,
			Class:   rec.Device.Class.String(),
			Serial:  rec.Device.Serial,
			Samples: make([]SampleJSON, 0, len(rec.Samples)),
		}
		for _, s := range rec.Samples {
			dev.Samples = append(dev.Samples, SampleJSON{
				s.Timestamp,
				[]float64{s.Position.X, s.Position.Y, s.Position.Z},
				[]float64{s.Orientation.X, s.Orientation.Y, s.Orientation.Z, s.Orientation.W},
			})
		}
		archive.Devices = append(archive.Devices, dev)
	}

	// stray samples get a synthetic device entry per index
	strayByIndex := make(map[uint32]*DeviceJSON)
	for _, s := range b.strays {
		dev, ok := strayByIndex[s.DeviceIndex]
		if !ok {
			dev = &DeviceJSON{Index: s.DeviceIndex, Class: s.Class.String()}
			strayByIndex[s.DeviceIndex] = dev
		}
		dev.Samples = append(dev.Samples, SampleJSON{
			s.Timestamp,
			[]float64{s.Position.X, s.Position.Y, s.Position.Z},
			[]float64{s.Orientation.X, s.Orientation.Y, s.Orientation.Z, s.Orientation.W},
		})
	}
	for _, dev := range strayByIndex {
		archive.Devices = append(archive.Devices, *dev)
	}

	sort.Slice(archive.Devices, func(i, j int) bool {
		return archive.Devices[i].Index < archive.Devices[j].Index
	})

	return archive
}

func writeJSON(path string, archive Archive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(archive); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, archive Archive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(archive); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return nil
}
