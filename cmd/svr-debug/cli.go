package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/vexlab/svr-debug/internal/database"
	"github.com/vexlab/svr-debug/internal/export"
	"github.com/vexlab/svr-debug/internal/model"
	"github.com/vexlab/svr-debug/internal/trajectory"
	"github.com/vexlab/svr-debug/pkg/core"
)

// connectDB opens the mirror database the overlay recorded into, Postgres
// first with SQLite fallback, same as the live recorder.
func connectDB() (*gorm.DB, error) {
	dbLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	manager := database.NewManager(dbLog)
	manager.SqliteFilePath = viper.GetString("storage.sqlite.path")
	if err := manager.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := manager.Setup(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return manager.DB, nil
}

// runSessions lists every recorded session with its sample count.
func runSessions() error {
	db, err := connectDB()
	if err != nil {
		return err
	}

	sessions := []model.Session{}
	if err := db.Model(&model.Session{}).Order("start_time ASC").Find(&sessions).Error; err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	for _, s := range sessions {
		var samples int64
		db.Model(&model.PoseSample{}).Where("session_id = ?", s.ID).Count(&samples)

		end := "running"
		if s.EndTime != nil {
			end = s.EndTime.Format(time.RFC3339)
		}
		fmt.Printf("%4d  %-16s  %s  %-24s  %6d samples\n",
			s.ID, s.Tag, s.StartTime.Format(time.RFC3339), end, samples)
	}
	return nil
}

// runDump re-exports recorded sessions from the database to CSV files and
// prints a per-device trajectory summary for each.
func runDump(sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return fmt.Errorf("no session IDs provided")
	}

	db, err := connectDB()
	if err != nil {
		return err
	}

	csvDir := viper.GetString("output.csvDir")
	for _, rawID := range sessionIDs {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", rawID, err)
		}

		var sess model.Session
		if err := db.Model(&model.Session{}).Where("id = ?", id).First(&sess).Error; err != nil {
			return fmt.Errorf("error getting session %d: %w", id, err)
		}

		rows := []model.PoseSample{}
		err = db.Model(&model.PoseSample{}).
			Where("session_id = ?", id).
			Order("timestamp ASC").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("error getting samples for session %d: %w", id, err)
		}

		samples := make([]core.PoseSample, len(rows))
		for i, r := range rows {
			samples[i] = model.RowToSample(r)
		}

		tag := fmt.Sprintf("%s_s%d", sess.Tag, sess.ID)
		path := export.UniquePath(filepath.Join(csvDir, export.CSVFileName(tag, sess.StartTime)))
		n, err := export.WriteCSV(path, samples)
		if err != nil {
			return fmt.Errorf("error writing CSV for session %d: %w", id, err)
		}
		fmt.Printf("Wrote %d rows to %s\n", n, path)

		for _, summary := range trajectory.Summarize(samples) {
			fmt.Println("  " + summary.String())
		}
	}
	return nil
}
