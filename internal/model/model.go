package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent
// tables in the mirror database schema.
var DatabaseModels = []interface{}{
	&Session{},
	&Device{},
	&PoseSample{},
}

// Session is one debug session, keyed automatically.
type Session struct {
	gorm.Model
	Tag              string     `json:"tag" gorm:"size:127"`
	StartTime        time.Time  `json:"startTime" gorm:"index:idx_session_start"`
	EndTime          *time.Time `json:"endTime"`
	HostName         string     `json:"hostName" gorm:"size:127"`
	ExtensionVersion string     `json:"extensionVersion" gorm:"size:64"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Device is one tracked device seen during a session. DeviceIndex is the
// host runtime index and is only unique within a session.
type Device struct {
	gorm.Model
	SessionID   uint           `json:"sessionId" gorm:"index:idx_device_session_id"`
	Session     Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	DeviceIndex uint32         `json:"deviceIndex"`
	Class       string         `json:"class" gorm:"size:32;index:idx_device_class"`
	Serial      string         `json:"serial" gorm:"size:127"`
	FirstSeen   time.Time      `json:"firstSeen"`
	Properties  datatypes.JSON `json:"properties" gorm:"default:'{}'"`
}

func (*Device) TableName() string {
	return "devices"
}

// PoseSample is one recorded pose row. Timestamp is session-relative seconds.
type PoseSample struct {
	ID          uint    `json:"id" gorm:"primarykey"`
	SessionID   uint    `json:"sessionId" gorm:"index:idx_sample_session_id"`
	Session     Session `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Timestamp   float64 `json:"timestamp" gorm:"index:idx_sample_timestamp"`
	DeviceIndex uint32  `json:"deviceIndex"`
	Class       string  `json:"class" gorm:"size:32"`
	PosX        float64 `json:"posX"`
	PosY        float64 `json:"posY"`
	PosZ        float64 `json:"posZ"`
	RotX        float64 `json:"rotX"`
	RotY        float64 `json:"rotY"`
	RotZ        float64 `json:"rotZ"`
	RotW        float64 `json:"rotW"`
}

func (*PoseSample) TableName() string {
	return "pose_samples"
}
