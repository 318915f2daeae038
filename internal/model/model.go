package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&CameraPosition{},
	&UnmatchedImage{},
}

// Run is one geotagging pass over a flight directory
type Run struct {
	ID             uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	UUID           string          `json:"uuid" gorm:"column:run_uuid;size:36;uniqueIndex:idx_run_uuid"` // shared with logs and metrics
	StartTime      time.Time       `json:"startTime"`
	EndTime        sql.NullTime    `json:"endTime"`
	Directory      string          `json:"directory" gorm:"size:1024"`
	TrajectoryFile string          `json:"trajectoryFile" gorm:"size:1024"`
	CaptureLogFile string          `json:"captureLogFile" gorm:"size:1024"`
	ImageCount     int             `json:"imageCount"`
	MatchedCount   int             `json:"matchedCount"`
	UnmatchedCount int             `json:"unmatchedCount"`
	Settings       datatypes.JSON  `json:"settings"`
	Track          geom.LineString `json:"-"` // flight line, XYZ
}

func (*Run) TableName() string {
	return "runs"
}

// CameraPosition is the corrected camera position of one image
type CameraPosition struct {
	ID          uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID       uint         `json:"runId" gorm:"index:idx_cameraposition_run_id"`
	Run         Run          `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Seq         int          `json:"seq"` // position in the output rows
	Filename    string       `json:"filename" gorm:"size:255"`
	ImageID     int          `json:"imageId" gorm:"index:idx_cameraposition_image_id"`
	Position    geom.Point   `json:"position"`  // east/north as 2D point
	Elevation   float64      `json:"elevation"` // Z coordinate
	CaptureHour float64      `json:"captureHour"`
	CameraModel string       `json:"cameraModel" gorm:"size:64"`
	ExifTime    sql.NullTime `json:"exifTime"`
}

func (*CameraPosition) TableName() string {
	return "camera_positions"
}

// UnmatchedImage records why an image was left out of the output
type UnmatchedImage struct {
	ID       uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID    uint           `json:"runId" gorm:"index:idx_unmatchedimage_run_id"`
	Run      Run            `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Seq      int            `json:"seq"`
	Filename string         `json:"filename" gorm:"size:255"`
	ImageID  int            `json:"imageId"` // -1 when the name carried no id
	Reason   string         `json:"reason" gorm:"size:64"`
	Details  datatypes.JSON `json:"details"`
}

func (*UnmatchedImage) TableName() string {
	return "unmatched_images"
}
