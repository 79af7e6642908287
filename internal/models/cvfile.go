package models

import "time"

const (
	FileKindResume = "resume"
	FileKindJD     = "job_description"
)

// CVFile records an uploaded document kept in object storage.
type CVFile struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	ResumeID string `gorm:"column:resume_id;type:text;index" json:"resume_id"`
	Kind     string `gorm:"column:kind;type:text" json:"kind"`
	FileName string `gorm:"column:file_name;type:text" json:"file_name"`
	FilePath string `gorm:"column:file_path;type:text" json:"file_path"` // object key

	FileSize int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType string `gorm:"column:mime_type;type:text" json:"mime_type"`

	UploadAt time.Time `gorm:"column:upload_at;type:timestamptz" json:"upload_at"`
}

func (CVFile) TableName() string { return "cv_files" }
