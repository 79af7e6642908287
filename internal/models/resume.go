package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ResumeStatusPending    = "pending"
	ResumeStatusProcessing = "processing"
	ResumeStatusDone       = "done"
	ResumeStatusFailed     = "failed"
)

type ResumeSection struct {
	Name     string  `bson:"name" json:"name"`
	Score    float64 `bson:"score" json:"score"`
	Feedback string  `bson:"feedback" json:"feedback"`
}

type JDMatch struct {
	Percentage      float64  `bson:"percentage" json:"percentage" validate:"min=0,max=100"`
	MissingSkills   []string `bson:"missing_skills" json:"missingSkills"`
	MissingKeywords []string `bson:"missing_keywords" json:"missingKeywords"`
	Recommendation  string   `bson:"recommendation" json:"recommendation"`
}

type OptimizedBullet struct {
	Original  string `bson:"original" json:"original"`
	Optimized string `bson:"optimized" json:"optimized"`
	Reason    string `bson:"reason" json:"reason"`
}

type RadarSkills struct {
	Technical         float64 `bson:"technical" json:"technical" validate:"min=0,max=100"`
	Leadership        float64 `bson:"leadership" json:"leadership" validate:"min=0,max=100"`
	SoftSkills        float64 `bson:"soft_skills" json:"softSkills" validate:"min=0,max=100"`
	IndustryKnowledge float64 `bson:"industry_knowledge" json:"industryKnowledge" validate:"min=0,max=100"`
	Communication     float64 `bson:"communication" json:"communication" validate:"min=0,max=100"`
}

type LearningStep struct {
	Skill       string   `bson:"skill" json:"skill"`
	Roadmap     []string `bson:"roadmap" json:"roadmap"`
	ProjectIdea string   `bson:"project_idea" json:"projectIdea"`
}

type Benchmarking struct {
	Percentile       float64  `bson:"percentile" json:"percentile" validate:"min=0,max=100"`
	Standing         string   `bson:"standing" json:"standing"`
	ComparisonPoints []string `bson:"comparison_points" json:"comparisonPoints"`
}

// ResumeAnalysis is the structured model output for one resume.
type ResumeAnalysis struct {
	ATSScore                 float64           `bson:"ats_score" json:"atsScore" validate:"min=0,max=100"`
	Summary                  string            `bson:"summary" json:"summary" validate:"required"`
	Sections                 []ResumeSection   `bson:"sections" json:"sections"`
	Strengths                []string          `bson:"strengths" json:"strengths"`
	Weaknesses               []string          `bson:"weaknesses" json:"weaknesses"`
	MissingKeywords          []string          `bson:"missing_keywords" json:"missingKeywords"`
	FormattingFeedback       string            `bson:"formatting_feedback" json:"formattingFeedback"`
	QuantifiableAchievements []string          `bson:"quantifiable_achievements" json:"quantifiableAchievements"`
	FinalVerdict             string            `bson:"final_verdict" json:"finalVerdict"`
	JDMatch                  *JDMatch          `bson:"jd_match,omitempty" json:"jdMatch,omitempty" validate:"omitempty"`
	OptimizedBullets         []OptimizedBullet `bson:"optimized_bullets" json:"optimizedBullets"`
	RadarSkills              RadarSkills       `bson:"radar_skills" json:"radarSkills"`
	LearningPath             []LearningStep    `bson:"learning_path" json:"learningPath"`
	Benchmarking             Benchmarking      `bson:"benchmarking" json:"benchmarking"`
}

type Resume struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"user_id" json:"userId"`
	FileName string             `bson:"file_name" json:"fileName"`
	FileKey  string             `bson:"file_key" json:"-"`
	MimeType string             `bson:"mime_type" json:"mimeType"`

	JDText    string `bson:"jd_text,omitempty" json:"jdText,omitempty"`
	JDFileKey string `bson:"jd_file_key,omitempty" json:"-"`

	Status        string          `bson:"status" json:"status"`
	Error         string          `bson:"error,omitempty" json:"error,omitempty"`
	ExtractedText string          `bson:"extracted_text,omitempty" json:"extractedText,omitempty"`
	ATSScore      float64         `bson:"ats_score" json:"atsScore"`
	Analysis      *ResumeAnalysis `bson:"analysis,omitempty" json:"analysis,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
