package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/mockmate/internal/extract"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/llm"
	mongorepo "github.com/yoockh/mockmate/internal/repositories/mongo"
	"github.com/yoockh/mockmate/internal/storage"
	"github.com/yoockh/mockmate/internal/utils"
)

const (
	MaxResumeBytes    = 5 << 20
	maxStoredTextRune = 5000
	fileURLTTL        = 15 * time.Minute
)

// AnalysisQueue hands a stored resume to the background analyzers.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, resumeID string) error
}

type ResumeUpload struct {
	UserID   string
	FileName string
	MimeType string
	Data     []byte

	JDText     string
	JDFileName string
	JDMimeType string
	JDData     []byte
}

type ResumeService interface {
	Upload(ctx context.Context, in ResumeUpload) (*models.Resume, error)
	Get(ctx context.Context, userID, id string) (*models.Resume, error)
	List(ctx context.Context, userID string, limit int64) ([]models.Resume, error)
	FileURL(ctx context.Context, r *models.Resume) (string, error)
	// Files lists the stored documents of a resume, the CV first.
	Files(ctx context.Context, r *models.Resume) ([]models.CVFile, error)
	// Analyze runs extraction and scoring for a queued resume.
	Analyze(ctx context.Context, id string) (*models.ResumeAnalysis, error)
	CoverLetter(ctx context.Context, userID, id, jd string) (string, error)
}

type resumeService struct {
	repo     mongorepo.ResumeRepository
	files    CVFileService
	store    storage.ObjectStore
	queue    AnalysisQueue
	llm      llm.Provider
	validate *validator.Validate
	log      *logrus.Entry
}

func NewResumeService(repo mongorepo.ResumeRepository, files CVFileService, store storage.ObjectStore, queue AnalysisQueue, provider llm.Provider, log *logrus.Entry) ResumeService {
	return &resumeService{
		repo:     repo,
		files:    files,
		store:    store,
		queue:    queue,
		llm:      provider,
		validate: validator.New(),
		log:      log,
	}
}

func (s *resumeService) Upload(ctx context.Context, in ResumeUpload) (*models.Resume, error) {
	const op = "ResumeService.Upload"

	if in.UserID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	if len(in.Data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "No file uploaded", nil)
	}
	if len(in.Data) > MaxResumeBytes || len(in.JDData) > MaxResumeBytes {
		return nil, utils.E(utils.CodeTooLarge, op, "file exceeds 5MB", nil)
	}
	mime := extract.DetectMime(in.MimeType, in.FileName)
	if !extract.Supported(mime) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume must be a PDF, DOCX or text file", nil)
	}
	jdMime := ""
	if len(in.JDData) > 0 {
		jdMime = extract.DetectMime(in.JDMimeType, in.JDFileName)
		if !extract.Supported(jdMime) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "job description must be a PDF, DOCX or text file", nil)
		}
	}

	res := &models.Resume{
		ID:       primitive.NewObjectID(),
		UserID:   in.UserID,
		FileName: in.FileName,
		MimeType: mime,
		JDText:   strings.TrimSpace(in.JDText),
		Status:   models.ResumeStatusPending,
	}
	id := res.ID.Hex()
	prefix := "resumes/" + in.UserID + "/" + id + "/"

	f, err := s.files.Upload(ctx, CVUpload{
		UserID:     in.UserID,
		ResumeID:   id,
		Kind:       models.FileKindResume,
		FileName:   in.FileName,
		FileSize:   len(in.Data),
		MimeType:   mime,
		ObjectName: prefix + "resume" + filepath.Ext(in.FileName),
		Body:       bytes.NewReader(in.Data),
	})
	if err != nil {
		return nil, err
	}
	res.FileKey = f.FilePath

	if len(in.JDData) > 0 {
		jf, err := s.files.Upload(ctx, CVUpload{
			UserID:     in.UserID,
			ResumeID:   id,
			Kind:       models.FileKindJD,
			FileName:   in.JDFileName,
			FileSize:   len(in.JDData),
			MimeType:   jdMime,
			ObjectName: prefix + "jd" + filepath.Ext(in.JDFileName),
			Body:       bytes.NewReader(in.JDData),
		})
		if err != nil {
			return nil, err
		}
		res.JDFileKey = jf.FilePath
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save resume", err)
	}

	if s.queue == nil {
		return nil, utils.E(utils.CodeInternal, op, "analysis queue is not configured", nil)
	}
	if err := s.queue.Enqueue(ctx, id); err != nil {
		_ = s.repo.SetStatus(ctx, id, models.ResumeStatusFailed, "could not queue analysis")
		return nil, utils.E(utils.CodeUnavailable, op, "failed to queue analysis", err)
	}
	return res, nil
}

func (s *resumeService) Get(ctx context.Context, userID, id string) (*models.Resume, error) {
	const op = "ResumeService.Get"

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "resume not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get resume", err)
	}
	if r.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "resume not found", nil)
	}
	return r, nil
}

func (s *resumeService) List(ctx context.Context, userID string, limit int64) ([]models.Resume, error) {
	const op = "ResumeService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list resumes", err)
	}
	return rows, nil
}

func (s *resumeService) Files(ctx context.Context, r *models.Resume) ([]models.CVFile, error) {
	return s.files.ListByResume(ctx, r.ID.Hex())
}

func (s *resumeService) FileURL(ctx context.Context, r *models.Resume) (string, error) {
	const op = "ResumeService.FileURL"

	if r.FileKey == "" {
		return "", utils.E(utils.CodeNotFound, op, "file not found", nil)
	}
	u, err := s.store.SignedGetURL(ctx, r.FileKey, fileURLTTL)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to sign url", err)
	}
	return u, nil
}

func (s *resumeService) Analyze(ctx context.Context, id string) (*models.ResumeAnalysis, error) {
	const op = "ResumeService.Analyze"

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "resume not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get resume", err)
	}
	if r.Status == models.ResumeStatusDone {
		return r.Analysis, nil
	}

	log := s.log.WithField("resume_id", id)
	if err := s.repo.SetStatus(ctx, id, models.ResumeStatusProcessing, ""); err != nil {
		log.WithError(err).Warn("failed to mark resume processing")
	}

	analysis, text, err := s.analyze(ctx, r)
	if err != nil {
		msg := "Failed to analyze resume"
		var ae *utils.AppError
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		if serr := s.repo.SetStatus(ctx, id, models.ResumeStatusFailed, msg); serr != nil {
			log.WithError(serr).Warn("failed to mark resume failed")
		}
		return nil, err
	}

	if err := s.repo.SaveAnalysis(ctx, id, truncateRunes(text, maxStoredTextRune), analysis); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save analysis", err)
	}
	log.WithField("ats_score", analysis.ATSScore).Info("resume analyzed")
	return analysis, nil
}

func (s *resumeService) analyze(ctx context.Context, r *models.Resume) (*models.ResumeAnalysis, string, error) {
	const op = "ResumeService.Analyze"

	data, err := s.store.Download(ctx, r.FileKey)
	if err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "file download error", err)
	}
	text, err := extract.Text(r.MimeType, data)
	if err != nil {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "could not read the resume file", err)
	}
	if text == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "Could not extract text from the file. Please ensure the file is not empty or protected.", nil)
	}

	jd := r.JDText
	if r.JDFileKey != "" {
		if raw, err := s.store.Download(ctx, r.JDFileKey); err == nil {
			if jdText, err := extract.Text(extract.DetectMime("", r.JDFileKey), raw); err == nil && jdText != "" {
				jd = jdText
			}
		}
	}

	out, err := s.llm.GenerateJSON(ctx, resumePrompt(text, jd), resumeAnalysisSchema(jd != ""))
	if err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "analysis failed", err)
	}
	var a models.ResumeAnalysis
	if err := llm.DecodeJSON(out, &a); err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "model returned invalid analysis", err)
	}
	if jd == "" {
		a.JDMatch = nil
	}
	if err := s.validate.Struct(a); err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "model returned incomplete analysis", err)
	}
	return &a, text, nil
}

func (s *resumeService) CoverLetter(ctx context.Context, userID, id, jd string) (string, error) {
	const op = "ResumeService.CoverLetter"

	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if r.ExtractedText == "" {
		return "", utils.E(utils.CodeFailedPrecondition, op, "resume has not been analyzed yet", nil)
	}
	if jd = strings.TrimSpace(jd); jd == "" {
		jd = r.JDText
	}
	if jd == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "job description is required", nil)
	}

	schema := llm.Object([]string{"coverLetter"}, map[string]*llm.Schema{
		"coverLetter": llm.String("The full cover letter"),
	})
	raw, err := s.llm.GenerateJSON(ctx, coverLetterPrompt(r.ExtractedText, jd), schema)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "Failed to generate cover letter", err)
	}
	var out struct {
		CoverLetter string `json:"coverLetter"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil || strings.TrimSpace(out.CoverLetter) == "" {
		return "", utils.E(utils.CodeUnavailable, op, "Failed to generate cover letter", err)
	}
	return strings.TrimSpace(out.CoverLetter), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func resumeAnalysisSchema(withJD bool) *llm.Schema {
	str := llm.String("")
	strs := llm.ArrayOf(str)
	num := func(desc string) *llm.Schema { return llm.Number(desc) }

	props := map[string]*llm.Schema{
		"atsScore": num("ATS score from 0 to 100"),
		"summary":  llm.String("Two or three sentence summary"),
		"sections": llm.ArrayOf(llm.Object([]string{"name", "score", "feedback"}, map[string]*llm.Schema{
			"name": str, "score": num("0-100"), "feedback": str,
		})),
		"strengths":                strs,
		"weaknesses":               strs,
		"missingKeywords":          strs,
		"formattingFeedback":       str,
		"quantifiableAchievements": strs,
		"finalVerdict":             str,
		"optimizedBullets": llm.ArrayOf(llm.Object([]string{"original", "optimized", "reason"}, map[string]*llm.Schema{
			"original": str, "optimized": str, "reason": str,
		})),
		"radarSkills": llm.Object(
			[]string{"technical", "leadership", "softSkills", "industryKnowledge", "communication"},
			map[string]*llm.Schema{
				"technical":         num("0-100"),
				"leadership":        num("0-100"),
				"softSkills":        num("0-100"),
				"industryKnowledge": num("0-100"),
				"communication":     num("0-100"),
			}),
		"learningPath": llm.ArrayOf(llm.Object([]string{"skill", "roadmap", "projectIdea"}, map[string]*llm.Schema{
			"skill": str, "roadmap": strs, "projectIdea": str,
		})),
		"benchmarking": llm.Object([]string{"percentile", "standing", "comparisonPoints"}, map[string]*llm.Schema{
			"percentile": num("0-100"), "standing": str, "comparisonPoints": strs,
		}),
	}
	required := []string{
		"atsScore", "summary", "sections", "strengths", "weaknesses", "missingKeywords",
		"formattingFeedback", "quantifiableAchievements", "finalVerdict", "optimizedBullets",
		"radarSkills", "learningPath", "benchmarking",
	}
	if withJD {
		props["jdMatch"] = llm.Object([]string{"percentage", "missingSkills", "missingKeywords", "recommendation"}, map[string]*llm.Schema{
			"percentage": num("0-100"), "missingSkills": strs, "missingKeywords": strs, "recommendation": str,
		})
		required = append(required, "jdMatch")
	}
	return llm.Object(required, props)
}

func resumePrompt(resume, jd string) string {
	var b strings.Builder
	b.WriteString(`You are an expert ATS (Applicant Tracking System) and Career Coach.
Your task is to analyze the following resume text and provide a comprehensive, ATS-focused evaluation.

Resume Text:
`)
	b.WriteString(resume)
	b.WriteString("\n\n")
	if jd != "" {
		fmt.Fprintf(&b, "Job Description to match against:\n%s\n\n", jd)
	}
	b.WriteString(`Evaluation Guidelines:
1. ATS Score: a realistic score from 0-100 based on modern ATS standards.
2. Keyword Mapping: check that technical and soft skills are properly highlighted.
3. Formatting: flag complex layouts, missing headers or poor structure.
4. Impact: check for numbers, percentages or metrics. If none are found, give 3 specific achievements the candidate should add. Never leave this list empty.
5. Missing Keywords: suggest 5-10 industry-specific keywords.
6. Strengths and Weaknesses: constructive but direct.
7. Radar Skills: score 0-100 for Technical, Leadership, Soft Skills, Industry Knowledge and Communication.
8. Bullet Optimizer: pick 3 weak bullets and give an optimized, achievement-oriented version of each.
`)
	if jd != "" {
		b.WriteString(`9. JD Matching: give a match percentage and the missing skills and keywords relative to the job description.
10. Learning Path: for the top 3 gaps, a 3-step roadmap and a project idea each.
11. Benchmarking: percentile standing (0-100) against the ideal candidate for the target role, with a short description.
`)
	} else {
		b.WriteString(`9. Learning Path: for the top 3 technical weaknesses, a 3-step roadmap and a project idea each.
10. Benchmarking: percentile standing (0-100) against general industry standards for the candidate's level, with a short description.
`)
	}
	b.WriteString("\nOutput the result strictly according to the provided schema.")
	return b.String()
}

func coverLetterPrompt(resume, jd string) string {
	return fmt.Sprintf(`You are a top-tier Career Consultant and Copywriter. Write a high-impact, tailored cover letter.

Resume Context (extract achievements to showcase value):
%s

Job Description Context (extract requirements to show alignment):
%s

Strategy:
1. Match the professionalism and culture hinted at in the job description.
2. Link resume achievements to the specific problems in the job description.
3. Structure: header with [NAME] and [CONTACT] placeholders, hook, value proposition, evidence with metrics, call to action and sign-off.
4. Tone: persuasive, confident and professional. No placeholders other than the user's own details.`, resume, jd)
}
