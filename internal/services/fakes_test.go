package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/llm"
	"github.com/yoockh/mockmate/internal/utils"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type fakeLLM struct {
	mu      sync.Mutex
	json    string
	text    string
	err     error
	prompts []string
	schemas []*llm.Schema
}

func (f *fakeLLM) StreamAnswer(_ context.Context, prompt string) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	text, err := f.text, f.err
	f.mu.Unlock()

	out := make(chan string, 1)
	errs := make(chan error, 1)
	if text != "" {
		out <- text
	}
	close(out)
	if err != nil {
		errs <- err
	}
	close(errs)
	return out, errs
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, schema *llm.Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.json, f.err
}

func (f *fakeLLM) Close() error { return nil }

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type memInterviews struct {
	mu   sync.Mutex
	rows map[string]*models.Interview
	gets int
}

func newMemInterviews() *memInterviews { return &memInterviews{rows: map[string]*models.Interview{}} }

func (m *memInterviews) Create(_ context.Context, iv *models.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *iv
	m.rows[iv.ID] = &cp
	return nil
}

func (m *memInterviews) GetByID(_ context.Context, id string) (*models.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	iv, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (m *memInterviews) ListByUser(_ context.Context, userID string, _ int) ([]models.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Interview
	for _, iv := range m.rows {
		if iv.UserID == userID {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (m *memInterviews) ListLatest(_ context.Context, exclude string, _ int) ([]models.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Interview
	for _, iv := range m.rows {
		if iv.UserID != exclude && iv.Finalized {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (m *memInterviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memFeedback struct {
	mu      sync.Mutex
	docs    map[primitive.ObjectID]*models.Feedback
	deleted []string
}

func newMemFeedback() *memFeedback { return &memFeedback{docs: map[primitive.ObjectID]*models.Feedback{}} }

func (m *memFeedback) Save(_ context.Context, f *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	cp := *f
	m.docs[f.ID] = &cp
	return nil
}

func (m *memFeedback) GetByID(_ context.Context, id string) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	f, ok := m.docs[oid]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFeedback) GetByInterview(_ context.Context, interviewID, userID string) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.docs {
		if f.InterviewID == interviewID && f.UserID == userID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memFeedback) DeleteByInterview(_ context.Context, interviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, interviewID)
	for id, f := range m.docs {
		if f.InterviewID == interviewID {
			delete(m.docs, id)
		}
	}
	return nil
}

type memResumes struct {
	mu   sync.Mutex
	rows map[string]*models.Resume
}

func newMemResumes() *memResumes { return &memResumes{rows: map[string]*models.Resume{}} }

func (m *memResumes) Create(_ context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	m.rows[r.ID.Hex()] = &cp
	return nil
}

func (m *memResumes) GetByID(_ context.Context, id string) (*models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memResumes) ListByUser(_ context.Context, userID string, _ int64) ([]models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resume
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memResumes) SetStatus(_ context.Context, id, status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	r.Status, r.Error = status, errMsg
	return nil
}

func (m *memResumes) SaveAnalysis(_ context.Context, id, text string, a *models.ResumeAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	r.Status = models.ResumeStatusDone
	r.Error = ""
	r.ExtractedText = text
	r.ATSScore = a.ATSScore
	r.Analysis = a
	return nil
}

type memCVFiles struct {
	mu   sync.Mutex
	rows []models.CVFile
}

func (m *memCVFiles) Insert(_ context.Context, f *models.CVFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *f)
	return nil
}

func (m *memCVFiles) ListByResume(_ context.Context, resumeID string) ([]models.CVFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CVFile
	for _, f := range m.rows {
		if f.ResumeID == resumeID {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type memConvos struct {
	mu      sync.Mutex
	rows    []models.ConversationLog
	queries [][]float32
}

func (m *memConvos) Insert(_ context.Context, l *models.ConversationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memConvos) ListBySession(_ context.Context, userID, sessionID string, _ int) ([]models.ConversationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ConversationLog
	for _, r := range m.rows {
		if r.UserID == userID && r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memConvos) NearestTo(_ context.Context, userID string, v pgvector.Vector, n int) ([]models.ConversationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, v.Slice())
	var out []models.ConversationLog
	for _, r := range m.rows {
		if r.UserID == userID && r.Embedding != nil && len(out) < n {
			out = append(out, r)
		}
	}
	return out, nil
}

type memSessions struct {
	mu       sync.Mutex
	rows     map[string]*models.Session
	statuses int
}

func (m *memSessions) statusWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]*models.Session{}} }

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.SessionID] = &cp
	return nil
}

func (m *memSessions) GetBySessionID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListByUser(_ context.Context, userID string, _ int64) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSessions) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses++
	if s, ok := m.rows[id]; ok {
		s.Status = status
	}
	return nil
}

func (m *memSessions) SetCall(_ context.Context, id, callID, interviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		s.CallID = callID
		if interviewID != "" {
			s.InterviewID = interviewID
		}
	}
	return nil
}

func (m *memSessions) SetFeedback(_ context.Context, id, feedbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		s.FeedbackID = feedbackID
	}
	return nil
}

func (m *memSessions) End(_ context.Context, id string, endedAt time.Time, dur int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok && s.EndedAt == nil {
		s.Status = "FINISHED"
		s.EndedAt = &endedAt
		s.DurationSeconds = dur
	}
	return nil
}

var errBoom = errors.New("boom")

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}
