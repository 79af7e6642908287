package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
)

const analysisTimeout = 2 * time.Minute

// Analyzer is the part of the resume service the workers drive.
type Analyzer interface {
	Analyze(ctx context.Context, resumeID string) (*models.ResumeAnalysis, error)
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// StatusChannel is where progress for one resume is published.
func StatusChannel(resumeID string) string { return "resume:" + resumeID + ":status" }

type StatusMessage struct {
	Type     string  `json:"type"`
	ResumeID string  `json:"resume_id"`
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	ATSScore float64 `json:"ats_score,omitempty"`
}

type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Resumes    Analyzer
	NumWorkers int

	Logger *logrus.Entry

	Stream         string
	Group          string
	ConsumerPrefix string

	pub publisher
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Resumes == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Resumes must be set")
	}
	p.defaults()

	err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "workers": p.NumWorkers}).Info("resume analysis workers started")
	return nil
}

func (p *AnalysisWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = DefaultAnalysisStream
	}
	if p.Group == "" {
		p.Group = DefaultAnalysisGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.NewEntry(logrus.New())
	}
	if p.pub == nil && p.Redis != nil {
		p.pub = p.Redis
	}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	id, _ := msg.Values["resume_id"].(string)
	if id == "" {
		return
	}
	log := p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "resume_id": id})

	p.publish(ctx, StatusMessage{Type: "status", ResumeID: id, Status: models.ResumeStatusProcessing})

	actx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	a, err := p.Resumes.Analyze(actx, id)
	if err != nil {
		log.WithError(err).Error("resume analysis failed")
		msg := "analysis failed"
		var ae *utils.AppError
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		p.publish(ctx, StatusMessage{Type: "status", ResumeID: id, Status: models.ResumeStatusFailed, Message: msg})
		return
	}

	done := StatusMessage{Type: "status", ResumeID: id, Status: models.ResumeStatusDone}
	if a != nil {
		done.ATSScore = a.ATSScore
	}
	p.publish(ctx, done)
}

func (p *AnalysisWorkerPool) publish(ctx context.Context, m StatusMessage) {
	if p.pub == nil {
		return
	}
	b, _ := json.Marshal(m)
	if err := p.pub.Publish(ctx, StatusChannel(m.ResumeID), string(b)).Err(); err != nil {
		p.Logger.WithError(err).WithField("resume_id", m.ResumeID).Warn("status publish failed")
	}
}
