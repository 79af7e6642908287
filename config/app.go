package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// App holds service settings read from the environment. Database clients
// are initialised separately by InitMongo, InitPostgres and InitRedis.
type App struct {
	Port        string
	CORSOrigins []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	VapiAPIKey        string
	VapiBaseURL       string
	VapiInterviewerID string
	VapiWorkflowID    string
	VapiWebhookSecret string
	FallbackDelay     time.Duration

	LLMProvider  string // vertex | gemini
	LLMModel     string
	GCPProjectID string
	GCPLocation  string
	GeminiAPIKey string

	StorageDriver string // gcs | s3 | memory
	GCSBucket     string
	S3Bucket      string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string

	AnalysisWorkers int
}

func LoadApp() (*App, error) {
	a := &App{
		Port:        envOr("PORT", "8080"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		JWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		JWTIssuer:   os.Getenv("SUPABASE_JWT_ISSUER"),
		JWTAudience: os.Getenv("SUPABASE_JWT_AUDIENCE"),

		VapiAPIKey:        os.Getenv("VAPI_API_KEY"),
		VapiBaseURL:       os.Getenv("VAPI_BASE_URL"),
		VapiInterviewerID: os.Getenv("VAPI_INTERVIEWER_ID"),
		VapiWorkflowID:    os.Getenv("VAPI_WORKFLOW_ID"),
		VapiWebhookSecret: os.Getenv("VAPI_WEBHOOK_SECRET"),

		LLMProvider:  strings.ToLower(envOr("LLM_PROVIDER", "vertex")),
		LLMModel:     os.Getenv("LLM_MODEL"),
		GCPProjectID: os.Getenv("GCP_PROJECT_ID"),
		GCPLocation:  envOr("GCP_LOCATION", "us-central1"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		StorageDriver: strings.ToLower(envOr("STORAGE_DRIVER", "gcs")),
		GCSBucket:     os.Getenv("GCS_BUCKET"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      os.Getenv("S3_REGION"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:   os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	ms, err := envInt("FALLBACK_REPLY_DELAY_MS", 2000)
	if err != nil {
		return nil, err
	}
	a.FallbackDelay = time.Duration(ms) * time.Millisecond

	if a.AnalysisWorkers, err = envInt("ANALYSIS_WORKERS", 3); err != nil {
		return nil, err
	}

	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) validate() error {
	var missing []string
	need := func(key, val string) {
		if val == "" {
			missing = append(missing, key)
		}
	}

	need("SUPABASE_JWT_SECRET", a.JWTSecret)
	need("VAPI_API_KEY", a.VapiAPIKey)
	need("VAPI_INTERVIEWER_ID", a.VapiInterviewerID)
	need("VAPI_WORKFLOW_ID", a.VapiWorkflowID)
	need("VAPI_WEBHOOK_SECRET", a.VapiWebhookSecret)

	switch a.LLMProvider {
	case "vertex":
		need("GCP_PROJECT_ID", a.GCPProjectID)
	case "gemini":
		need("GEMINI_API_KEY", a.GeminiAPIKey)
	default:
		return errors.New("LLM_PROVIDER must be vertex or gemini")
	}

	switch a.StorageDriver {
	case "gcs":
		need("GCS_BUCKET", a.GCSBucket)
	case "s3":
		need("S3_BUCKET", a.S3Bucket)
	case "memory":
	default:
		return errors.New("STORAGE_DRIVER must be gcs, s3 or memory")
	}

	if len(missing) > 0 {
		return errors.New("missing environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
