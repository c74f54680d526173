package jobs

import "time"

// Status represents the lifecycle of a podcast generation job.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValidStatus reports whether the value is a known status.
func IsValidStatus(status Status) bool {
	for _, known := range allStatuses {
		if status == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a job in this status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Stage identifies the pipeline step a running job is in. The values double
// as the display labels surfaced to polling clients.
type Stage string

const (
	StageQueued           Stage = "Queued"
	StageNewsFetch        Stage = "News Fetch"
	StageScriptGeneration Stage = "Script Generation"
	StageTTSGeneration    Stage = "TTS Generation"
	StagePackaging        Stage = "Packaging"
	StageDone             Stage = "Done"
)

var allStages = []Stage{
	StageQueued,
	StageNewsFetch,
	StageScriptGeneration,
	StageTTSGeneration,
	StagePackaging,
	StageDone,
}

// IsValidStage reports whether the value is a known stage.
func IsValidStage(stage Stage) bool {
	for _, known := range allStages {
		if stage == known {
			return true
		}
	}
	return false
}

// Job represents one podcast generation request tracked by the daemon.
type Job struct {
	ID           string
	Status       Status
	Stage        Stage
	Progress     int
	ETASeconds   *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RequestJSON  string
	ResultJSON   string
	ErrorMessage string
}

// Result is the artifact map stored on a completed job. Paths are
// daemon-served URLs under /files/<id>/.
type Result struct {
	Script    string   `json:"script,omitempty"`
	Questions string   `json:"questions,omitempty"`
	Metadata  string   `json:"metadata,omitempty"`
	News      string   `json:"news,omitempty"`
	Audio     []string `json:"audio"`
}

// Patch describes a partial update to a job. Nil fields are left unchanged.
type Patch struct {
	Status       *Status
	Stage        *Stage
	Progress     *int
	ETASeconds   *int
	ResultJSON   *string
	ErrorMessage *string
}

// Stats summarizes job counts per lifecycle state.
type Stats struct {
	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int
}
