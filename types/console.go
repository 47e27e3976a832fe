package types

import "encoding/json"

// ConsoleResponse is the envelope of every console (management) API call.
// Result is decoded lazily by the caller into the operation-specific shape.
type ConsoleResponse struct {
	LogID  string          `json:"log_id"`
	Result json.RawMessage `json:"result"`

	ErrorCode int    `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Reset clears the envelope so it can be decoded into again.
func (r *ConsoleResponse) Reset() { *r = ConsoleResponse{} }

// Err returns the in-band API error, if any.
func (r *ConsoleResponse) Err() error {
	if r.ErrorCode != 0 {
		return &APIError{Code: r.ErrorCode, Message: r.ErrorMsg}
	}
	return nil
}

// DecodeResult unmarshals the result payload into dest.
func (r *ConsoleResponse) DecodeResult(dest any) error {
	if err := r.Err(); err != nil {
		return err
	}
	return json.Unmarshal(r.Result, dest)
}

// --- Dataset console shapes ---

// Dataset template and storage types use the console's numeric enums.
const (
	DataProjectConversation = 20
	DataProjectGenericText  = 401

	DataTemplateNonSortedConversation = 2000
	DataTemplatePromptResponse        = 2002
	DataTemplateGenericText           = 40100

	DataStoragePublicBOS  = "sysBos"
	DataStoragePrivateBOS = "usrBos"
)

// DatasetInfo 为数据集详情（/wenxinworkshop/dataset/info 的 result）。
type DatasetInfo struct {
	ID           string `json:"datasetId"`
	GroupID      int64  `json:"groupId"`
	Name         string `json:"displayName"`
	VersionID    int    `json:"versionId"`
	ProjectType  int    `json:"projectType"`
	TemplateType int    `json:"templateType"`
	EntityCount  int    `json:"entityCount"`
	ImportStatus int    `json:"importStatus"`
	ExportStatus int    `json:"exportStatus"`
	ReleaseState int    `json:"releaseStatus"`
}

// Dataset import/export/release status enums.
const (
	DatasetStatusInit    = 0
	DatasetStatusRunning = 1
	DatasetStatusDone    = 2
	DatasetStatusFailed  = 3
)

// --- Training console shapes ---

// TrainTask 为训练任务（finetune/createTask 的 result）。
type TrainTask struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TrainJob 为一次训练运行（finetune/createJob 的 result）。
type TrainJob struct {
	ID int64 `json:"id"`
}

// TrainJobStatus values reported by finetune/jobDetail.
const (
	TrainStatusRunning = "RUNNING"
	TrainStatusDone    = "FINISH"
	TrainStatusFailed  = "FAILED"
	TrainStatusStopped = "STOP"
)

// TrainJobDetail 为 finetune/jobDetail 的 result。
type TrainJobDetail struct {
	ID             int64   `json:"id"`
	TaskID         int64   `json:"taskId"`
	Status         string  `json:"trainStatus"`
	Progress       int     `json:"progress"`
	RunTime        int64   `json:"runTime"`
	FinishedReason string  `json:"finishedReason,omitempty"`
	VDLLink        string  `json:"vdlLink,omitempty"`
	TrainMode      string  `json:"trainMode,omitempty"`
	LogPath        string  `json:"logPath,omitempty"`
	Price          float64 `json:"price,omitempty"`
}

// --- Model / service console shapes ---

// ModelVersion 为模型仓库中的一个版本。
type ModelVersion struct {
	ModelID        int64  `json:"modelId"`
	ModelVersionID int64  `json:"modelVersionId"`
	Version        string `json:"version"`
	State          string `json:"state"`
	SourceTaskID   int64  `json:"sourceTaskId,omitempty"`
}

// Model publish states reported by modelrepo APIs.
const (
	ModelStateReady      = "Ready"
	ModelStatePublishing = "Creating"
	ModelStateFailed     = "Failed"
)

// ServiceDetail 为在线服务详情（service/detail 的 result）。
type ServiceDetail struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Status    string `json:"serviceStatus"`
	ModelID   int64  `json:"modelId"`
	VersionID int64  `json:"modelVersionId"`
	CreatedAt string `json:"createTime,omitempty"`
}

// Service status values.
const (
	ServiceStatusNew       = "NEW"
	ServiceStatusDeploying = "DEPLOYING"
	ServiceStatusDone      = "DONE"
	ServiceStatusFailed    = "FAILED"
)

// EvaluationResult 为评估任务的汇总指标。
type EvaluationResult struct {
	TaskID     int64              `json:"taskId"`
	State      string             `json:"state"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	ReportURL  string             `json:"reportUrl,omitempty"`
	FailReason string             `json:"failReason,omitempty"`
}
