package trainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State 为一次流水线运行的可恢复状态，随每个动作完成落盘。
type State struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 已完成的动作名，按完成顺序
	Completed []string `json:"completed"`

	// 各动作产出的远端资源标识
	DatasetID      string `json:"dataset_id,omitempty"`
	TaskID         int64  `json:"task_id,omitempty"`
	JobID          int64  `json:"job_id,omitempty"`
	ModelID        int64  `json:"model_id,omitempty"`
	ModelVersionID int64  `json:"model_version_id,omitempty"`
	ServiceID      int64  `json:"service_id,omitempty"`
	EvalID         int64  `json:"eval_id,omitempty"`
}

// Done reports whether the named action already completed.
func (s *State) Done(action string) bool {
	for _, name := range s.Completed {
		if name == action {
			return true
		}
	}
	return false
}

func (s *State) markDone(action string) {
	if !s.Done(action) {
		s.Completed = append(s.Completed, action)
	}
	s.UpdatedAt = time.Now()
}

// DefaultRunDir returns the snapshot directory, $QIANFAN_HOME/runs or
// ~/.qianfan/runs when QIANFAN_HOME is unset.
func DefaultRunDir() string {
	home := os.Getenv("QIANFAN_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			userHome = "."
		}
		home = filepath.Join(userHome, ".qianfan")
	}
	return filepath.Join(home, "runs")
}

func snapshotPath(dir, runID string) string {
	return filepath.Join(dir, runID+".json")
}

// Save writes the state snapshot under dir.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("trainer: create run dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("trainer: marshal run state: %w", err)
	}
	if err := os.WriteFile(snapshotPath(dir, s.RunID), data, 0o644); err != nil {
		return fmt.Errorf("trainer: write run state: %w", err)
	}
	return nil
}

// LoadState reads the snapshot of runID from dir.
func LoadState(dir, runID string) (*State, error) {
	data, err := os.ReadFile(snapshotPath(dir, runID))
	if err != nil {
		return nil, fmt.Errorf("trainer: read run state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("trainer: decode run state: %w", err)
	}
	return &s, nil
}
