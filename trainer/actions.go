package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/dataset"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// Action 为流水线中的一步。Run 在动作完成后把产出写回 state。
type Action interface {
	Name() string
	Run(ctx context.Context, state *State) error
}

// DefaultPollInterval 为轮询远端任务状态的间隔。
const DefaultPollInterval = 30 * time.Second

// poll 以固定间隔调用 check，直到其返回 done、出错或 ctx 取消。
func poll(ctx context.Context, interval time.Duration, check func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- 加载数据集 ---

// LoadDatasetAction releases the dataset version and waits until the
// console reports it ready for training.
type LoadDatasetAction struct {
	Service   *dataset.Service
	DatasetID string
}

func (a *LoadDatasetAction) Name() string { return "load_dataset" }

func (a *LoadDatasetAction) Run(ctx context.Context, state *State) error {
	if a.DatasetID == "" {
		return fmt.Errorf("trainer: load_dataset requires a dataset id")
	}

	info, err := a.Service.Info(ctx, a.DatasetID)
	if err != nil {
		return err
	}
	if info.ReleaseState != types.DatasetStatusDone {
		if err := a.Service.Release(ctx, a.DatasetID); err != nil {
			return err
		}
		if err := a.Service.WaitRelease(ctx, a.DatasetID); err != nil {
			return err
		}
	}

	state.DatasetID = a.DatasetID
	return nil
}

// --- 训练 ---

// TrainAction creates a fine-tune task plus one job and polls until the
// job finishes. A cancelled ctx stops the remote job best-effort.
type TrainAction struct {
	Client *client.Client

	TaskName    string
	Description string
	// Params carries the console's hyper-parameter fields verbatim
	// (trainMode, peftType, epoch, learningRate, ...).
	Params map[string]any

	PollInterval time.Duration
}

func (a *TrainAction) Name() string { return "train" }

func (a *TrainAction) Run(ctx context.Context, state *State) error {
	interval := a.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	task, err := a.Client.CreateTrainTask(ctx, a.TaskName, a.Description)
	if err != nil {
		return err
	}
	state.TaskID = task.ID

	params := make(map[string]any, len(a.Params)+2)
	for k, v := range a.Params {
		params[k] = v
	}
	params["taskId"] = task.ID
	if state.DatasetID != "" {
		params["trainset"] = []map[string]any{{"datasetId": state.DatasetID}}
	}

	job, err := a.Client.CreateTrainJob(ctx, params)
	if err != nil {
		return err
	}
	state.JobID = job.ID

	err = poll(ctx, interval, func() (bool, error) {
		detail, derr := a.Client.GetTrainJob(ctx, task.ID, job.ID)
		if derr != nil {
			return false, derr
		}
		switch detail.Status {
		case types.TrainStatusDone:
			return true, nil
		case types.TrainStatusFailed:
			return false, fmt.Errorf("trainer: job %d failed: %s", job.ID, detail.FinishedReason)
		case types.TrainStatusStopped:
			return false, fmt.Errorf("trainer: job %d was stopped on console", job.ID)
		}
		return false, nil
	})
	if ctx.Err() != nil {
		// 尽力停掉远端任务，停止本身的失败不覆盖取消原因
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = a.Client.StopTrainJob(stopCtx, task.ID, job.ID)
	}
	return err
}

// --- 发布 ---

// PublishAction publishes the trained artifact into the model repo and
// waits for the Ready state.
type PublishAction struct {
	Client *client.Client

	ModelName    string
	Version      string
	PollInterval time.Duration
}

func (a *PublishAction) Name() string { return "publish" }

func (a *PublishAction) Run(ctx context.Context, state *State) error {
	interval := a.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if state.TaskID == 0 || state.JobID == 0 {
		return fmt.Errorf("trainer: publish requires a finished train step")
	}

	version := a.Version
	if version == "" {
		version = "1"
	}
	mv, err := a.Client.PublishModel(ctx, state.TaskID, state.JobID, a.ModelName, version)
	if err != nil {
		return err
	}
	state.ModelID = mv.ModelID
	state.ModelVersionID = mv.ModelVersionID

	return poll(ctx, interval, func() (bool, error) {
		got, derr := a.Client.GetModelVersion(ctx, mv.ModelVersionID)
		if derr != nil {
			return false, derr
		}
		switch got.State {
		case types.ModelStateReady:
			return true, nil
		case types.ModelStateFailed:
			return false, fmt.Errorf("trainer: model version %d publish failed", mv.ModelVersionID)
		}
		return false, nil
	})
}

// --- 部署 ---

// DeployAction applies for a service over the published model version
// and waits for it to come up.
type DeployAction struct {
	Client *client.Client

	ServiceName  string
	URISuffix    string
	Replicas     int
	PoolType     int
	PollInterval time.Duration
}

func (a *DeployAction) Name() string { return "deploy" }

func (a *DeployAction) Run(ctx context.Context, state *State) error {
	interval := a.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if state.ModelVersionID == 0 {
		return fmt.Errorf("trainer: deploy requires a published model version")
	}

	serviceID, err := a.Client.DeployService(ctx, &client.DeployRequest{
		Name:           a.ServiceName,
		URISuffix:      a.URISuffix,
		ModelID:        state.ModelID,
		ModelVersionID: state.ModelVersionID,
		Replicas:       a.Replicas,
		PoolType:       a.PoolType,
	})
	if err != nil {
		return err
	}
	state.ServiceID = serviceID

	return poll(ctx, interval, func() (bool, error) {
		svc, derr := a.Client.GetService(ctx, serviceID)
		if derr != nil {
			return false, derr
		}
		switch svc.Status {
		case types.ServiceStatusDone:
			return true, nil
		case types.ServiceStatusFailed:
			return false, fmt.Errorf("trainer: service %d deploy failed", serviceID)
		}
		return false, nil
	})
}

// --- 评估 ---

// EvaluateAction starts an evaluation of the published model version on
// a dataset and waits for the summary metrics.
type EvaluateAction struct {
	Client *client.Client

	EvalDatasetID string
	// Params carries extra evaluation config fields verbatim.
	Params map[string]any

	PollInterval time.Duration
}

func (a *EvaluateAction) Name() string { return "evaluate" }

func (a *EvaluateAction) Run(ctx context.Context, state *State) error {
	interval := a.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if state.ModelVersionID == 0 {
		return fmt.Errorf("trainer: evaluate requires a published model version")
	}

	params := make(map[string]any, len(a.Params)+2)
	for k, v := range a.Params {
		params[k] = v
	}
	params["versionIds"] = []int64{state.ModelVersionID}
	if a.EvalDatasetID != "" {
		params["datasetId"] = a.EvalDatasetID
	}

	evalID, err := a.Client.CreateEvaluation(ctx, params)
	if err != nil {
		return err
	}
	state.EvalID = evalID

	return poll(ctx, interval, func() (bool, error) {
		res, derr := a.Client.GetEvaluation(ctx, evalID)
		if derr != nil {
			return false, derr
		}
		switch res.State {
		case "Done":
			return true, nil
		case "Failed":
			return false, fmt.Errorf("trainer: evaluation %d failed: %s", evalID, res.FailReason)
		}
		return false, nil
	})
}
