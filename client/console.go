package client

import (
	"context"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// 控制台（管理面）路由。全部为 POST + bce-auth-v1 签名。
const (
	routeServiceList   = "/wenxinworkshop/service/list"
	routeServiceDetail = "/wenxinworkshop/service/detail"
	routeServiceApply  = "/wenxinworkshop/service/apply"

	routeFinetuneCreateTask = "/wenxinworkshop/finetune/createTask"
	routeFinetuneCreateJob  = "/wenxinworkshop/finetune/createJob"
	routeFinetuneJobDetail  = "/wenxinworkshop/finetune/jobDetail"
	routeFinetuneStopJob    = "/wenxinworkshop/finetune/stopJob"

	routeModelPublish       = "/wenxinworkshop/modelrepo/publishTrainModel"
	routeModelVersionDetail = "/wenxinworkshop/modelrepo/modelVersionDetail"

	routeEvalCreate = "/wenxinworkshop/modelrepo/eval/create"
	routeEvalDetail = "/wenxinworkshop/modelrepo/eval/detail"
)

// ServiceList 为 service/list 的 result。
type ServiceList struct {
	Common []types.ServiceDetail `json:"common"`
	Custom []types.ServiceDetail `json:"custom"`
}

// ListServices returns the deployed services visible to the credential.
func (c *Client) ListServices(ctx context.Context) (*ServiceList, error) {
	resp, err := c.ConsoleRequest(ctx, routeServiceList, map[string]any{})
	if err != nil {
		return nil, err
	}
	var out ServiceList
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetService returns the detail of one deployed service.
func (c *Client) GetService(ctx context.Context, serviceID int64) (*types.ServiceDetail, error) {
	resp, err := c.ConsoleRequest(ctx, routeServiceDetail, map[string]any{"serviceId": serviceID})
	if err != nil {
		return nil, err
	}
	var out types.ServiceDetail
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeployRequest describes a service deployment for a published model.
type DeployRequest struct {
	Name           string `json:"name"`
	URISuffix      string `json:"uri"`
	ModelID        int64  `json:"modelId"`
	ModelVersionID int64  `json:"modelVersionId"`
	Replicas       int    `json:"replicas,omitempty"`
	PoolType       int    `json:"poolType,omitempty"`
}

type deployResult struct {
	ServiceID int64 `json:"serviceId"`
}

// DeployService applies for a new service carrying the model version.
// Deployment is asynchronous; poll GetService for the DONE status.
func (c *Client) DeployService(ctx context.Context, req *DeployRequest) (int64, error) {
	resp, err := c.ConsoleRequest(ctx, routeServiceApply, req)
	if err != nil {
		return 0, err
	}
	var out deployResult
	if err := resp.DecodeResult(&out); err != nil {
		return 0, err
	}
	return out.ServiceID, nil
}

// CreateTrainTask creates a named fine-tune task (the container for jobs).
func (c *Client) CreateTrainTask(ctx context.Context, name, description string) (*types.TrainTask, error) {
	resp, err := c.ConsoleRequest(ctx, routeFinetuneCreateTask, map[string]any{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	var out types.TrainTask
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTrainJob starts one training run. params carries the vendor's
// hyper-parameter fields verbatim (trainMode, peftType, epoch, ...).
func (c *Client) CreateTrainJob(ctx context.Context, params map[string]any) (*types.TrainJob, error) {
	resp, err := c.ConsoleRequest(ctx, routeFinetuneCreateJob, params)
	if err != nil {
		return nil, err
	}
	var out types.TrainJob
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTrainJob returns the status of one training run.
func (c *Client) GetTrainJob(ctx context.Context, taskID, jobID int64) (*types.TrainJobDetail, error) {
	resp, err := c.ConsoleRequest(ctx, routeFinetuneJobDetail, map[string]any{
		"taskId": taskID,
		"jobId":  jobID,
	})
	if err != nil {
		return nil, err
	}
	var out types.TrainJobDetail
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopTrainJob stops a running training run.
func (c *Client) StopTrainJob(ctx context.Context, taskID, jobID int64) error {
	_, err := c.ConsoleRequest(ctx, routeFinetuneStopJob, map[string]any{
		"taskId": taskID,
		"jobId":  jobID,
	})
	return err
}

// PublishModel publishes the artifact of a finished training run into the
// model repository.
func (c *Client) PublishModel(ctx context.Context, taskID, iterationID int64, name, version string) (*types.ModelVersion, error) {
	resp, err := c.ConsoleRequest(ctx, routeModelPublish, map[string]any{
		"taskId":       taskID,
		"iterationsId": iterationID,
		"modelName":    name,
		"version":      version,
	})
	if err != nil {
		return nil, err
	}
	var out types.ModelVersion
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetModelVersion returns the publish state of a model version.
func (c *Client) GetModelVersion(ctx context.Context, versionID int64) (*types.ModelVersion, error) {
	resp, err := c.ConsoleRequest(ctx, routeModelVersionDetail, map[string]any{
		"modelVersionId": versionID,
	})
	if err != nil {
		return nil, err
	}
	var out types.ModelVersion
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvaluation starts an evaluation of model versions on a dataset.
func (c *Client) CreateEvaluation(ctx context.Context, params map[string]any) (int64, error) {
	resp, err := c.ConsoleRequest(ctx, routeEvalCreate, params)
	if err != nil {
		return 0, err
	}
	var out struct {
		EvalID int64 `json:"evalId"`
	}
	if err := resp.DecodeResult(&out); err != nil {
		return 0, err
	}
	return out.EvalID, nil
}

// GetEvaluation returns the state and metrics of an evaluation task.
func (c *Client) GetEvaluation(ctx context.Context, evalID int64) (*types.EvaluationResult, error) {
	resp, err := c.ConsoleRequest(ctx, routeEvalDetail, map[string]any{"id": evalID})
	if err != nil {
		return nil, err
	}
	var out types.EvaluationResult
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
