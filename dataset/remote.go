package dataset

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// 控制台数据集路由。
const (
	routeDatasetCreate  = "/wenxinworkshop/dataset/create"
	routeDatasetDelete  = "/wenxinworkshop/dataset/delete"
	routeDatasetInfo    = "/wenxinworkshop/dataset/info"
	routeDatasetImport  = "/wenxinworkshop/dataset/import"
	routeDatasetExport  = "/wenxinworkshop/dataset/export"
	routeDatasetRelease = "/wenxinworkshop/dataset/release"
)

// DefaultPollInterval 为等待远端状态流转的轮询间隔。
const DefaultPollInterval = 5 * time.Second

// Service 封装控制台上的数据集管理操作。
type Service struct {
	client *client.Client
	logger *zap.Logger

	pollInterval time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithPollInterval 覆盖状态轮询间隔。
func WithPollInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewService creates a dataset management service over c.
func NewService(c *client.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client:       c,
		logger:       zap.NewNop(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "dataset"))
	return s
}

// CreateRequest describes a new remote dataset.
type CreateRequest struct {
	Name         string `json:"name"`
	ProjectType  int    `json:"projectType"`
	TemplateType int    `json:"templateType"`
	StorageType  string `json:"storageType"`
	StorageID    string `json:"storageId,omitempty"`
	StoragePath  string `json:"rawStoragePath,omitempty"`
}

// Create registers a new dataset on the console.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*types.DatasetInfo, error) {
	if req.StorageType == "" {
		req.StorageType = types.DataStoragePublicBOS
	}
	resp, err := s.client.ConsoleRequest(ctx, routeDatasetCreate, req)
	if err != nil {
		return nil, err
	}
	var out types.DatasetInfo
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	s.logger.Info("数据集已创建",
		zap.String("dataset_id", out.ID),
		zap.String("name", req.Name),
	)
	return &out, nil
}

// Delete removes a remote dataset.
func (s *Service) Delete(ctx context.Context, datasetID string) error {
	_, err := s.client.ConsoleRequest(ctx, routeDatasetDelete, map[string]any{
		"datasetId": datasetID,
	})
	return err
}

// Info returns the current state of a remote dataset.
func (s *Service) Info(ctx context.Context, datasetID string) (*types.DatasetInfo, error) {
	resp, err := s.client.ConsoleRequest(ctx, routeDatasetInfo, map[string]any{
		"datasetId": datasetID,
	})
	if err != nil {
		return nil, err
	}
	var out types.DatasetInfo
	if err := resp.DecodeResult(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import starts loading entities into the dataset from importFrom (a
// BOS path or shared link). Import is asynchronous; use WaitImport.
func (s *Service) Import(ctx context.Context, datasetID, importFrom string, annotated bool) error {
	_, err := s.client.ConsoleRequest(ctx, routeDatasetImport, map[string]any{
		"datasetId":  datasetID,
		"importFrom": importFrom,
		"annotated":  annotated,
		"importType": 1,
	})
	return err
}

// Export starts exporting the dataset to its storage. Asynchronous;
// use WaitExport.
func (s *Service) Export(ctx context.Context, datasetID string) error {
	_, err := s.client.ConsoleRequest(ctx, routeDatasetExport, map[string]any{
		"datasetId":  datasetID,
		"exportType": 1,
	})
	return err
}

// Release publishes the dataset version so training can reference it.
// Asynchronous; use WaitRelease.
func (s *Service) Release(ctx context.Context, datasetID string) error {
	_, err := s.client.ConsoleRequest(ctx, routeDatasetRelease, map[string]any{
		"datasetId": datasetID,
	})
	return err
}

// WaitImport polls until the import finishes or ctx expires.
func (s *Service) WaitImport(ctx context.Context, datasetID string) error {
	return s.waitStatus(ctx, datasetID, "import", func(info *types.DatasetInfo) int {
		return info.ImportStatus
	})
}

// WaitExport polls until the export finishes or ctx expires.
func (s *Service) WaitExport(ctx context.Context, datasetID string) error {
	return s.waitStatus(ctx, datasetID, "export", func(info *types.DatasetInfo) int {
		return info.ExportStatus
	})
}

// WaitRelease polls until the release finishes or ctx expires.
func (s *Service) WaitRelease(ctx context.Context, datasetID string) error {
	return s.waitStatus(ctx, datasetID, "release", func(info *types.DatasetInfo) int {
		return info.ReleaseState
	})
}

func (s *Service) waitStatus(ctx context.Context, datasetID, op string, status func(*types.DatasetInfo) int) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		info, err := s.Info(ctx, datasetID)
		if err != nil {
			return err
		}
		switch status(info) {
		case types.DatasetStatusDone:
			return nil
		case types.DatasetStatusFailed:
			return fmt.Errorf("dataset: %s of %s failed on console", op, datasetID)
		}

		s.logger.Debug("等待数据集状态流转",
			zap.String("dataset_id", datasetID),
			zap.String("op", op),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
