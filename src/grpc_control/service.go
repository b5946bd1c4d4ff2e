package grpc_control

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"trend-pulse/src/config"
	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements PulseControlServer
type ControlService struct {
	Config     *config.Config
	ConfigPath string
	Sources    interfaces.ISourceRegistry
	Dashboard  interfaces.IDashboardProvider
	Logger     *logger.Logger

	configMutex sync.Mutex
}

// NewControlService creates a new instance of ControlService.
// Source changes are written back to cfgPath when it is not empty.
func NewControlService(
	cfg *config.Config,
	cfgPath string,
	sources interfaces.ISourceRegistry,
	dashboard interfaces.IDashboardProvider,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Config:     cfg,
		ConfigPath: cfgPath,
		Sources:    sources,
		Dashboard:  dashboard,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSources(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"sources": s.Sources.Connections()})
}

// -----------------------------------------------------------------------------

func (s *ControlService) AddSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, err := requireString(req, "sourceId")
	if err != nil {
		return nil, err
	}

	if err := s.Sources.AddSource(sourceID); err != nil {
		return nil, status.Errorf(codes.AlreadyExists, "failed to add source: %v", err)
	}

	s.updateConfig(func(cfg *config.Config) {
		cfg.Ingestion.Sources = append(cfg.Ingestion.Sources, models.MSourceConfig{ID: sourceID})
	})

	s.Logger.Info("gRPC: added source %s", sourceID)
	return controlResponse(true, fmt.Sprintf("Added source %s", sourceID), "active")
}

// -----------------------------------------------------------------------------

func (s *ControlService) RemoveSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, err := requireString(req, "sourceId")
	if err != nil {
		return nil, err
	}

	if err := s.Sources.RemoveSource(sourceID); err != nil {
		return nil, status.Errorf(codes.NotFound, "failed to remove source: %v", err)
	}

	// Clean from Config
	s.updateConfig(func(cfg *config.Config) {
		kept := []models.MSourceConfig{}
		for _, src := range cfg.Ingestion.Sources {
			if src.ID != sourceID {
				kept = append(kept, src)
			}
		}
		cfg.Ingestion.Sources = kept
	})

	s.Logger.Info("gRPC: removed source %s", sourceID)
	return controlResponse(true, fmt.Sprintf("Removed source %s", sourceID), "removed")
}

// -----------------------------------------------------------------------------

func (s *ControlService) ReconnectSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, err := requireString(req, "sourceId")
	if err != nil {
		return nil, err
	}

	if err := s.Sources.Reconnect(sourceID); err != nil {
		return nil, status.Errorf(codes.NotFound, "failed to reconnect source: %v", err)
	}
	return controlResponse(true, fmt.Sprintf("Reconnected source %s", sourceID), "active")
}

// -----------------------------------------------------------------------------

func (s *ControlService) AcknowledgeAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	alertID, err := requireString(req, "alertId")
	if err != nil {
		return nil, err
	}

	ok := s.Dashboard.AcknowledgeAlert(alertID)
	return toStruct(map[string]interface{}{"alertId": alertID, "success": ok})
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetDashboard(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.Dashboard.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *ControlService) updateConfig(mutate func(cfg *config.Config)) {
	s.configMutex.Lock()
	defer s.configMutex.Unlock()

	mutate(s.Config)
	if s.ConfigPath == "" {
		return
	}
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Error("gRPC: failed to persist config: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Serving
// -----------------------------------------------------------------------------

// Serve runs the control plane on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, svc PulseControlServer, log *logger.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, lis, svc, log)
}

// -----------------------------------------------------------------------------

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, lis net.Listener, svc PulseControlServer, log *logger.Logger) error {
	srv := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))
	RegisterPulseControlServer(srv, svc)

	errCh := make(chan error, 1)
	go func() {
		log.Info("gRPC control plane listening on %s", lis.Addr())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	}
}

// -----------------------------------------------------------------------------

func loggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logger.Fields{
			"method":   info.FullMethod,
			"duration": time.Since(start).String(),
			"code":     status.Code(err).String(),
		})
		if err != nil {
			entry.WithError(err).Warning("gRPC call failed")
		} else {
			entry.Debug("gRPC call")
		}
		return resp, err
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func requireString(req *structpb.Struct, key string) (string, error) {
	v := req.GetFields()[key].GetStringValue()
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

// -----------------------------------------------------------------------------

func controlResponse(success bool, message, state string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"success":      success,
		"message":      message,
		"currentState": state,
	})
}

// -----------------------------------------------------------------------------

// toStruct converts any JSON-encodable value to a Struct using its JSON field names.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
