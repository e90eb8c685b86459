package app

import (
	"context"
	"fmt"
	"time"

	"modlink/internal/shared/observability"
	"modlink/internal/shared/util"
)

type HealthService struct {
	app *App
}

var _ observability.HealthChecker = (*HealthService)(nil)

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "degraded" while any source is failing to build.
func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	stats := s.app.Graph.Stats()
	status.Components["graph"] = fmt.Sprintf("ok (%d modules, %d requires)", stats.Nodes, stats.Edges)

	switch {
	case s.app.manifests != nil:
		status.Components["manifest_store"] = "ok"
	case s.app.Config().DB.IsEnabled():
		status.Status = "degraded"
		status.Components["manifest_store"] = "missing but enabled in config"
	default:
		status.Components["manifest_store"] = "disabled"
	}

	if failed := len(s.app.Failures()); failed > 0 {
		status.Status = "degraded"
		status.Components["build"] = fmt.Sprintf("%d files failing", failed)
	} else {
		status.Components["build"] = "ok"
	}

	status.Components["memory"] = fmt.Sprintf("%d MB heap", util.GetHeapAllocMB())
	return status
}
