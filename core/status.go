package core

import (
	"context"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
)

// Status reports the state of every tier. It waits for initialization.
func (m *StorageManager) Status(ctx context.Context) schema.ManagerStatus {
	status := schema.ManagerStatus{
		Availability: m.EnsureInitialized(ctx),
		Fallback:     m.fallback.Status(),
		QueryEntries: m.query.Len(),
	}

	status.Remote.Backend = m.remote.Name()
	res := guardRemote(m, "ping", func() contract.Result[struct{}] { return m.remote.Ping(ctx) })
	if res.Success {
		status.Remote.Reachable = true
	} else if res.Err != nil {
		status.Remote.Error = res.Err.Error()
	}

	if st := m.structuredTier(ctx); st != nil {
		structured, err := st.GetStatus(ctx)
		if err != nil {
			m.log.Warn("failed to read structured status", "err", err)
		}
		status.Structured = structured
	}
	return status
}
