package syncer

import (
	"sync"

	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// handlerSet 通道共用的回调集合，单个回调 panic 不影响其它回调
type handlerSet struct {
	mu       sync.RWMutex
	handlers []zkid.SyncHandler
}

func (s *handlerSet) add(h zkid.SyncHandler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
}

func (s *handlerSet) dispatch(event types.SyncEvent, logger logInterface.Logger) {
	s.mu.RLock()
	handlers := make([]zkid.SyncHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("同步回调 panic: version=%d source=%s err=%v", event.Version, event.Source, r)
				}
			}()
			h(event)
		}()
	}
}
