// Package service contains the run orchestration core: lifecycle management,
// step recording, background dispatch and progress notification.
package service

import (
	"github.com/agentforge/agentforge/internal/adapter/llm"
	"github.com/agentforge/agentforge/internal/adapter/vector"
	"github.com/agentforge/agentforge/internal/config"
	"github.com/agentforge/agentforge/internal/store"
	"github.com/agentforge/agentforge/internal/tools"
)

// Service wires the store, the LLM and vector clients and the tool gateway
// together and owns the execution dispatcher.
type Service struct {
	store      store.Store
	llm        llm.Client
	vector     *vector.Client
	gateway    *tools.Gateway
	config     *config.Config
	dispatcher *Dispatcher
	history    *ConversationProvider
}

// New creates the service. vectorClient may be nil when no vector store is
// configured; knowledge-base agents will then fail at setup.
func New(st store.Store, llmClient llm.Client, vectorClient *vector.Client, gateway *tools.Gateway, cfg *config.Config) *Service {
	s := &Service{
		store:   st,
		llm:     llmClient,
		vector:  vectorClient,
		gateway: gateway,
		config:  cfg,
		history: NewConversationProvider(st, cfg.HistoryWindow),
	}
	s.dispatcher = NewDispatcher(s, cfg.WorkerCount, cfg.QueueSize)
	return s
}

// Start launches the dispatcher workers.
func (s *Service) Start() {
	s.dispatcher.Start()
}

// Stop drains the dispatcher.
func (s *Service) Stop() {
	s.dispatcher.Stop()
}

// Gateway exposes the tool gateway for the transport layer's tool listing.
func (s *Service) Gateway() *tools.Gateway {
	return s.gateway
}
