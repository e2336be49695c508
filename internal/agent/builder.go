package agent

import (
	"fmt"
	"log"

	"github.com/agentforge/agentforge/internal/adapter/vector"
	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/tools"
)

// BuildCapabilities resolves an agent configuration into the ordered
// capability set the loop will present to the model. Tool names without a
// registered tool are skipped with a warning; an enabled knowledge base
// without a configured vector client is a setup error.
func BuildCapabilities(cfg *domain.AgentConfig, gw *tools.Gateway, vs *vector.Client, inv tools.Invocation) ([]Capability, error) {
	caps := make([]Capability, 0, len(cfg.Tools)+1)
	for _, name := range cfg.Tools {
		def, ok := gw.Definition(name)
		if !ok {
			log.Printf("WARN: agent %s references unregistered tool %s, skipping", cfg.AgentID, name)
			continue
		}
		caps = append(caps, GatewayCapability(def, gw, inv))
	}

	if cfg.KBEnabled {
		if vs == nil {
			return nil, fmt.Errorf("agent %s has knowledge base enabled but no vector store is configured", cfg.AgentID)
		}
		caps = append(caps, KnowledgeBaseCapability(vs, inv))
	}

	return caps, nil
}
