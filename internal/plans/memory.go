package plans

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jonathan/interview-coach/internal/types"
	"gopkg.in/yaml.v3"
)

// MemorySource is a PlaybookSource held in process, typically seeded from a
// YAML file.
type MemorySource struct {
	mu        sync.RWMutex
	playbooks map[string]types.Playbook
}

// NewMemorySource returns a source holding playbooks.
func NewMemorySource(playbooks ...types.Playbook) *MemorySource {
	m := &MemorySource{playbooks: make(map[string]types.Playbook)}
	for _, pb := range playbooks {
		m.Put(pb)
	}
	return m
}

// Put adds or replaces a playbook.
func (m *MemorySource) Put(pb types.Playbook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbooks[Key(pb.Role, pb.Skill, pb.Seniority)] = pb
}

// GetPlaybook implements PlaybookSource.
func (m *MemorySource) GetPlaybook(_ context.Context, role, skill, seniority string) (*types.Playbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pb, ok := m.playbooks[Key(role, skill, seniority)]
	if !ok {
		return nil, nil
	}
	return &pb, nil
}

// Len returns the number of playbooks held.
func (m *MemorySource) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.playbooks)
}

type playbookFile struct {
	Playbooks []types.Playbook `yaml:"playbooks"`
}

// LoadPlaybooks decodes and validates a YAML document with a top-level
// "playbooks" list.
func LoadPlaybooks(r io.Reader) ([]types.Playbook, error) {
	var file playbookFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse playbooks: %w", err)
	}

	for i := range file.Playbooks {
		if err := file.Playbooks[i].Validate(); err != nil {
			pb := file.Playbooks[i]
			return nil, fmt.Errorf("invalid playbook %d (%s - %s - %s): %w", i, pb.Role, pb.Skill, pb.Seniority, err)
		}
	}
	return file.Playbooks, nil
}

// LoadPlaybooksFile reads playbooks from path.
func LoadPlaybooksFile(path string) ([]types.Playbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playbooks file: %w", err)
	}
	defer f.Close()
	return LoadPlaybooks(f)
}
