package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockout-service/internal/models"
)

// Memory is an in-memory Registry, used by tests and local runs without a
// tracking database. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	versions map[string][]*models.ModelVersion
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{versions: make(map[string][]*models.ModelVersion)}
}

// GetLatestVersions implements Registry.
func (m *Memory) GetLatestVersions(ctx context.Context, name string, stages []string) ([]models.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.ModelVersion
	for _, stage := range stages {
		var latest *models.ModelVersion
		for _, v := range m.versions[name] {
			if v.Stage != stage {
				continue
			}
			if latest == nil || v.Version > latest.Version {
				latest = v
			}
		}
		if latest != nil {
			out = append(out, *latest)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// Register implements Registry.
func (m *Memory) Register(ctx context.Context, name, artifactURI string) (models.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := 1
	for _, v := range m.versions[name] {
		if v.Version >= next {
			next = v.Version + 1
		}
	}

	now := time.Now().UTC()
	mv := &models.ModelVersion{
		Name:        name,
		Version:     next,
		Stage:       models.StageStaging,
		ArtifactURI: artifactURI,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.versions[name] = append(m.versions[name], mv)
	return *mv, nil
}

// Transition implements Registry.
func (m *Memory) Transition(ctx context.Context, name string, version int, newStage string, archiveExisting bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *models.ModelVersion
	for _, v := range m.versions[name] {
		if v.Version == version {
			target = v
			break
		}
	}
	if target == nil {
		return fmt.Errorf("model %s version %d not found", name, version)
	}

	now := time.Now().UTC()
	if archiveExisting && newStage == models.StageProduction {
		for _, v := range m.versions[name] {
			if v.Stage == models.StageProduction && v.Version != version {
				v.Stage = models.StageArchived
				v.UpdatedAt = now
			}
		}
	}

	if target.Stage != newStage {
		target.Stage = newStage
		target.UpdatedAt = now
	}
	return nil
}

// MemoryArtifacts is an in-memory ArtifactStore.
type MemoryArtifacts struct {
	mu       sync.Mutex
	payloads map[string][]byte
}

// NewMemoryArtifacts creates an empty in-memory artifact store.
func NewMemoryArtifacts() *MemoryArtifacts {
	return &MemoryArtifacts{payloads: make(map[string][]byte)}
}

// SaveArtifact implements ArtifactStore.
func (m *MemoryArtifacts) SaveArtifact(ctx context.Context, runID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.payloads[runID] = buf
	return nil
}

// LoadArtifact implements ArtifactStore.
func (m *MemoryArtifacts) LoadArtifact(ctx context.Context, runID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.payloads[runID]
	if !ok {
		return nil, fmt.Errorf("artifact not found for run %s", runID)
	}
	return payload, nil
}
