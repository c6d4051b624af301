// Package implplan models the hierarchical implementation plan: an impl/
// directory holding one markdown file per feature plus a README.md index.
// The index is a projection rebuilt from disk on every read; the markdown
// files are the source of truth.
package implplan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// IndexFile is the name of the index document inside the impl directory.
const IndexFile = "README.md"

// ArchiveDir is the sub-directory completed features are moved into.
const ArchiveDir = ".archive"

// FeatureState is the derived status of a feature file.
type FeatureState string

const (
	FeaturePending    FeatureState = "pending"
	FeatureInProgress FeatureState = "in_progress"
	FeatureComplete   FeatureState = "complete"
	FeatureArchived   FeatureState = "archived"
)

// String returns a human-readable description of the state.
func (s FeatureState) String() string {
	switch s {
	case FeaturePending:
		return "pending"
	case FeatureInProgress:
		return "in progress"
	case FeatureComplete:
		return "complete"
	case FeatureArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// FeatureStatus summarizes one feature file. All counts are derived from the
// file's checkboxes; PendingTasks includes in-progress items, so
// CompletedTasks + PendingTasks == TotalTasks always holds.
type FeatureStatus struct {
	Name           string       `json:"name"`
	File           string       `json:"file"`
	Status         FeatureState `json:"status"`
	TotalTasks     int          `json:"total_tasks"`
	CompletedTasks int          `json:"completed_tasks"`
	PendingTasks   int          `json:"pending_tasks"`
	SpecRef        string       `json:"spec_ref,omitempty"`
}

// CompletionPercent returns the feature's completion percentage. An empty
// feature counts as fully complete.
func (f *FeatureStatus) CompletionPercent() float64 {
	if f.TotalTasks == 0 {
		return 100.0
	}
	return float64(f.CompletedTasks) / float64(f.TotalTasks) * 100.0
}

// CrossCuttingTasks counts checkbox items in the index document that aren't
// attributable to any single feature.
type CrossCuttingTasks struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ImplIndex aggregates every feature's status plus the index document's
// current focus and cross-cutting tasks.
type ImplIndex struct {
	ImplDir      string            `json:"impl_dir"`
	Features     []FeatureStatus   `json:"features"`
	CurrentFocus string            `json:"current_focus,omitempty"`
	CrossCutting CrossCuttingTasks `json:"cross_cutting_tasks"`
}

var (
	checkboxPendingRe    = regexp.MustCompile(`^\s*-\s*\[\s\]`)
	checkboxCompleteRe   = regexp.MustCompile(`^\s*-\s*\[[xX]\]`)
	checkboxInProgressRe = regexp.MustCompile(`^\s*-\s*\[~\]`)
	specRefRe            = regexp.MustCompile(`\*\*Spec:\*\*\s*\[.*?\]\((.*?)\)`)
	activeFocusRe        = regexp.MustCompile(`\*\*Active:\*\*\s*\[(.*?)\]`)
	currentFocusRe       = regexp.MustCompile(`##\s*Current Focus[\s\S]*?\[(.*?)\.md\]`)
)

// Load rebuilds the index from the impl directory. It fails if the index
// document is missing; individual feature files that can't be read are
// skipped rather than failing the whole load.
func Load(implDir string) (*ImplIndex, error) {
	readmePath := filepath.Join(implDir, IndexFile)
	if _, err := os.Stat(readmePath); err != nil {
		return nil, fmt.Errorf("%s not found in %s", IndexFile, implDir)
	}

	var features []FeatureStatus

	entries, err := os.ReadDir(implDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read impl directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == IndexFile || name == ArchiveDir || !strings.HasSuffix(name, ".md") {
			continue
		}
		if entry.IsDir() {
			continue
		}

		status, err := ParseFeatureFile(filepath.Join(implDir, name))
		if err != nil {
			continue
		}
		features = append(features, *status)
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].Name < features[j].Name
	})

	readmeContent, err := os.ReadFile(readmePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IndexFile, err)
	}

	return &ImplIndex{
		ImplDir:      implDir,
		Features:     features,
		CurrentFocus: parseCurrentFocus(string(readmeContent)),
		CrossCutting: countCrossCuttingTasks(string(readmeContent)),
	}, nil
}

// TotalTasks returns the task count across all features plus cross-cutting.
func (idx *ImplIndex) TotalTasks() int {
	total := idx.CrossCutting.Total
	for _, f := range idx.Features {
		total += f.TotalTasks
	}
	return total
}

// CompletedTasks returns the completed count across all features plus
// cross-cutting.
func (idx *ImplIndex) CompletedTasks() int {
	completed := idx.CrossCutting.Completed
	for _, f := range idx.Features {
		completed += f.CompletedTasks
	}
	return completed
}

// PendingTasks returns the pending count across all features plus
// cross-cutting.
func (idx *ImplIndex) PendingTasks() int {
	pending := idx.CrossCutting.Pending
	for _, f := range idx.Features {
		pending += f.PendingTasks
	}
	return pending
}

// IsComplete reports whether no pending work remains anywhere.
func (idx *ImplIndex) IsComplete() bool {
	return idx.PendingTasks() == 0
}

// SelectNextFocus picks the feature the next iteration should target:
// the first in-progress feature in name order, else the feature with the
// fewest pending tasks (quick wins first). Ties keep the first encountered
// in sorted order, so the result is deterministic. Returns nil when no
// feature has pending work.
func (idx *ImplIndex) SelectNextFocus() *FeatureStatus {
	for i := range idx.Features {
		if idx.Features[i].Status == FeatureInProgress {
			return &idx.Features[i]
		}
	}

	var best *FeatureStatus
	for i := range idx.Features {
		f := &idx.Features[i]
		if f.PendingTasks == 0 {
			continue
		}
		if best == nil || f.PendingTasks < best.PendingTasks {
			best = f
		}
	}
	return best
}

// ParseFeatureFile derives a FeatureStatus from one feature document.
func ParseFeatureFile(path string) (*FeatureStatus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".md")

	var pending, completed, inProgress int
	var specRef string

	for _, line := range strings.Split(string(content), "\n") {
		switch {
		case checkboxPendingRe.MatchString(line):
			pending++
		case checkboxCompleteRe.MatchString(line):
			completed++
		case checkboxInProgressRe.MatchString(line):
			inProgress++
		}

		if specRef == "" {
			if caps := specRefRe.FindStringSubmatch(line); caps != nil {
				specRef = caps[1]
			}
		}
	}

	total := pending + completed + inProgress

	var status FeatureState
	switch {
	case total > 0 && completed == total:
		status = FeatureComplete
	case completed > 0 || inProgress > 0:
		status = FeatureInProgress
	default:
		status = FeaturePending
	}

	return &FeatureStatus{
		Name:           name,
		File:           path,
		Status:         status,
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   pending + inProgress,
		SpecRef:        specRef,
	}, nil
}

// parseCurrentFocus extracts the active feature reference from the index
// document, either an "**Active:**" link or a "Current Focus" section.
func parseCurrentFocus(content string) string {
	if caps := activeFocusRe.FindStringSubmatch(content); caps != nil {
		return caps[1]
	}
	if caps := currentFocusRe.FindStringSubmatch(content); caps != nil {
		return caps[1] + ".md"
	}
	return ""
}

// countCrossCuttingTasks counts checkboxes in the index document outside any
// table row. Lines containing a table-cell delimiter are skipped so the
// status-overview table never contributes counts.
func countCrossCuttingTasks(content string) CrossCuttingTasks {
	if !strings.Contains(content, "## Cross-Cutting") {
		return CrossCuttingTasks{}
	}

	var pending, completed int
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "|") {
			continue
		}
		switch {
		case checkboxPendingRe.MatchString(line):
			pending++
		case checkboxCompleteRe.MatchString(line):
			completed++
		}
	}

	return CrossCuttingTasks{
		Total:     pending + completed,
		Completed: completed,
		Pending:   pending,
	}
}

// Archive moves a feature document into the archive location. The move is a
// single rename: either it fully succeeds or the original file remains.
func Archive(implDir, featureName string) (string, error) {
	featurePath := filepath.Join(implDir, featureName+".md")
	archivePath := filepath.Join(implDir, ArchiveDir, featureName+".md")

	if _, err := os.Stat(featurePath); err != nil {
		return "", fmt.Errorf("feature file not found: %s", featurePath)
	}

	if err := os.MkdirAll(filepath.Join(implDir, ArchiveDir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", ArchiveDir, err)
	}

	if err := os.Rename(featurePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive feature file: %w", err)
	}

	return archivePath, nil
}

// HasHierarchicalPlan reports whether an index document exists.
func HasHierarchicalPlan(implDir string) bool {
	_, err := os.Stat(filepath.Join(implDir, IndexFile))
	return err == nil
}

// ListFeatureFiles returns all non-archived feature documents, sorted.
func ListFeatureFiles(implDir string) ([]string, error) {
	var features []string

	entries, err := os.ReadDir(implDir)
	if err != nil {
		if os.IsNotExist(err) {
			return features, nil
		}
		return nil, fmt.Errorf("failed to read impl directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == IndexFile || name == ArchiveDir || !strings.HasSuffix(name, ".md") || entry.IsDir() {
			continue
		}
		features = append(features, filepath.Join(implDir, name))
	}

	sort.Strings(features)
	return features, nil
}

// ListArchivedFiles returns all archived feature documents, sorted.
func ListArchivedFiles(implDir string) ([]string, error) {
	archiveDir := filepath.Join(implDir, ArchiveDir)

	var archived []string
	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return archived, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".md") {
			archived = append(archived, filepath.Join(archiveDir, entry.Name()))
		}
	}

	sort.Strings(archived)
	return archived, nil
}
