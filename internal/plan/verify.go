package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RequirementKind classifies a requirement extracted from a spec document.
type RequirementKind string

const (
	KindSection RequirementKind = "section"
	KindTask    RequirementKind = "task"
	KindRfc2119 RequirementKind = "rfc2119"
)

// Requirement is a single requirement extracted from a specification file.
// Requirements are derived on demand for coverage reporting, never persisted.
type Requirement struct {
	SpecName   string          `json:"spec_name"`
	Kind       RequirementKind `json:"kind"`
	Text       string          `json:"text"`
	LineNumber int             `json:"line_number"`
}

// CoverageEntry summarizes how many tasks reference a spec relative to the
// requirements it contains.
type CoverageEntry struct {
	SpecName         string  `json:"spec_name"`
	RequirementCount int     `json:"requirement_count"`
	TaskCount        int     `json:"task_count"`
	CoveragePercent  float64 `json:"coverage_percent"`
}

// VerifyReport is the output of a full plan verification.
type VerifyReport struct {
	TotalTasks      int             `json:"total_tasks"`
	PendingTasks    int             `json:"pending_tasks"`
	CompletedTasks  int             `json:"completed_tasks"`
	InProgressTasks int             `json:"in_progress_tasks"`
	TasksWithRefs   int             `json:"tasks_with_refs"`
	OrphanTasks     int             `json:"orphan_tasks"`
	Coverage        []CoverageEntry `json:"coverage"`
	Tasks           []Task          `json:"tasks"`
}

var (
	rfc2119Re = regexp.MustCompile(
		`\b(MUST|MUST NOT|REQUIRED|SHALL|SHALL NOT|SHOULD|SHOULD NOT|RECOMMENDED|MAY|OPTIONAL)\b`)
	specSectionRe  = regexp.MustCompile(`^###\s+(.+)$`)
	specCheckboxRe = regexp.MustCompile(`^(\s*)-\s*\[([ xX])\]\s+(.+)$`)
)

// ExtractRequirements scans spec markdown files for section headers, checkbox
// tasks, and RFC 2119 keyword lines. A missing spec directory yields no
// requirements, not an error.
func ExtractRequirements(specDir string) ([]Requirement, error) {
	var requirements []Requirement

	if _, err := os.Stat(specDir); os.IsNotExist(err) {
		return requirements, nil
	}

	entries, err := os.ReadDir(specDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		specName := strings.TrimSuffix(entry.Name(), ".md")
		content, err := os.ReadFile(filepath.Join(specDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read spec %s: %w", entry.Name(), err)
		}

		for i, line := range strings.Split(string(content), "\n") {
			if caps := specSectionRe.FindStringSubmatch(line); caps != nil {
				requirements = append(requirements, Requirement{
					SpecName:   specName,
					Kind:       KindSection,
					Text:       caps[1],
					LineNumber: i + 1,
				})
			}
			if caps := specCheckboxRe.FindStringSubmatch(line); caps != nil {
				requirements = append(requirements, Requirement{
					SpecName:   specName,
					Kind:       KindTask,
					Text:       caps[3],
					LineNumber: i + 1,
				})
			}
			if rfc2119Re.MatchString(line) {
				requirements = append(requirements, Requirement{
					SpecName:   specName,
					Kind:       KindRfc2119,
					Text:       line,
					LineNumber: i + 1,
				})
			}
		}
	}

	return requirements, nil
}

// NormalizeSpecRef turns a spec reference path into a bare spec name:
// "specs/auth.md" -> "auth", "specs/api/v2.md" -> "api-v2".
func NormalizeSpecRef(specRef string) string {
	name := strings.TrimPrefix(specRef, "specs/")
	name = strings.TrimSuffix(name, ".md")
	return strings.ReplaceAll(name, "/", "-")
}

// AnalyzeCoverage counts, per spec, how many tasks reference it against how
// many requirements it declares. Entries are sorted by spec name.
func AnalyzeCoverage(specDir string, tasks []Task) ([]CoverageEntry, error) {
	requirements, err := ExtractRequirements(specDir)
	if err != nil {
		return nil, err
	}

	specReqs := make(map[string]int)
	for _, req := range requirements {
		specReqs[req.SpecName]++
	}

	specTasks := make(map[string]int)
	for _, task := range tasks {
		for _, ref := range task.SpecRefs {
			specTasks[NormalizeSpecRef(ref)]++
		}
	}

	var coverage []CoverageEntry
	for specName, reqCount := range specReqs {
		taskCount := specTasks[specName]
		percent := 0.0
		if reqCount > 0 {
			percent = float64(taskCount) / float64(reqCount) * 100.0
			if percent > 100.0 {
				percent = 100.0
			}
		}
		coverage = append(coverage, CoverageEntry{
			SpecName:         specName,
			RequirementCount: reqCount,
			TaskCount:        taskCount,
			CoveragePercent:  percent,
		})
	}

	sort.Slice(coverage, func(i, j int) bool {
		return coverage[i].SpecName < coverage[j].SpecName
	})
	return coverage, nil
}

// GenerateReport parses the plan and produces a full verification report
// against the spec directory.
func GenerateReport(planPath, specDir string) (*VerifyReport, error) {
	tasks, err := ParsePlan(planPath)
	if err != nil {
		return nil, err
	}

	total, pending, completed, inProgress := CountTasks(tasks)

	tasksWithRefs := 0
	for _, t := range tasks {
		if len(t.SpecRefs) > 0 {
			tasksWithRefs++
		}
	}

	coverage, err := AnalyzeCoverage(specDir, tasks)
	if err != nil {
		return nil, err
	}

	return &VerifyReport{
		TotalTasks:      total,
		PendingTasks:    pending,
		CompletedTasks:  completed,
		InProgressTasks: inProgress,
		TasksWithRefs:   tasksWithRefs,
		OrphanTasks:     total - tasksWithRefs,
		Coverage:        coverage,
		Tasks:           tasks,
	}, nil
}
