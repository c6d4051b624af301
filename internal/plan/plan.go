// Package plan parses flat markdown implementation plans into task records
// and answers the loop's "is there work left" question. It understands the
// legacy single-file format (IMPLEMENTATION_PLAN.md) and defers to the
// hierarchical impl/ layout when one exists.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// TaskStatus is the parse-derived state of a checkbox line.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusCompleted  TaskStatus = "completed"
	StatusInProgress TaskStatus = "in_progress"
)

// Task is a single checkbox item from an implementation plan. Tasks are
// immutable once parsed; re-parsing the document is the only mutation path.
type Task struct {
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	SpecRefs     []string   `json:"spec_refs"`
	LineNumber   int        `json:"line_number"`
	Priority     *int       `json:"priority,omitempty"`
	Dependencies []string   `json:"dependencies"`
	Complexity   string     `json:"complexity,omitempty"`
}

var (
	priorityRe   = regexp.MustCompile(`^##\s+Priority\s+(\d+)`)
	checkboxRe   = regexp.MustCompile(`^(\s*)-\s*\[([ xX~])\]\s+(.+)$`)
	refsRe       = regexp.MustCompile(`\(refs?:\s*([^)]+)\)`)
	depsRe       = regexp.MustCompile(`Dependencies:\s*(.+)`)
	complexityRe = regexp.MustCompile(`Complexity:\s*(low|medium|high)`)

	pendingCheckboxRe = regexp.MustCompile(`^\s*-\s*\[\s\]`)
	sectionHeaderRe   = regexp.MustCompile(`^###\s+\d+\.\d+\s+.+$`)
)

// ParsePlan reads a plan file and extracts its tasks. Malformed lines simply
// don't produce tasks; only an unreadable file is an error.
func ParsePlan(planPath string) ([]Task, error) {
	content, err := os.ReadFile(planPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", planPath, err)
	}

	var tasks []Task
	var currentPriority *int

	for i, line := range strings.Split(string(content), "\n") {
		if caps := priorityRe.FindStringSubmatch(line); caps != nil {
			if n, err := strconv.Atoi(caps[1]); err == nil {
				p := n
				currentPriority = &p
			}
			continue
		}

		if caps := checkboxRe.FindStringSubmatch(line); caps != nil {
			description := caps[3]

			var status TaskStatus
			switch caps[2] {
			case "x", "X":
				status = StatusCompleted
			case "~":
				status = StatusInProgress
			default:
				status = StatusPending
			}

			var specRefs []string
			if refCaps := refsRe.FindStringSubmatch(description); refCaps != nil {
				for _, ref := range strings.Split(refCaps[1], ",") {
					if ref = strings.TrimSpace(ref); ref != "" {
						specRefs = append(specRefs, ref)
					}
				}
			}

			tasks = append(tasks, Task{
				Description: strings.TrimSpace(refsRe.ReplaceAllString(description, "")),
				Status:      status,
				SpecRefs:    specRefs,
				LineNumber:  i + 1,
				Priority:    currentPriority,
			})
			continue
		}

		// Annotation lines mutate the most recently opened task.
		if len(tasks) == 0 {
			continue
		}
		last := &tasks[len(tasks)-1]

		if caps := depsRe.FindStringSubmatch(line); caps != nil {
			deps := strings.TrimSpace(caps[1])
			if !strings.EqualFold(deps, "none") {
				for _, d := range strings.Split(deps, ",") {
					if d = strings.TrimSpace(d); d != "" {
						last.Dependencies = append(last.Dependencies, d)
					}
				}
			}
		}
		if caps := complexityRe.FindStringSubmatch(line); caps != nil {
			last.Complexity = caps[1]
		}
	}

	return tasks, nil
}

// CountTasks tallies tasks by status.
func CountTasks(tasks []Task) (total, pending, completed, inProgress int) {
	total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			pending++
		case StatusCompleted:
			completed++
		case StatusInProgress:
			inProgress++
		}
	}
	return total, pending, completed, inProgress
}

// HasPendingTasks reports whether any work remains. When impl/README.md
// exists next to the plan, hierarchical detection is used; otherwise the
// legacy single-file formats apply.
func HasPendingTasks(planPath string) bool {
	return HasPendingTasksIn(planPath, filepath.Join(filepath.Dir(planPath), "impl"))
}

// HasPendingTasksIn is HasPendingTasks with an explicit impl directory.
func HasPendingTasksIn(planPath, implDir string) bool {
	if _, err := os.Stat(filepath.Join(implDir, "README.md")); err == nil {
		return hasPendingTasksHierarchical(implDir)
	}
	return hasPendingTasksLegacy(planPath)
}

// hasPendingTasksHierarchical scans non-archived feature files and the index
// document for pending checkboxes.
func hasPendingTasksHierarchical(implDir string) bool {
	entries, err := os.ReadDir(implDir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == "README.md" || name == ".archive" || !strings.HasSuffix(name, ".md") {
			continue
		}
		if entry.IsDir() {
			continue
		}
		if fileHasPendingCheckbox(filepath.Join(implDir, name)) {
			return true
		}
	}

	// Cross-cutting tasks live in the index document itself.
	return fileHasPendingCheckbox(filepath.Join(implDir, "README.md"))
}

func fileHasPendingCheckbox(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(content), "\n") {
		if pendingCheckboxRe.MatchString(line) {
			return true
		}
	}
	return false
}

// hasPendingTasksLegacy checks a single plan file. Two formats: standard
// pending checkboxes, and numbered section headers lacking a completion mark.
func hasPendingTasksLegacy(planPath string) bool {
	content, err := os.ReadFile(planPath)
	if err != nil {
		return false
	}

	for _, line := range strings.Split(string(content), "\n") {
		if pendingCheckboxRe.MatchString(line) {
			return true
		}
	}

	for _, line := range strings.Split(string(content), "\n") {
		if sectionHeaderRe.MatchString(line) &&
			!strings.Contains(line, "✅") && !strings.Contains(line, "✓") {
			return true
		}
	}

	return false
}
