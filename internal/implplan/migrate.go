package implplan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fresher-cli/fresher/internal/plan"
)

// MigrationAnalysis describes what a legacy-plan migration would produce.
type MigrationAnalysis struct {
	LegacyPath    string                 `json:"legacy_path"`
	TotalTasks    int                    `json:"total_tasks"`
	TasksBySpec   map[string][]plan.Task `json:"tasks_by_spec"`
	OrphanTasks   []plan.Task            `json:"orphan_tasks"`
	ShouldMigrate bool                   `json:"should_migrate"`
	Threshold     int                    `json:"threshold"`
}

// MigrationResult summarizes a completed migration.
type MigrationResult struct {
	ImplDir      string   `json:"impl_dir"`
	BackupPath   string   `json:"backup_path"`
	CreatedFiles []string `json:"created_files"`
	FeatureCount int      `json:"feature_count"`
	TaskCount    int      `json:"task_count"`
	OrphanCount  int      `json:"orphan_count"`
}

// AnalyzeMigration parses the legacy plan and groups its tasks by the
// normalized name of each task's first spec reference. Tasks without a
// reference become cross-cutting orphans. ShouldMigrate is true when the
// task count meets the threshold.
func AnalyzeMigration(legacyPath string, threshold int) (*MigrationAnalysis, error) {
	tasks, err := plan.ParsePlan(legacyPath)
	if err != nil {
		return nil, err
	}

	tasksBySpec := make(map[string][]plan.Task)
	var orphans []plan.Task

	for _, task := range tasks {
		if len(task.SpecRefs) == 0 {
			orphans = append(orphans, task)
			continue
		}
		specName := plan.NormalizeSpecRef(task.SpecRefs[0])
		tasksBySpec[specName] = append(tasksBySpec[specName], task)
	}

	return &MigrationAnalysis{
		LegacyPath:    legacyPath,
		TotalTasks:    len(tasks),
		TasksBySpec:   tasksBySpec,
		OrphanTasks:   orphans,
		ShouldMigrate: len(tasks) >= threshold,
		Threshold:     threshold,
	}, nil
}

// Migrate converts a legacy single-file plan into the hierarchical layout:
// one feature file per referenced spec plus a README index, then renames the
// legacy file to "<name>.md.backup". The rename happens last so an
// interrupted migration never loses the original; any files already written
// are removed on failure.
func Migrate(legacyPath, implDir string) (*MigrationResult, error) {
	analysis, err := AnalyzeMigration(legacyPath, 0)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(implDir, ArchiveDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create impl directory: %w", err)
	}

	var created []string
	cleanup := func() {
		for _, f := range created {
			os.Remove(f)
		}
	}

	featureNames := sortedSpecNames(analysis.TasksBySpec)
	for _, specName := range featureNames {
		featurePath := filepath.Join(implDir, specName+".md")
		content := generateFeatureFile(specName, analysis.TasksBySpec[specName])
		if err := os.WriteFile(featurePath, []byte(content), 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to write feature file %s: %w", featurePath, err)
		}
		created = append(created, featurePath)
	}

	readmePath := filepath.Join(implDir, IndexFile)
	readme := generateReadme(analysis.TasksBySpec, analysis.OrphanTasks)
	if err := os.WriteFile(readmePath, []byte(readme), 0o644); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write %s: %w", IndexFile, err)
	}
	created = append(created, readmePath)

	backupPath := legacyPath + ".backup"
	if err := os.Rename(legacyPath, backupPath); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to back up legacy plan: %w", err)
	}

	return &MigrationResult{
		ImplDir:      implDir,
		BackupPath:   backupPath,
		CreatedFiles: created,
		FeatureCount: len(analysis.TasksBySpec),
		TaskCount:    analysis.TotalTasks,
		OrphanCount:  len(analysis.OrphanTasks),
	}, nil
}

func sortedSpecNames(tasksBySpec map[string][]plan.Task) []string {
	names := make([]string, 0, len(tasksBySpec))
	for name := range tasksBySpec {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkboxFor(status plan.TaskStatus) string {
	switch status {
	case plan.StatusCompleted:
		return "[x]"
	case plan.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

// titleCase turns "user-auth" into "User Auth".
func titleCase(specName string) string {
	parts := strings.Split(specName, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func generateFeatureFile(specName string, tasks []plan.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Implementation\n\n", titleCase(specName))
	fmt.Fprintf(&b, "**Spec:** [specs/%s.md](../specs/%s.md)\n", specName, specName)
	b.WriteString("**Status:** Pending\n")
	fmt.Fprintf(&b, "**Last Updated:** %s\n\n", time.Now().UTC().Format("2006-01-02"))
	b.WriteString("---\n\n## Dependencies\n\n- None blocking\n\n---\n\n## Tasks\n\n")

	byPriority := make(map[int][]plan.Task)
	var priorities []int
	for _, task := range tasks {
		// Unprioritized tasks sort after every numbered priority.
		p := 99
		if task.Priority != nil {
			p = *task.Priority
		}
		if _, seen := byPriority[p]; !seen {
			priorities = append(priorities, p)
		}
		byPriority[p] = append(byPriority[p], task)
	}
	sort.Ints(priorities)

	for _, p := range priorities {
		label := fmt.Sprintf("Priority %d", p)
		if p == 99 {
			label = "Uncategorized"
		}
		fmt.Fprintf(&b, "### %s\n\n", label)

		for i, task := range byPriority[p] {
			title := strings.TrimSpace(strings.SplitN(task.Description, "(", 2)[0])
			fmt.Fprintf(&b, "#### P%d.%d: %s\n\n", p, i+1, title)
			fmt.Fprintf(&b, "- %s %s\n", checkboxFor(task.Status), task.Description)
			if task.Complexity != "" {
				fmt.Fprintf(&b, "  - **Complexity:** %s\n", task.Complexity)
			}
			if len(task.Dependencies) > 0 {
				fmt.Fprintf(&b, "  - **Dependencies:** %s\n", strings.Join(task.Dependencies, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func generateReadme(tasksBySpec map[string][]plan.Task, orphans []plan.Task) string {
	var b strings.Builder

	b.WriteString("# Implementation Plan\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", time.Now().UTC().Format("2006-01-02"))
	b.WriteString("**Based on:** specs/*.md\n")
	b.WriteString("**Project:** (migrated from IMPLEMENTATION_PLAN.md)\n\n")
	b.WriteString("---\n\n## Status Overview\n\n")
	b.WriteString("| Feature | Status | Progress | Spec |\n")
	b.WriteString("|---------|--------|----------|------|\n")

	features := sortedSpecNames(tasksBySpec)
	for _, specName := range features {
		tasks := tasksBySpec[specName]
		completed := 0
		for _, t := range tasks {
			if t.Status == plan.StatusCompleted {
				completed++
			}
		}
		status := "Pending"
		switch {
		case completed == len(tasks) && len(tasks) > 0:
			status = "Complete"
		case completed > 0:
			status = "In Progress"
		}
		fmt.Fprintf(&b, "| [%s](./%s.md) | %s | %d/%d | [spec](../specs/%s.md) |\n",
			specName, specName, status, completed, len(tasks), specName)
	}

	b.WriteString("\n---\n\n## Current Focus\n\n")

	focus := ""
	for _, specName := range features {
		for _, t := range tasksBySpec[specName] {
			if t.Status == plan.StatusPending {
				focus = specName
				break
			}
		}
		if focus != "" {
			break
		}
	}
	if focus != "" {
		fmt.Fprintf(&b, "**Active:** [%s.md](./%s.md)\n\n", focus, focus)
	} else {
		b.WriteString("**Active:** None (all features complete or empty)\n\n")
	}

	if len(orphans) > 0 {
		b.WriteString("---\n\n## Cross-Cutting Tasks\n\n")
		b.WriteString("Tasks not tied to a specific feature:\n\n")
		for _, task := range orphans {
			fmt.Fprintf(&b, "- %s %s\n", checkboxFor(task.Status), task.Description)
		}
	}

	b.WriteString("\n---\n\n## Archived Features\n\n")
	b.WriteString("Completed features moved to `.archive/`:\n\n(none yet)\n")

	return b.String()
}
