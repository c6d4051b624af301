package implplan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeMigration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `## Priority 1: Core

- [ ] Task A (refs: specs/auth.md)
- [x] Task B (refs: specs/auth.md)
- [ ] Task C (refs: specs/api.md)
- [ ] Orphan task without ref
`)

	analysis, err := AnalyzeMigration(planPath, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, analysis.TotalTasks)
	assert.Len(t, analysis.TasksBySpec, 2)
	assert.Len(t, analysis.OrphanTasks, 1)
	assert.True(t, analysis.ShouldMigrate)
	assert.Len(t, analysis.TasksBySpec["auth"], 2)
	assert.Len(t, analysis.TasksBySpec["api"], 1)
}

func TestAnalyzeMigrationBelowThreshold(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `- [ ] Task A (refs: specs/auth.md)
- [ ] Task B (refs: specs/auth.md)
`)

	analysis, err := AnalyzeMigration(planPath, 8)
	require.NoError(t, err)
	assert.False(t, analysis.ShouldMigrate)
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `## Priority 1: Core

- [ ] Task A (refs: specs/auth.md)
- [x] Task B (refs: specs/auth.md)
- [ ] Task C (refs: specs/api.md)
`)
	implDir := filepath.Join(dir, "impl")

	result, err := Migrate(planPath, implDir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FeatureCount)
	assert.Equal(t, 3, result.TaskCount)
	assert.Equal(t, 0, result.OrphanCount)

	assert.FileExists(t, filepath.Join(implDir, "README.md"))
	assert.FileExists(t, filepath.Join(implDir, "auth.md"))
	assert.FileExists(t, filepath.Join(implDir, "api.md"))
	assert.DirExists(t, filepath.Join(implDir, ArchiveDir))

	assert.FileExists(t, result.BackupPath)
	assert.NoFileExists(t, planPath)
}

func TestMigrateRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `## Priority 1: Core

- [ ] Task A (refs: specs/auth.md)
- [x] Task B (refs: specs/auth.md)
- [ ] Task C (refs: specs/api.md)
- [ ] Orphan task
`)
	implDir := filepath.Join(dir, "impl")

	_, err := Migrate(planPath, implDir)
	require.NoError(t, err)

	index, err := Load(implDir)
	require.NoError(t, err)

	assert.Equal(t, 4, index.TotalTasks())
	assert.Equal(t, 1, index.CompletedTasks())
	assert.Equal(t, 3, index.PendingTasks())
	assert.Equal(t, 1, index.CrossCutting.Total)
}

func TestMigrateCleansUpOnWriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `- [ ] Task A (refs: specs/api.md)
- [ ] Task B (refs: specs/auth.md)
`)
	implDir := filepath.Join(dir, "impl")

	// A directory squatting on the second feature path makes its write fail
	// after the first feature file has already been created.
	require.NoError(t, os.MkdirAll(filepath.Join(implDir, "auth.md"), 0o755))

	_, err := Migrate(planPath, implDir)
	require.Error(t, err)

	// The legacy plan is untouched and the partial output has been removed.
	assert.FileExists(t, planPath)
	assert.NoFileExists(t, planPath+".backup")
	assert.NoFileExists(t, filepath.Join(implDir, "api.md"))
	assert.NoFileExists(t, filepath.Join(implDir, "README.md"))
}

func TestMigrateFeatureFileContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `## Priority 2

- [ ] Wire the gateway (refs: specs/api-gateway.md)
  Complexity: high
`)
	implDir := filepath.Join(dir, "impl")

	_, err := Migrate(planPath, implDir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(implDir, "api-gateway.md"))
	require.NoError(t, err)

	text := string(content)
	assert.True(t, strings.HasPrefix(text, "# Api Gateway Implementation"))
	assert.Contains(t, text, "**Spec:** [specs/api-gateway.md](../specs/api-gateway.md)")
	assert.Contains(t, text, "### Priority 2")
	assert.Contains(t, text, "- [ ] Wire the gateway\n")
	assert.Contains(t, text, "**Complexity:** high")
}

func TestMigrateReadmeFocus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := writeFile(t, dir, "IMPLEMENTATION_PLAN.md", `- [x] Done (refs: specs/api.md)
- [ ] Open (refs: specs/auth.md)
`)
	implDir := filepath.Join(dir, "impl")

	_, err := Migrate(planPath, implDir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(implDir, "README.md"))
	require.NoError(t, err)

	assert.Contains(t, string(content), "**Active:** [auth.md](./auth.md)")
}
