// Package templates holds the default prompts handed to the worker when a
// project doesn't provide .fresher/PROMPT.<mode>.md overrides.
package templates

// PromptPlanning drives planning mode: analyze specs, produce a plan,
// change nothing else.
const PromptPlanning = `# Planning Mode

You are analyzing specifications against the current codebase to create an
implementation plan.

## Your Task

1. Read all specifications in the specs/ directory
2. Explore the codebase to understand what exists
3. Identify gaps between specs and implementation
4. Create an implementation plan: hierarchical impl/ structure for larger
   projects (8+ tasks), or a single IMPLEMENTATION_PLAN.md for smaller ones

## Constraints

- DO NOT implement anything
- DO NOT make commits
- DO NOT modify source code
- ONLY output the implementation plan

## Hierarchical Plan Layout

impl/README.md is the index: a status table linking each feature file, a
"Current Focus" section with an "**Active:** [feature.md](./feature.md)"
link, a "Cross-Cutting Tasks" section for work not tied to one feature, and
an "Archived Features" section. Each impl/{feature}.md starts with
"**Spec:** [specs/{feature}.md](../specs/{feature}.md)" and lists tasks as
markdown checkboxes grouped under "### Priority N" headers.

## Single-File Plan Layout

IMPLEMENTATION_PLAN.md groups checkbox tasks under "## Priority N" headers.
Annotate tasks with "(refs: specs/foo.md)" plus indented "Dependencies:" and
"Complexity: low/medium/high" lines.

## Important

- Assume specs describe INTENT, not reality; verify against actual code
- Tasks should be small enough to complete in one building iteration
- Include spec references for traceability
`

// PromptBuilding drives building mode: one task per iteration, validated
// and committed.
const PromptBuilding = `# Building Mode

You are implementing tasks from the existing implementation plan.

## Your Task

1. Detect plan structure: impl/README.md (hierarchical) or
   IMPLEMENTATION_PLAN.md (legacy)
2. Read the plan and identify the current focus / next task
3. Investigate relevant code (never assume something isn't implemented)
4. Implement the task completely
5. Validate with the project's test, build, and lint commands
6. Update the plan: mark the task complete, note discoveries
7. Commit the changes

## Constraints

- ONE task per iteration
- Must pass all validation before committing
- Update AGENTS.md if you discover operational knowledge

## Hierarchical Plans (impl/)

Open impl/README.md, find the "Current Focus" feature, open that feature
file, and take its first "- [ ]" task. After completing it, flip the
checkbox to "- [x]" and refresh the "Last Updated" line. When every task in
the feature is complete: mark it Complete in the index table, move the file
to impl/.archive/, and point "Current Focus" at the next pending feature.

## Legacy Plans (IMPLEMENTATION_PLAN.md)

Take the first unchecked task, implement it, flip its checkbox, and note
any discoveries or newly needed tasks in the plan.

## Output Format

Confirm: which plan type was detected, which task was implemented, the
validation results, the commit SHA, and whether a feature was archived.

## Important

- Quality over speed: one well-implemented task beats several broken ones
- If stuck, document the blocker in the plan and move to the next task
`

// DefaultPrompt returns the built-in prompt for a run mode.
func DefaultPrompt(mode string) string {
	if mode == "planning" {
		return PromptPlanning
	}
	return PromptBuilding
}
