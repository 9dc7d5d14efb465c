package agent

import (
	"fmt"
	"strings"
	"time"
)

// Bounds on the live state summary appended to the system prompt, keeping
// it stable in size however large the workspace grows.
const (
	maxPromptFiles = 10
	maxPromptTodos = 5
)

// basePrompt is the fixed policy block telling the model when to plan with
// write_todos and when to delegate with task.
const basePrompt = "You have access to a number of standard tools\n" +
	"\n" +
	"## `write_todos`\n" +
	"\n" +
	"You have access to the `write_todos` tools to help you manage and plan tasks. Use these tools VERY frequently to ensure that you are tracking your tasks and giving the user visibility into your progress.\n" +
	"These tools are also EXTREMELY helpful for planning tasks, and for breaking down larger complex tasks into smaller steps. If you do not use this tool when planning, you may forget to do important tasks - and that is unacceptable.\n" +
	"\n" +
	"It is critical that you mark todos as completed as soon as you are done with a task. Do not batch up multiple tasks before marking them as completed.\n" +
	"\n" +
	"## `task`\n" +
	"\n" +
	"- When doing web search, prefer to use the `task` tool in order to reduce context usage."

func datePrefix(now time.Time) string {
	return fmt.Sprintf(
		"You must treat the current local date/time as: %s. Use the most recent, reliable information available.\n\n",
		now.Format("2006-01-02 15:04 MST"),
	)
}

// systemPrompt assembles the instruction preamble for one model call. It is
// rebuilt on every call, never cached, so the model always sees a fresh,
// size-bounded view of the shared state.
func (a *Agent) systemPrompt(now time.Time) string {
	var b strings.Builder
	b.WriteString(datePrefix(now))
	b.WriteString(a.instructions)
	if a.staticPrompt {
		return b.String()
	}
	b.WriteString(basePrompt)

	files := a.state.Files().List()
	if len(files) > 0 {
		b.WriteString("\n\nCurrently available files in the workspace:\n")
		for i, path := range files {
			if i == maxPromptFiles {
				break
			}
			fmt.Fprintf(&b, "- %s\n", path)
		}
		if len(files) > maxPromptFiles {
			fmt.Fprintf(&b, "... and %d more files\n", len(files)-maxPromptFiles)
		}
	}

	todos := a.state.Todos().Get()
	if len(todos) > 0 {
		b.WriteString("\n\nCurrent todo list status:\n")
		for i, td := range todos {
			if i == maxPromptTodos {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s\n", td.Status, td.Content)
		}
		if len(todos) > maxPromptTodos {
			fmt.Fprintf(&b, "... and %d more todos\n", len(todos)-maxPromptTodos)
		}
	}
	return b.String()
}
