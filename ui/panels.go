package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"memodesk/mcp"
	"memodesk/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mattn/go-runewidth"
)

const maxResultLines = 20

// RenderToolCall renders the panel shown when the model requests a tool.
func RenderToolCall(call model.ToolCall, width int) string {
	args := "{}"
	if len(call.Arguments) > 0 {
		if data, err := json.MarshalIndent(call.Arguments, "", "  "); err == nil {
			args = string(data)
		}
	}
	title := HighlightStyle.Render("→ " + call.Name)
	body := truncateBlock(args, panelWidth(width), maxResultLines)
	return ToolCallStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

// RenderToolResult renders a tool's textual result. Query results with
// columns and rows become a table; everything else is shown truncated.
func RenderToolResult(name, content string, isError bool, width int) string {
	style := ToolResultStyle
	label := "← " + name
	if isError {
		style = ToolErrorStyle
		label += " (error)"
	}

	body := renderQueryTable(content)
	if body == "" {
		body = truncateBlock(content, panelWidth(width), maxResultLines)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, DimStyle.Render(label), body))
}

// RenderTools lists tools with their parameters.
func RenderTools(tools []mcptypes.Tool, width int) string {
	if len(tools) == 0 {
		return DimStyle.Render("No tools available.")
	}
	rows := make([][]string, 0, len(tools))
	for _, tool := range tools {
		params := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			params = append(params, name)
		}
		sort.Strings(params)
		rows = append(rows, []string{
			tool.Name,
			strings.Join(params, ", "),
			runewidth.Truncate(tool.Description, descriptionWidth(width), "..."),
		})
	}
	return renderTable([]string{"Tool", "Parameters", "Description"}, rows)
}

// RenderResources lists resources and resource templates.
func RenderResources(resources []mcp.ResourceDescriptor, width int) string {
	if len(resources) == 0 {
		return DimStyle.Render("No resources available.")
	}
	rows := make([][]string, 0, len(resources))
	for _, r := range resources {
		kind := "static"
		if r.Template {
			kind = "template"
		}
		rows = append(rows, []string{
			r.URI,
			kind,
			runewidth.Truncate(r.Description, descriptionWidth(width), "..."),
		})
	}
	return renderTable([]string{"URI", "Kind", "Description"}, rows)
}

// RenderHistory prints a compact view of the conversation so far.
func RenderHistory(messages []model.Message, width int) string {
	if len(messages) == 0 {
		return DimStyle.Render("History is empty.")
	}
	limit := panelWidth(width)
	var b strings.Builder
	for i, msg := range messages {
		text := strings.ReplaceAll(msg.Content, "\n", " ")
		switch {
		case msg.HasToolCalls():
			names := make([]string, len(msg.ToolCalls))
			for j, call := range msg.ToolCalls {
				names[j] = call.Name
			}
			text = "requests " + strings.Join(names, ", ")
		case msg.Role == model.RoleTool:
			text = msg.ToolName + ": " + text
		}
		role := fmt.Sprintf("%2d %-9s", i, msg.Role)
		b.WriteString(DimStyle.Render(role))
		b.WriteString(" ")
		b.WriteString(runewidth.Truncate(text, limit-runewidth.StringWidth(role), "..."))
		if i < len(messages)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderQueryTable returns "" unless content is a query result object.
func renderQueryTable(content string) string {
	var result struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil || len(result.Columns) == 0 {
		return ""
	}

	rows := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatCell(v)
		}
		rows[i] = cells
	}
	out := renderTable(result.Columns, rows)
	return out + "\n" + DimStyle.Render(fmt.Sprintf("%d row(s)", len(rows)))
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return runewidth.Truncate(v, 40, "...")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.String()
}

// truncateBlock limits text to maxLines lines of at most width cells each.
func truncateBlock(text string, width, maxLines int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	extra := 0
	if len(lines) > maxLines {
		extra = len(lines) - maxLines
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, width, "...")
	}
	if extra > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("... %d more line(s)", extra)))
	}
	return strings.Join(lines, "\n")
}

// panelWidth is the usable text width inside a bordered, padded panel.
func panelWidth(width int) int {
	if width < 24 {
		return 20
	}
	return width - 4
}

func descriptionWidth(width int) int {
	if w := width / 2; w > 20 {
		return w
	}
	return 20
}
