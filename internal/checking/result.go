package checking

import (
	"math"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/models"
)

// parseResult reads the data object of a finished check.
func parseResult(data map[string]any) models.Result {
	res := models.Result{
		Score:        score(data),
		Status:       api.String(data, "quality", "status"),
		ScorecardURL: api.String(data, "reports", "scorecard", "link"),
	}

	for _, raw := range api.Slice(data, "goals") {
		g, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		count, _ := api.Int(g, "issues")
		res.Goals = append(res.Goals, models.Goal{
			ID:          api.String(g, "id"),
			DisplayName: api.String(g, "displayName"),
			Color:       api.String(g, "color"),
			IssueCount:  count,
		})
	}

	for _, raw := range api.Slice(data, "issues") {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		res.Issues = append(res.Issues, parseIssue(obj))
	}
	return res
}

func score(data map[string]any) int {
	if s, ok := api.Int(data, "quality", "score"); ok {
		return s
	}
	if f, ok := api.Float(data, "quality", "score"); ok {
		return int(math.Round(f))
	}
	return 0
}

func parseIssue(obj map[string]any) models.Issue {
	issue := models.Issue{
		DisplayNameHTML: api.String(obj, "displayNameHtml"),
		GuidanceHTML:    api.String(obj, "guidanceHtml"),
		GoalID:          api.String(obj, "goalId"),
		IssueType:       api.String(obj, "issueType"),
	}

	for _, raw := range api.Slice(obj, "subIssues") {
		if sub, ok := raw.(map[string]any); ok {
			issue.SubIssues = append(issue.SubIssues, models.SubIssue{
				DisplayNameHTML: api.String(sub, "displayNameHtml"),
			})
		}
	}

	for _, raw := range api.Slice(obj, "positionalInformation", "matches") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		begin, okBegin := api.Int(m, "originalBegin")
		end, okEnd := api.Int(m, "originalEnd")
		if !okBegin || !okEnd {
			continue
		}
		text := api.String(m, "originalPart")
		if text == "" {
			text = api.String(m, "originalText")
		}
		issue.Matches = append(issue.Matches, models.Match{Begin: begin, End: end, Text: text})
	}

	for _, raw := range api.Slice(obj, "suggestions") {
		switch s := raw.(type) {
		case map[string]any:
			if surface := api.String(s, "surface"); surface != "" {
				issue.Suggestions = append(issue.Suggestions, surface)
			}
		case string:
			issue.Suggestions = append(issue.Suggestions, s)
		}
	}
	return issue
}
