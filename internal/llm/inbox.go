package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// EmailDigest is the part of a message that is sent to the model.
type EmailDigest struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet"`
	Body    string `json:"body,omitempty"`
	// Signals are header-derived bulk mail hints, e.g. "list-unsubscribe".
	Signals []string `json:"signals,omitempty"`
}

// Category is the triage category of a message.
type Category string

const (
	CategorySales   Category = "SALES"
	CategoryInfo    Category = "INFO"
	CategoryPromo   Category = "PROMO"
	CategoryUrgent  Category = "URGENT"
	CategoryMeeting Category = "MEETING"
	CategorySpam    Category = "SPAM"
	CategoryOther   Category = "OTHER"
)

// Categories lists every Category in report order.
var Categories = []Category{
	CategorySales, CategoryInfo, CategoryPromo, CategoryUrgent, CategoryMeeting, CategorySpam, CategoryOther,
}

func parseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// Priority of a todo.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func parsePriority(s string) Priority {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// Todo is an actionable message.
type Todo struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
	Action   string   `json:"action"`
	Deadline string   `json:"deadline,omitempty"`
	Context  string   `json:"context"`
	IsSpam   bool     `json:"isSpam"`
}

// SpamItem is a message classified as spam.
type SpamItem struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Reason  string `json:"reason"`
	Context string `json:"context"`
	// SpamType is one of promotional, phishing, suspicious or bulk.
	SpamType string `json:"spamType"`
}

// InboxSummary holds the counts of an InboxAnalysis.
type InboxSummary struct {
	TotalEmails      int              `json:"totalEmails"`
	ActionableEmails int              `json:"actionableEmails"`
	SpamEmails       int              `json:"spamEmails"`
	Categories       map[Category]int `json:"categories"`
}

// InboxAnalysis is the result of AnalyzeInbox.
type InboxAnalysis struct {
	Todos   []Todo       `json:"todos"`
	Spam    []SpamItem   `json:"spam"`
	Summary InboxSummary `json:"summary"`
}

// normalize coerces model output onto known categories and priorities and
// fills in counts the model left out.
func (a *InboxAnalysis) normalize(total int) {
	if a.Todos == nil {
		a.Todos = []Todo{}
	}
	if a.Spam == nil {
		a.Spam = []SpamItem{}
	}
	for i := range a.Todos {
		a.Todos[i].Category = parseCategory(string(a.Todos[i].Category))
		a.Todos[i].Priority = parsePriority(string(a.Todos[i].Priority))
	}

	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for c, n := range a.Summary.Categories {
		counts[parseCategory(string(c))] += n
	}
	a.Summary.Categories = counts

	if a.Summary.TotalEmails == 0 {
		a.Summary.TotalEmails = total
	}
	if a.Summary.ActionableEmails == 0 {
		a.Summary.ActionableEmails = len(a.Todos)
	}
	if a.Summary.SpamEmails == 0 {
		a.Summary.SpamEmails = len(a.Spam)
	}
}

// digestBlock formats emails as the prompt's "Emails to analyze" section.
func digestBlock(emails []EmailDigest) string {
	blocks := make([]string, 0, len(emails))
	for _, e := range emails {
		var b strings.Builder
		fmt.Fprintf(&b, "ID: %s\nFrom: %s\nSubject: %s\nSnippet: %s", e.ID, e.From, e.Subject, e.Snippet)
		if len(e.Signals) > 0 {
			fmt.Fprintf(&b, "\nBulk signals: %s", strings.Join(e.Signals, ", "))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// AnalyzeInbox classifies emails into a prioritized todo list and a spam
// list. An empty slice yields an empty analysis without calling the API.
func (c *Client) AnalyzeInbox(ctx context.Context, emails []EmailDigest) (*InboxAnalysis, error) {
	analysis := &InboxAnalysis{}
	if len(emails) == 0 {
		analysis.normalize(0)
		return analysis, nil
	}

	content, err := c.complete(ctx, request{
		operation:   "analyze_inbox",
		system:      systemInbox,
		prompt:      fmt.Sprintf(analyzeInboxPrompt, digestBlock(emails)),
		maxTokens:   2000,
		temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(content, "inbox analysis", analysis); err != nil {
		return nil, err
	}
	analysis.normalize(len(emails))
	return analysis, nil
}

// DailyInsights is the result of Client.DailyInsights.
type DailyInsights struct {
	CommonTopics []string `json:"commonTopics"`
	Insights     string   `json:"insights"`
	WritingStyle string   `json:"writingStyle"`
	Trends       string   `json:"trends"`
}

func emailsJSON(emails []EmailDigest) (string, error) {
	if emails == nil {
		emails = []EmailDigest{}
	}
	data, err := json.MarshalIndent(emails, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode emails: %w", err)
	}
	return string(data), nil
}

// DailyInsights reports topics, insights, writing style and trends across
// today's emails. allContent is the concatenated text of the messages.
func (c *Client) DailyInsights(ctx context.Context, emails []EmailDigest, allContent string) (*DailyInsights, error) {
	encoded, err := emailsJSON(emails)
	if err != nil {
		return nil, err
	}
	content, err := c.complete(ctx, request{
		operation:   "daily_insights",
		system:      systemInsights,
		prompt:      fmt.Sprintf(dailyInsightsPrompt, encoded, allContent),
		maxTokens:   1000,
		temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	var insights DailyInsights
	if err := decodeJSON(content, "daily insights", &insights); err != nil {
		return nil, err
	}
	if len(insights.CommonTopics) == 0 {
		insights.CommonTopics = []string{"Various topics"}
	}
	if insights.Insights == "" {
		insights.Insights = "Analysis complete"
	}
	return &insights, nil
}

func (c *Client) dailyReport(ctx context.Context, operation, system, prompt string, emails []EmailDigest, temperature float32) (string, error) {
	encoded, err := emailsJSON(emails)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, request{
		operation:   operation,
		system:      system,
		prompt:      fmt.Sprintf(prompt, encoded),
		maxTokens:   800,
		temperature: temperature,
	})
}

// DailySummary writes an executive summary of today's emails.
func (c *Client) DailySummary(ctx context.Context, emails []EmailDigest) (string, error) {
	return c.dailyReport(ctx, "daily_summary", systemSummary, dailySummaryPrompt, emails, 0.4)
}

// DailyPatterns describes communication patterns in today's emails.
func (c *Client) DailyPatterns(ctx context.Context, emails []EmailDigest) (string, error) {
	return c.dailyReport(ctx, "daily_patterns", systemPatterns, dailyPatternsPrompt, emails, 0.3)
}

// DailyImprovements suggests improvements based on today's emails.
func (c *Client) DailyImprovements(ctx context.Context, emails []EmailDigest) (string, error) {
	return c.dailyReport(ctx, "daily_improvements", systemImprovements, dailyImprovementsPrompt, emails, 0.4)
}
