package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
)

// ProblemType identifies a habit validation failure.
type ProblemType string

const (
	ProblemMissingTitle      ProblemType = "missing_title"
	ProblemTitleTooLong      ProblemType = "title_too_long"
	ProblemDescriptionLength ProblemType = "description_too_long"
	ProblemUnknownCategory   ProblemType = "unknown_category"
	ProblemInvalidReminder   ProblemType = "invalid_reminder_time"
	ProblemInvalidImageURL   ProblemType = "invalid_image_url"
	ProblemMissingOwner      ProblemType = "missing_owner"
	ProblemInvalidHistory    ProblemType = "invalid_completion_history"
)

// Problem is a single field-level validation failure.
type Problem struct {
	Type    ProblemType `json:"type"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

// Problems collects failures and satisfies error when non-empty.
type Problems []Problem

func (p Problems) Error() string {
	msgs := make([]string, len(p))
	for i, prob := range p {
		msgs[i] = prob.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields returns problems keyed by field, the shape the API returns for 422s.
func (p Problems) Fields() map[string]string {
	out := make(map[string]string, len(p))
	for _, prob := range p {
		out[prob.Field] = prob.Message
	}
	return out
}

// ValidateInput checks the user-editable fields of a habit.
func ValidateInput(in models.HabitInput) Problems {
	var problems Problems

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		problems = append(problems, Problem{ProblemMissingTitle, "title", "title is required"})
	case utf8.RuneCountInString(title) > constants.MaxTitleLength:
		problems = append(problems, Problem{ProblemTitleTooLong, "title",
			fmt.Sprintf("title must be at most %d characters", constants.MaxTitleLength)})
	}

	if utf8.RuneCountInString(in.Description) > constants.MaxDescriptionLength {
		problems = append(problems, Problem{ProblemDescriptionLength, "description",
			fmt.Sprintf("description must be at most %d characters", constants.MaxDescriptionLength)})
	}

	if !IsCategory(in.Category) {
		problems = append(problems, Problem{ProblemUnknownCategory, "category",
			fmt.Sprintf("category must be one of %s", strings.Join(constants.Categories, ", "))})
	}

	if in.ReminderTime != "" {
		if _, err := time.Parse(constants.TimeFormat, in.ReminderTime); err != nil {
			problems = append(problems, Problem{ProblemInvalidReminder, "reminderTime",
				fmt.Sprintf("invalid reminder time %q (expected HH:MM)", in.ReminderTime)})
		}
	}

	if in.ImageURL != "" {
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, Problem{ProblemInvalidImageURL, "imageUrl",
				fmt.Sprintf("invalid image URL %q (expected http or https)", in.ImageURL)})
		}
	}

	return problems
}

// ValidateHabit checks a full habit record, including ownership and history.
func ValidateHabit(h models.Habit) Problems {
	problems := ValidateInput(models.HabitInput{
		Title:        h.Title,
		Description:  h.Description,
		Category:     h.Category,
		ReminderTime: h.ReminderTime,
		ImageURL:     h.ImageURL,
	})

	if strings.TrimSpace(h.OwnerEmail) == "" {
		problems = append(problems, Problem{ProblemMissingOwner, "userEmail", "owner email is required"})
	}

	if err := ValidateHistory(h.CompletionHistory); err != nil {
		problems = append(problems, Problem{ProblemInvalidHistory, "completionHistory", err.Error()})
	}

	return problems
}

// ValidateHistory checks that every entry is a YYYY-MM-DD day and that no day
// appears twice.
func ValidateHistory(history []string) error {
	seen := make(map[string]bool, len(history))
	for _, day := range history {
		if err := ValidateDay(day); err != nil {
			return err
		}
		if seen[day] {
			return fmt.Errorf("duplicate completion day %s", day)
		}
		seen[day] = true
	}
	return nil
}

// ValidateDay checks that s is a calendar day in YYYY-MM-DD form.
func ValidateDay(s string) error {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil || t.Format(constants.DateFormat) != s {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return nil
}

// IsCategory reports whether c is one of the fixed categories.
func IsCategory(c string) bool {
	return slices.Contains(constants.Categories, c)
}
