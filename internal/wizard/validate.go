package wizard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
)

const (
	maxNameLen        = 40
	maxDescriptionLen = 200
)

// Bounds hold the configured activity length limits.
type Bounds struct {
	Min time.Duration
	Max time.Duration
}

func (b Bounds) minMinutes() int { return int(b.Min.Minutes()) }
func (b Bounds) maxMinutes() int { return int(b.Max.Minutes()) }
func (b Bounds) maxHours() int   { return int(b.Max.Hours()) }

// ValidateName trims and bound-checks an activity name.
func ValidateName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len([]rune(trimmed)) > maxNameLen {
		return "", tooLong(fmt.Sprintf("Liian pitkä nimi, max %d merkkiä", maxNameLen))
	}
	if trimmed == "" {
		return "", tooShort("Liian lyhyt nimi")
	}
	return trimmed, nil
}

// ValidateDescription trims and bound-checks an activity description.
func ValidateDescription(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len([]rune(trimmed)) > maxDescriptionLen {
		return "", tooLong(fmt.Sprintf("Liian pitkä kuvaus, max %d merkkiä", maxDescriptionLen))
	}
	if trimmed == "" {
		return "", tooShort("Liian lyhyt kuvaus")
	}
	return trimmed, nil
}

// ValidateCategory checks membership in the closed category set.
func ValidateCategory(raw string) (domain.Category, error) {
	cat := domain.Category(strings.TrimSpace(raw))
	if !cat.Valid() {
		return "", invalidFormat()
	}
	return cat, nil
}

// ParseLength parses an activity length in minutes from one of three
// literal syntaxes, tried in order:
//
//  1. a bare number of minutes, rounded to the nearest integer;
//  2. "<hours>h<minutes>", minutes optional ("1h20" = 80, "12h" = 720);
//  3. "<hour>:<minute>", a 24-hour wall-clock end time — the result is
//     the number of minutes until that time next occurs (same day if
//     still ahead, otherwise tomorrow).
//
// Bounds apply to the resulting minute count, inclusive at both ends.
func ParseLength(raw string, now time.Time, b Bounds) (int, error) {
	raw = strings.TrimSpace(raw)

	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		return boundMinutes(int(math.Round(num)), b)
	}

	if strings.Contains(raw, "h") {
		return parseHoursMinutes(raw, b)
	}

	return parseClockTime(raw, now, b)
}

func parseHoursMinutes(raw string, b Bounds) (int, error) {
	parts := strings.Split(raw, "h")
	if len(parts) != 2 {
		return 0, invalidFormat()
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, invalidFormat()
	}
	minutes := 0
	if parts[1] != "" {
		minutes, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, invalidFormat()
		}
	}
	if minutes < 0 || minutes >= 60 || hours < 0 {
		return 0, invalidFormat()
	}
	if hours > b.maxHours() || (minutes > 0 && hours >= b.maxHours()) {
		return 0, tooLong(fmt.Sprintf("Et voi asettaa yli %dh kestoa", b.maxHours()))
	}
	return boundMinutes(hours*60+minutes, b)
}

func parseClockTime(raw string, now time.Time, b Bounds) (int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, invalidFormat()
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, invalidFormat()
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, invalidFormat()
	}
	if hour < 0 || hour >= 24 || minute < 0 || minute >= 60 {
		return 0, invalidFormat()
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if target.Before(now) {
		// Already passed today; the next occurrence is tomorrow.
		target = target.AddDate(0, 0, 1)
	}
	return boundMinutes(int(math.Round(target.Sub(now).Minutes())), b)
}

func boundMinutes(minutes int, b Bounds) (int, error) {
	if minutes > b.maxMinutes() {
		return 0, tooLong(fmt.Sprintf("Et voi asettaa yli %dh kestoa", b.maxHours()))
	}
	if minutes < b.minMinutes() {
		return 0, tooShort(fmt.Sprintf("Minimipituus on %d minuuttia", b.minMinutes()))
	}
	return minutes, nil
}

// ValidateDraft checks that every field of the draft independently
// satisfies its own rule; only a draft passing this gate may be
// committed.
func ValidateDraft(d domain.Draft, b Bounds) error {
	if _, err := ValidateName(d.Name); err != nil {
		return err
	}
	if _, err := ValidateDescription(d.Description); err != nil {
		return err
	}
	if d.Minutes < b.minMinutes() || d.Minutes > b.maxMinutes() {
		return invalidFormat()
	}
	if !d.Category.Valid() {
		return invalidFormat()
	}
	return nil
}
