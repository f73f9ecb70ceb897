// Package security provides input validation for archive API parameters.
package security

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grigden22/temnet-parser/internal/apperr"
	"github.com/grigden22/temnet-parser/internal/models"
)

// timestampLayouts are tried in order. The first is what the search page sends.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// maxOffset bounds page*size so the SQL OFFSET stays a sane positive integer.
const maxOffset = math.MaxInt32

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// ValidationService provides centralized input validation functions.
// All validation errors wrap apperr.ErrBadRequest and are safe to show to users.
type ValidationService struct {
	config   *SecurityConfig
	location *time.Location
}

// NewValidationService creates a new validation service.
// Timestamps without a zone are interpreted in loc; nil means UTC.
func NewValidationService(config *SecurityConfig, loc *time.Location) *ValidationService {
	if config == nil {
		config = DefaultSecurityConfig()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ValidationService{
		config:   config,
		location: loc,
	}
}

// Unescape decodes a URL path segment ("%20", "%2B").
func (v *ValidationService) Unescape(fieldName, raw string) (string, error) {
	s, err := url.PathUnescape(raw)
	if err != nil {
		return "", badRequest("%s is not a valid URL segment", fieldName)
	}
	return s, nil
}

// ParseID parses a group or user identifier. Negative values are accepted:
// a user id of -1 selects the whole group.
func (v *ValidationService) ParseID(fieldName, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, badRequest("%s must be an integer", fieldName)
	}
	return id, nil
}

// ParseTimestamp parses a search boundary. Zone-less layouts are read in the
// configured location.
func (v *ValidationService) ParseTimestamp(fieldName, raw string) (time.Time, error) {
	s, err := v.Unescape(fieldName, raw)
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)

	for _, layout := range timestampLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(v.location), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, v.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, badRequest("%s must be a timestamp like 2024-03-01 00:00:00", fieldName)
}

// ValidateSearchText unescapes and checks a full-text query.
// Control characters are stripped; the result must be non-blank and no longer
// than MaxQueryLength runes.
func (v *ValidationService) ValidateSearchText(raw string) (string, error) {
	s, err := v.Unescape("search text", raw)
	if err != nil {
		return "", err
	}
	s = v.SanitizeString(s)

	if s == "" {
		return "", badRequest("search text is required")
	}
	if utf8.RuneCountInString(s) > v.config.MaxQueryLength {
		return "", badRequest("search text must be %d characters or less", v.config.MaxQueryLength)
	}
	return s, nil
}

// ParsePageable builds a page request from query parameters.
//
// Parameters:
//   - page: Zero-based page number; missing, unparseable or negative means 0
//   - size: Page size; missing, unparseable or non-positive means DefaultPageSize,
//     larger than MaxPageSize is clamped
//   - sorts: Values of repeated "sort" parameters, each "property[,asc|desc]"
//
// Returns:
//   - models.Pageable: The normalized request
//   - error: ErrBadRequest for a malformed sort direction or a page whose
//     offset would exceed maxOffset rows
//
// Sort properties are not checked here; the service knows which ones apply.
func (v *ValidationService) ParsePageable(page, size string, sorts []string) (models.Pageable, error) {
	p := models.Pageable{Page: 0, Size: v.config.DefaultPageSize}

	if n, err := strconv.Atoi(strings.TrimSpace(size)); err == nil && n > 0 {
		p.Size = n
	}
	if p.Size > v.config.MaxPageSize {
		p.Size = v.config.MaxPageSize
	}
	if n, err := strconv.Atoi(strings.TrimSpace(page)); err == nil && n >= 0 {
		if n > maxOffset/p.Size {
			return models.Pageable{}, badRequest("page %d is out of range", n)
		}
		p.Page = n
	}

	for _, raw := range sorts {
		prop, dir, hasDir := strings.Cut(raw, ",")
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}

		order := models.SortOrder{Property: prop, Direction: models.Asc}
		if hasDir {
			d, ok := models.ParseDirection(dir)
			if !ok {
				return models.Pageable{}, badRequest("invalid sort direction %q", dir)
			}
			order.Direction = d
		}
		p.Sort = append(p.Sort, order)
	}

	return p, nil
}

// SanitizeString removes control characters (except newline and tab) and
// trims surrounding whitespace.
func (v *ValidationService) SanitizeString(input string) string {
	input = controlChars.ReplaceAllString(input, "")
	return strings.TrimSpace(input)
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperr.ErrBadRequest, fmt.Sprintf(format, args...))
}
