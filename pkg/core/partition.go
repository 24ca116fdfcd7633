package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Policy decides how the Resolver treats values it cannot interpret.
type Policy int

const (
	// PolicyLenient substitutes Unknown for unparseable values.
	PolicyLenient Policy = iota
	// PolicyStrict reports unparseable values as errors.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}

// Unknown is the partition name used for unparseable values in lenient mode.
const Unknown = "unknown"

// Metadata keys the Resolver requires.
const (
	KeySource    = "source"
	KeyPublished = "published"
)

// dateLayouts are tried in order. Layouts without a zone are interpreted in the
// resolver's location.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// zonedLayouts carry their own offset and are converted to the resolver's location.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// Resolver derives archive partitions from note metadata.
type Resolver struct {
	Policy Policy
	// Location used for dates without an explicit offset. Defaults to time.Local.
	Location *time.Location
}

// NewResolver creates a Resolver using the host's local time zone.
func NewResolver(policy Policy) *Resolver {
	return &Resolver{Policy: policy, Location: time.Local}
}

func (r *Resolver) location() *time.Location {
	if r == nil || r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r *Resolver) strict() bool {
	return r != nil && r.Policy == PolicyStrict
}

// Resolve builds the Destination for the given metadata.
// Callers are expected to have checked that both required keys are present.
func (r *Resolver) Resolve(meta Metadata) (Destination, error) {
	domain, err := r.Domain(fmt.Sprint(meta[KeySource]))
	if err != nil {
		return Destination{}, err
	}
	date, err := r.PublishedDate(meta[KeyPublished])
	if err != nil {
		return Destination{}, err
	}
	return Destination{Domain: domain, PublishedDate: date}, nil
}

// Domain returns the lowercased host of source without a leading "www.".
// A host that could not serve as a single directory name is invalid.
func (r *Resolver) Domain(source string) (string, error) {
	host, err := hostOf(source)
	if err != nil {
		if r.strict() {
			return "", fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		return Unknown, nil
	}
	return host, nil
}

func hostOf(source string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("no scheme or host in %q", source)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if strings.Trim(host, ".") == "" || strings.ContainsAny(host, `/\`) {
		return "", fmt.Errorf("unusable host %q in %q", u.Hostname(), source)
	}
	return host, nil
}

// PublishedDate formats value as YYYYMMDD.
// value may be a time.Time or anything whose string form is a date.
func (r *Resolver) PublishedDate(value any) (string, error) {
	t, err := r.parseDate(value)
	if err != nil {
		if r.strict() {
			return "", fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		return Unknown, nil
	}
	return t.Format("20060102"), nil
}

func (r *Resolver) parseDate(value any) (time.Time, error) {
	loc := r.location()

	switch v := value.(type) {
	case time.Time:
		// YAML date-only values decode as UTC midnight; keep the calendar day.
		if v.Location() == time.UTC && v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v, nil
		}
		return v.In(loc), nil
	case nil:
		return time.Time{}, fmt.Errorf("empty date")
	}

	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Domain resolves source leniently.
func Domain(source string) string {
	d, _ := (&Resolver{}).Domain(source)
	return d
}

// FormatDate resolves a published value leniently in the local time zone.
func FormatDate(value any) string {
	d, _ := (&Resolver{}).PublishedDate(value)
	return d
}
