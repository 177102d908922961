package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	datetimePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`)
	baseFilePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.json`)
	mousePairPattern = regexp.MustCompile(`\d+[_-]\d+[_-]`)
	cohortPattern    = regexp.MustCompile(`^([IVX]{1,7})_`)
)

var (
	// ErrEmptyName is returned when there is nothing to search for pairs.
	ErrEmptyName = errors.New("can only search non-empty strings for cohort, mouse pairs")
	// ErrNoDatetime is returned for file names without a session datetime.
	ErrNoDatetime = errors.New("file name has no session datetime")
)

// PairError reports a file-name fragment that is not a sequence of
// cohort/mouse pairs.
type PairError struct {
	Fragment string
	Reason   string
}

func (e *PairError) Error() string {
	return fmt.Sprintf("%q %s", e.Fragment, e.Reason)
}

// ExtractCohortMousePairs splits the front of a session file name into its
// "{cohort}_{mouse}_" pairs, e.g. "106_1_106_2_" into ["106_1_", "106_2_"].
// Every remaining fragment must start another pair; trailing text that
// matches no pair is an error.
func ExtractCohortMousePairs(blob string) ([]string, error) {
	if blob == "" {
		return nil, ErrEmptyName
	}
	if datetimePattern.MatchString(blob) {
		return nil, &PairError{Fragment: blob, Reason: "still contains a date-time"}
	}

	var pairs []string
	rest := blob
	for rest != "" {
		loc := mousePairPattern.FindStringIndex(rest)
		if loc == nil {
			return nil, &PairError{Fragment: rest, Reason: "does not contain a cohort, mouse pair"}
		}
		pairs = append(pairs, rest[loc[0]:loc[1]])
		rest = rest[loc[1]:]
	}
	return pairs, nil
}

// MouseIDsFromFileName returns the mouse ids encoded before the datetime of
// a session file name, without their trailing separator.
func MouseIDsFromFileName(name string) ([]string, error) {
	base := filepath.Base(name)
	loc := datetimePattern.FindStringIndex(base)
	if loc == nil {
		return nil, fmt.Errorf("%s: %w", base, ErrNoDatetime)
	}
	pairs, err := ExtractCohortMousePairs(base[:loc[0]])
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p[:len(p)-1]
	}
	return ids, nil
}

// DatetimeFromFileName parses the session datetime embedded in name.
func DatetimeFromFileName(name string) (time.Time, error) {
	m := datetimePattern.FindString(filepath.Base(name))
	if m == "" {
		return time.Time{}, fmt.Errorf("%s: %w", filepath.Base(name), ErrNoDatetime)
	}
	return time.Parse(parseLayout, m)
}

// SessionID encodes a session datetime as YYYYMMDDHHMMSS.
func SessionID(t time.Time) int64 {
	id, _ := strconv.ParseInt(t.Format("20060102150405"), 10, 64)
	return id
}

// SessionIDString renders a session id as YYYY-MM-DDTHH:MM:SS.
func SessionIDString(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) != 14 {
		return s
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%s", s[0:4], s[4:6], s[6:8], s[8:10], s[10:12], s[12:14])
}

// IsBaseDataFile reports whether name is a session file produced during
// acquisition rather than a raw, processed or analyzed derivative.
func IsBaseDataFile(name string) bool {
	return baseFilePattern.MatchString(filepath.Base(name))
}

// Cohort returns the roman-numeral cohort of a data folder name such as
// "IV_2024_spring", or "" when dir is not a cohort folder.
func Cohort(dir string) string {
	m := cohortPattern.FindStringSubmatch(filepath.Base(dir))
	if m == nil {
		return ""
	}
	return m[1]
}

// Info identifies one session file.
type Info struct {
	Path      string
	Cohort    string
	MouseIDs  []string
	SessionID int64
	Date      time.Time
	DayOfWeek string
}

// Describe derives the Info of a session file path.
func Describe(path string) (Info, error) {
	ids, err := MouseIDsFromFileName(path)
	if err != nil {
		return Info{}, err
	}
	date, err := DatetimeFromFileName(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Path:      path,
		MouseIDs:  ids,
		SessionID: SessionID(date),
		Date:      date,
		DayOfWeek: date.Weekday().String(),
	}
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if c := Cohort(dir); c != "" {
			info.Cohort = c
			break
		}
		if next := filepath.Dir(dir); next == dir {
			break
		}
	}
	return info, nil
}

// HasMouse reports whether every one of ids is in want. A paired file is
// only wanted when both of its mice are. An empty want matches all.
func HasMouse(ids, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, id := range ids {
		if !slices.ContainsFunc(want, func(w string) bool { return strings.EqualFold(id, w) }) {
			return false
		}
	}
	return true
}
