package session

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// DefaultSkipDirs are folders in the data root that never hold analyzable
// sessions.
var DefaultSkipDirs = []string{"test_data", "duplicate_data"}

// Filter narrows discovery to cohorts and mice of interest.
type Filter struct {
	SkipDirs []string
	Cohorts  []string
	Mice     []string
}

// DuplicateSessionError means two files hold the same (mouse, session).
type DuplicateSessionError struct {
	MouseID   string
	SessionID int64
	Paths     [2]string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("mouse %s session %d recorded twice: %s and %s", e.MouseID, e.SessionID, e.Paths[0], e.Paths[1])
}

// CheckUnique fails when a (mouse id, session id) pair appears in more than
// one file. Files whose names carry no mouse ids are not checked.
func CheckUnique(infos []Info) error {
	type key struct {
		mouse   string
		session int64
	}
	owner := map[key]string{}
	for _, info := range infos {
		for _, id := range info.MouseIDs {
			k := key{mouse: strings.ToLower(id), session: info.SessionID}
			if prev, ok := owner[k]; ok && prev != info.Path {
				return &DuplicateSessionError{MouseID: id, SessionID: info.SessionID, Paths: [2]string{prev, info.Path}}
			}
			owner[k] = info.Path
		}
	}
	return nil
}

// FindFiles expands paths into session files. Files are taken as given;
// directories are walked for base data files. Results are sorted and
// de-duplicated by path; two paths holding the same (mouse, session) are an
// error.
func FindFiles(paths []string, f Filter) ([]Info, error) {
	skip := f.SkipDirs
	if skip == nil {
		skip = DefaultSkipDirs
	}

	seen := map[string]bool{}
	var infos []Info
	add := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		info, err := Describe(path)
		if err != nil {
			return err
		}
		if len(f.Cohorts) > 0 && !slices.Contains(f.Cohorts, info.Cohort) {
			return nil
		}
		if !HasMouse(info.MouseIDs, f.Mice) {
			return nil
		}
		infos = append(infos, info)
		return nil
	}

	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && slices.Contains(skip, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsBaseDataFile(d.Name()) {
				return nil
			}
			// Names that do not encode mouse ids are not session files.
			if _, err := MouseIDsFromFileName(d.Name()); err != nil {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].SessionID != infos[j].SessionID {
			return infos[i].SessionID < infos[j].SessionID
		}
		return infos[i].Path < infos[j].Path
	})
	if err := CheckUnique(infos); err != nil {
		return nil, err
	}
	return infos, nil
}
