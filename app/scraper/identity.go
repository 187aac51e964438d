package scraper

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// identityFileHeader versions the on-disk format so corruption and
// incompatible formats are detectable instead of silently misread.
const identityFileHeader = "# risk-comb author map v1"

// anonIDLength is the number of hex characters kept from the handle
// hash. Truncation can collide across distinct handles; the study
// tolerates that.
const anonIDLength = 8

// IdentityStore maps provider account handles to stable anonymized
// identifiers. The map only grows; once assigned, an author's id
// never changes across runs.
type IdentityStore struct {
	path string
	ids  map[string]string
}

func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{
		path: path,
		ids:  make(map[string]string),
	}
}

// Load reads the persisted mapping. A missing file yields an empty
// store; a malformed file is a fatal error, never silently dropped.
func (s *IdentityStore) Load() error {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open author map: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read author map: %w", err)
		}
		return fmt.Errorf("author map %s is empty, expected header %q", s.path, identityFileHeader)
	}
	if scanner.Text() != identityFileHeader {
		return fmt.Errorf("author map %s has unknown header %q", s.path, scanner.Text())
	}

	line := 1
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}

		handle, id, ok := strings.Cut(text, "\t")
		if !ok || handle == "" || id == "" {
			return fmt.Errorf("author map %s is corrupt at line %d", s.path, line)
		}
		s.ids[handle] = id
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read author map: %w", err)
	}

	return nil
}

// Resolve returns the anonymized id for a handle, assigning a new one
// on first encounter. Callers must filter out deleted accounts before
// calling Resolve.
func (s *IdentityStore) Resolve(handle string) string {
	if id, ok := s.ids[handle]; ok {
		return id
	}

	hash := sha256.Sum256([]byte(handle))
	id := hex.EncodeToString(hash[:])[:anonIDLength]
	s.ids[handle] = id

	return id
}

// Save rewrites the mapping on disk, replacing the previous file via
// a temp-file rename so a crash cannot leave a half-written map.
func (s *IdentityStore) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create author map directory: %w", err)
	}

	handles := make([]string, 0, len(s.ids))
	for handle := range s.ids {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	var b strings.Builder
	b.WriteString(identityFileHeader)
	b.WriteString("\n")
	for _, handle := range handles {
		b.WriteString(handle)
		b.WriteString("\t")
		b.WriteString(s.ids[handle])
		b.WriteString("\n")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write author map: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace author map: %w", err)
	}

	return nil
}

// Len returns the number of known handles
func (s *IdentityStore) Len() int {
	return len(s.ids)
}
