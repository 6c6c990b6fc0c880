package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"hugo-drive-sync/pkg/models"
)

var validFileID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ArticlePersistence stores one article per Drive file id.
type ArticlePersistence interface {
	Load(fileID string) (*models.LocalArticle, error)
	Save(article *models.LocalArticle) error
	Delete(fileID string) error
	List() ([]string, error)
	PathFor(fileID string) string
}

// FileStore keeps articles as {dir}/{file_id}.md.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// ValidFileID reports whether id is safe to use as a file name.
func ValidFileID(id string) bool {
	return validFileID.MatchString(id)
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) PathFor(fileID string) string {
	return filepath.Join(s.dir, fileID+".md")
}

// Load reads an article. A missing file yields ErrArticleNotFound; a file whose
// front matter cannot be parsed is returned with Readable set to false.
func (s *FileStore) Load(fileID string) (*models.LocalArticle, error) {
	if !ValidFileID(fileID) {
		return nil, fmt.Errorf("invalid file id %q", fileID)
	}
	path := s.PathFor(fileID)

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArticleNotFound
		}
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}

	article := &models.LocalArticle{FileID: fileID, Path: path}
	fm, body, format, err := ParseFrontMatter(content)
	if err != nil {
		article.Body = string(content)
		return article, nil
	}

	article.FrontMatter = fm
	article.Body = body
	article.Format = format
	article.Readable = fm != nil
	article.Title = fm.String(models.KeyTitle)
	return article, nil
}

// Save writes the article atomically: the content goes to a temp file in the
// same directory which is then renamed over the target.
func (s *FileStore) Save(article *models.LocalArticle) error {
	if !ValidFileID(article.FileID) {
		return fmt.Errorf("invalid file id %q", article.FileID)
	}
	path := s.PathFor(article.FileID)

	content, err := ConstructFileContent(article.FrontMatter, article.Body, article.Format)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &PersistenceError{Op: "mkdir", Path: s.dir, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+article.FileID+".*.tmp")
	if err != nil {
		return &PersistenceError{Op: "create temp", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "chmod", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}

	article.Path = path
	return nil
}

func (s *FileStore) Delete(fileID string) error {
	if !ValidFileID(fileID) {
		return fmt.Errorf("invalid file id %q", fileID)
	}
	path := s.PathFor(fileID)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &PersistenceError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// List returns the stems of *.md files that look like Drive ids, sorted.
// Other files in the directory are never touched by the sync.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "list", Path: s.dir, Err: err}
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".md")
		if ValidFileID(stem) {
			ids = append(ids, stem)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
