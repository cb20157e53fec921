// Package source resolves an ingestion corpus into raw file contents, either
// from a local directory tree or from a freshly cloned git repository.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable reports that the corpus as a whole could not be read: the
// local root is missing or empty, or the remote clone failed. Per-file read
// failures are logged and skipped instead.
var ErrUnavailable = errors.New("corpus source unavailable")

// Kind discriminates the two corpus source variants.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Descriptor names one corpus for one ingestion run. It is transient and
// never persisted.
type Descriptor struct {
	Kind Kind
	Root string // local root directory
	URL  string // remote repository URL
	Ref  string // optional branch or tag
}

// LocalDir describes a corpus rooted at a local directory.
func LocalDir(root string) Descriptor {
	return Descriptor{Kind: KindLocal, Root: root}
}

// Remote describes a corpus cloned from a git repository.
func Remote(url, ref string) Descriptor {
	return Descriptor{Kind: KindRemote, URL: url, Ref: ref}
}

// File is one loaded corpus file: a slash-separated path relative to the
// corpus root plus its raw text content.
type File struct {
	Path    string
	Content string
}

// Loader walks a corpus and yields files matching its extension allow-list.
type Loader struct {
	extensions map[string]bool
}

// NewLoader builds a loader restricted to the given file extensions
// (e.g. ".tf"). Matching is case-insensitive.
func NewLoader(extensions []string) *Loader {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Loader{extensions: exts}
}

// Load resolves a descriptor into file contents. One pass per ingestion run;
// remote clones live in a temporary workspace that is removed before Load
// returns, on success and failure alike.
func (l *Loader) Load(ctx context.Context, desc Descriptor) ([]File, error) {
	switch desc.Kind {
	case KindLocal:
		return l.loadLocal(ctx, desc.Root)
	case KindRemote:
		return l.loadRemote(ctx, desc)
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", ErrUnavailable, desc.Kind)
	}
}

func (l *Loader) loadLocal(ctx context.Context, root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: directory %s not found", ErrUnavailable, root)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !l.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, File{
			Path:    filepath.ToSlash(rel),
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		// An operator abort is not a missing corpus.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: walking %s: %v", ErrUnavailable, root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no matching files under %s", ErrUnavailable, root)
	}
	return files, nil
}

func (l *Loader) loadRemote(ctx context.Context, desc Descriptor) ([]File, error) {
	dir, err := os.MkdirTemp("", "corpus-clone-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating clone workspace: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to remove clone workspace")
		}
	}()

	opts := &git.CloneOptions{
		URL:   desc.URL,
		Depth: 1,
	}
	if desc.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(desc.Ref)
		opts.SingleBranch = true
	}
	log.Info().Str("url", desc.URL).Str("ref", desc.Ref).Msg("cloning repository")
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return nil, fmt.Errorf("%w: cloning %s: %v", ErrUnavailable, desc.URL, err)
	}
	return l.loadLocal(ctx, dir)
}
