package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/object"
)

// WriteFiles stores each file as a blob and builds the tree holding them.
// Paths use forward slashes.
func (r *Repo) WriteFiles(files map[string][]byte) (object.Hash, error) {
	blobs := make(map[string]object.Hash, len(files))
	for p, data := range files {
		h, err := r.Store.WriteBlob(&object.Blob{Data: data})
		if err != nil {
			return "", fmt.Errorf("write files %q: %w", p, err)
		}
		blobs[p] = h
	}
	return r.BuildTree(blobs)
}

// BuildTree converts flat path -> blob hash entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root
// hash.
func (r *Repo) BuildTree(blobs map[string]object.Hash) (object.Hash, error) {
	clean := make(map[string]object.Hash, len(blobs))
	for p, h := range blobs {
		p = strings.Trim(path.Clean("/"+p), "/")
		if p == "" {
			return "", fmt.Errorf("build tree: empty path")
		}
		clean[p] = h
	}
	return r.buildTreeDir(clean, "")
}

func (r *Repo) buildTreeDir(blobs map[string]object.Hash, prefix string) (object.Hash, error) {
	files := make(map[string]object.Hash)
	subdirs := make(map[string]struct{})

	for p, h := range blobs {
		var rel string
		if prefix == "" {
			rel = p
		} else {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			files[rel] = h
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; isFile {
			return "", fmt.Errorf("build tree: %q is both a file and a directory", path.Join(prefix, name))
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		if h, isFile := files[name]; isFile {
			entries = append(entries, object.TreeEntry{Name: name, Mode: object.TreeModeFile, BlobHash: h})
			continue
		}
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.buildTreeDir(blobs, childPrefix)
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{Name: name, IsDir: true, SubtreeHash: subHash})
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}
