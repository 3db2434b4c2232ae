package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// FileNode is one node of the client-side file tree, rebuilt from the
// backend's flat listing by path-prefix parent matching.
type FileNode struct {
	ID       string
	Name     string
	Type     string // "file" or "folder"
	Size     int64
	Modified int64 // epoch milliseconds
	Path     string
	Children []*FileNode
}

// FileStore owns the file tree. File events carry no record payload worth
// patching incrementally, so created/deleted/list events trigger a re-fetch.
type FileStore struct {
	client *api.Client

	mu      sync.Mutex
	roots   []*FileNode
	loading bool
	errMsg  string

	onChange func()
	refetch  func()
}

func NewFileStore(client *api.Client) *FileStore {
	return &FileStore{client: client}
}

// Bind subscribes the store to push events; refetch runs whenever the file
// set changes server-side (it should call Fetch on the owner's context).
func (s *FileStore) Bind(bus *events.Bus, refetch func()) {
	s.mu.Lock()
	s.refetch = refetch
	s.mu.Unlock()
	bus.Subscribe(s.HandleEvent)
}

func (s *FileStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *FileStore) HandleEvent(ev events.Event) {
	switch ev.Name {
	case "file_created", "file_deleted", "file_list":
	default:
		return
	}
	s.mu.Lock()
	refetch := s.refetch
	s.mu.Unlock()
	if refetch != nil {
		refetch()
	}
}

func (s *FileStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	flat, err := s.client.ListFiles(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.roots = BuildFileTree(flat)
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

// Roots returns the current tree roots.
func (s *FileStore) Roots() []*FileNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FileNode(nil), s.roots...)
}

func (s *FileStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *FileStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// BuildFileTree 按 path 前缀把扁平列表重建为层级树；父目录缺失的条目挂到根。
// BuildFileTree rebuilds the hierarchy from a flat listing. An entry whose
// parent path is absent from the listing becomes a root. Siblings are sorted
// folders first, then by name.
func BuildFileTree(flat []api.FileRecord) []*FileNode {
	nodes := make(map[string]*FileNode, len(flat))
	for _, rec := range flat {
		node := &FileNode{
			ID:       rec.ID,
			Name:     rec.Name,
			Type:     rec.Type,
			Size:     rec.Size,
			Modified: rec.UpdatedAt,
			Path:     rec.Path,
		}
		nodes[rec.Path] = node
	}

	var roots []*FileNode
	for _, rec := range flat {
		node := nodes[rec.Path]
		parentPath := ""
		if idx := strings.LastIndex(rec.Path, "/"); idx > 0 {
			parentPath = rec.Path[:idx]
		}
		if parent, ok := nodes[parentPath]; ok && parentPath != "" && parent != node {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	sortTree(roots)
	return roots
}

func sortTree(nodes []*FileNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == "folder"
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortTree(n.Children)
		}
	}
}
