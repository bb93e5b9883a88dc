package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/RealZimboGuy/flowlint/internal/flow"
)

var (
	ErrNoFile        = errors.New("registry has no backing file")
	ErrEmptyName     = errors.New("component name is empty")
	ErrDuplicateName = errors.New("duplicate component name")
)

// ComponentNode is the catalog entry for a node type: the parameters it
// accepts and the credential it needs.
type ComponentNode struct {
	Name       string            `json:"name"`
	Label      string            `json:"label"`
	Category   string            `json:"category,omitempty"`
	Credential *flow.InputParam  `json:"credential,omitempty"`
	Inputs     []flow.InputParam `json:"inputs,omitempty"`
}

// RequiresCredential reports whether nodes of this type need a credential
// regardless of their inputs. A credential that is optional only under
// conditions still counts as required here; callers holding node inputs
// evaluate those conditions themselves.
func (c ComponentNode) RequiresCredential() bool {
	return c.Credential != nil && !c.Credential.Optional.Always
}

type catalogFile struct {
	Components []ComponentNode `json:"components"`
}

// Registry is the component nodes catalog. It is safe for concurrent use
// and can be reloaded from its backing file while serving lookups.
type Registry struct {
	mu         sync.RWMutex
	components map[string]ComponentNode
	path       string
}

func New(nodes ...ComponentNode) *Registry {
	r := &Registry{components: make(map[string]ComponentNode, len(nodes))}
	for _, n := range nodes {
		r.components[n.Name] = n
	}
	return r
}

// LoadFile builds a registry from a YAML or JSON catalog file.
func LoadFile(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the backing file. The current catalog is kept when the
// file cannot be read or parsed.
func (r *Registry) Reload() error {
	if r.path == "" {
		return ErrNoFile
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read component catalog: %w", err)
	}
	components, err := decodeCatalog(data)
	if err != nil {
		return fmt.Errorf("parse component catalog %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.components = components
	r.mu.Unlock()
	slog.Info("Component catalog loaded", "file", r.path, "components", len(components))
	return nil
}

func (r *Registry) Lookup(name string) (ComponentNode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

func (r *Registry) Path() string {
	return r.path
}

// decodeCatalog goes through yaml.v3 into a generic tree and then through
// encoding/json, so the flow types only carry json tags. JSON files decode
// the same way since JSON is valid YAML.
func decodeCatalog(data []byte) (map[string]ComponentNode, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		return map[string]ComponentNode{}, nil
	}
	normalized, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, err
	}

	components := make(map[string]ComponentNode, len(file.Components))
	for i, c := range file.Components {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("component %d: %w", i, ErrEmptyName)
		}
		if _, dup := components[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
		}
		components[c.Name] = c
	}
	return components, nil
}
