package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RealZimboGuy/flowlint/internal/flow"
	"github.com/RealZimboGuy/flowlint/internal/registry"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

const (
	msgNotConnected       = "This node is not connected to anything"
	msgCredentialRequired = "Credential is required"
	msgEdgeBothMissing    = "Disconnected edge: both source and target nodes do not exist"

	paramTypeCredential = "credential"
	paramTypeArray      = "array"
	edgeIssueName       = "edge"
)

// Catalog resolves a component name to its catalog entry.
type Catalog interface {
	Lookup(name string) (registry.ComponentNode, bool)
}

// ValidateFlow reports configuration issues per node, in canvas order,
// followed by issues on edges whose endpoints are both missing.
func ValidateFlow(f *flow.Flow, catalog Catalog) []models.NodeIssue {
	rep := newReport()
	if f == nil {
		return rep.entries
	}
	connected := f.ConnectedIDs()

	for _, node := range f.Nodes {
		if node.IsStickyNote() {
			continue
		}
		var issues []string
		if len(f.Edges) > 0 {
			if _, ok := connected[node.ID]; !ok {
				issues = append(issues, msgNotConnected)
			}
		}

		component, known := lookup(catalog, node.Data.Name)
		if known && credentialRequired(component, node.Data.Inputs) && node.CredentialID() == "" {
			issues = append(issues, msgCredentialRequired)
		}

		params := node.Data.InputParams
		if len(params) == 0 && known {
			params = component.Inputs
		}
		issues = append(issues, checkParams(params, node.Data.Inputs, catalog)...)

		if len(issues) > 0 {
			rep.add("node:"+node.ID, node.ID, node.DisplayLabel(), node.Data.Name, issues...)
		}
	}

	checkEdges(f, rep)
	return rep.entries
}

// credentialRequired also honours optional conditions on the credential,
// evaluated against the given inputs.
func credentialRequired(c registry.ComponentNode, inputs map[string]any) bool {
	if !c.RequiresCredential() {
		return false
	}
	return !isOptional(*c.Credential, scopes{newScope(inputs, -1)})
}

func lookup(catalog Catalog, name string) (registry.ComponentNode, bool) {
	if catalog == nil || name == "" {
		return registry.ComponentNode{}, false
	}
	return catalog.Lookup(name)
}

func checkParams(params []flow.InputParam, inputs map[string]any, catalog Catalog) []string {
	var issues []string
	sc := scopes{newScope(inputs, -1)}
	for _, p := range params {
		if p.Type == paramTypeCredential {
			continue
		}
		if !isVisible(p, sc) || isOptional(p, sc) {
			continue
		}
		value := inputs[p.Name]
		switch {
		case p.Type == paramTypeArray && len(p.Array) > 0:
			issues = append(issues, checkArray(p, value, inputs)...)
		case p.LoadConfig:
			issues = append(issues, checkNestedConfig(p, value, inputs, catalog)...)
		default:
			if isEmpty(value) {
				issues = append(issues, requiredMsg(p))
			}
		}
	}
	return issues
}

// checkArray validates each item of a list parameter. Item conditions are
// resolved against the node inputs first, then against the item itself.
func checkArray(p flow.InputParam, value any, inputs map[string]any) []string {
	if isEmpty(value) {
		return []string{requiredMsg(p)}
	}
	items, ok := value.([]any)
	if !ok {
		return []string{fmt.Sprintf("%s must be a list", label(p))}
	}

	var issues []string
	for i, raw := range items {
		item, _ := raw.(map[string]any)
		sc := scopes{newScope(inputs, i), newScope(item, i)}
		for _, sub := range p.Array {
			if sub.Type == paramTypeCredential || !isVisible(sub, sc) || isOptional(sub, sc) {
				continue
			}
			if isEmpty(item[sub.Name]) {
				issues = append(issues, fmt.Sprintf("%s item %d: %s is required", label(p), i+1, label(sub)))
			}
		}
	}
	return issues
}

// checkNestedConfig validates "<name>Config" against the component selected
// in the parameter, when that component is in the catalog.
func checkNestedConfig(p flow.InputParam, value any, inputs map[string]any, catalog Catalog) []string {
	selected, _ := value.(string)
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return []string{requiredMsg(p)}
	}
	component, ok := lookup(catalog, selected)
	if !ok {
		return nil
	}

	config, _ := inputs[p.Name+"Config"].(map[string]any)
	sc := scopes{newScope(config, -1)}
	var issues []string
	for _, sub := range component.Inputs {
		if sub.Type == paramTypeCredential || !isVisible(sub, sc) || isOptional(sub, sc) {
			continue
		}
		if isEmpty(config[sub.Name]) {
			issues = append(issues, fmt.Sprintf("%s configuration: %s is required", label(p), label(sub)))
		}
	}
	if credentialRequired(component, config) && isEmpty(config["credential"]) && isEmpty(config[flow.CredentialInputKey]) {
		issues = append(issues, fmt.Sprintf("%s requires a credential", label(p)))
	}
	return issues
}

// checkEdges attaches each dangling edge to the endpoint that still exists.
// Sticky notes never carry issues, so edges hanging off one are reported on
// their own.
func checkEdges(f *flow.Flow, rep *report) {
	byID := make(map[string]flow.Node, len(f.Nodes))
	for _, n := range f.Nodes {
		byID[n.ID] = n
	}

	for i, e := range f.Edges {
		source, sourceOK := byID[e.Source]
		target, targetOK := byID[e.Target]
		switch {
		case sourceOK && targetOK:
			continue
		case !sourceOK && !targetOK:
			rep.addEdge(i, e, msgEdgeBothMissing)
		case !targetOK:
			msg := "Connected to non-existent target node " + e.Target
			if source.IsStickyNote() {
				rep.addEdge(i, e, msg)
			} else {
				rep.add("node:"+source.ID, source.ID, source.DisplayLabel(), source.Data.Name, msg)
			}
		default:
			msg := "Connected to non-existent source node " + e.Source
			if target.IsStickyNote() {
				rep.addEdge(i, e, msg)
			} else {
				rep.add("node:"+target.ID, target.ID, target.DisplayLabel(), target.Data.Name, msg)
			}
		}
	}
}

func requiredMsg(p flow.InputParam) string {
	return label(p) + " is required"
}

func label(p flow.InputParam) string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// report keeps node entries in first-seen order and merges later issues
// into an existing entry.
type report struct {
	entries []models.NodeIssue
	index   map[string]int
}

func newReport() *report {
	return &report{entries: []models.NodeIssue{}, index: map[string]int{}}
}

func (r *report) add(key, nodeID, label, name string, issues ...string) {
	if i, ok := r.index[key]; ok {
		r.entries[i].Issues = append(r.entries[i].Issues, issues...)
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, models.NodeIssue{
		NodeID: nodeID,
		Label:  label,
		Name:   name,
		Issues: append([]string(nil), issues...),
	})
}

// addEdge keys standalone entries by edge position, so edges sharing an id
// or lacking one each get their own entry.
func (r *report) addEdge(i int, e flow.Edge, issue string) {
	r.add("edge#"+strconv.Itoa(i), e.ID, "Edge "+e.ID, edgeIssueName, issue)
}
