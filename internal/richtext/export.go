package richtext

import (
	"log/slog"

	"golang.org/x/net/html"
)

// ExportConfig wires the export rewrite pass to the run's resolver tables.
type ExportConfig struct {
	// ResolveItemCodename maps an internal item ID to its codename.
	ResolveItemCodename func(id string) (string, error)
	// ResolveAssetCodename maps an internal asset ID to its codename.
	ResolveAssetCodename func(id string) (string, error)
	// ReplaceInvalidLinks degrades links to unresolvable items to plain
	// text instead of failing the element transform.
	ReplaceInvalidLinks bool
}

// ExportProcessor rewrites rich-text markup from ID-addressed environment
// form to codename-addressed portable form.
type ExportProcessor struct {
	cfg    ExportConfig
	logger *slog.Logger
}

// NewExportProcessor creates an export rewrite pass.
func NewExportProcessor(cfg ExportConfig, logger *slog.Logger) *ExportProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportProcessor{cfg: cfg, logger: logger}
}

// ExportResult is the outcome of one export rewrite.
type ExportResult struct {
	// HTML is the rewritten markup.
	HTML string
	// ComponentIDs lists, in document order, the IDs of markers that were
	// rewritten from linked-item to component addressing. The caller
	// extracts the matching component payloads into standalone components.
	ComponentIDs []string
}

// Process rewrites one rich-text value. A reference to an item or asset
// that cannot be resolved is a hard error, except item links when
// ReplaceInvalidLinks is set.
func (p *ExportProcessor) Process(raw string) (ExportResult, error) {
	nodes, err := parseFragment(raw)
	if err != nil {
		return ExportResult{}, err
	}

	var result ExportResult
	var failure error
	fail := func(err error) action {
		if failure == nil {
			failure = err
		}
		return keep
	}

	nodes = walk(nodes, func(n *html.Node) action {
		switch {
		case isObjectMarker(n):
			dt, _ := getAttr(n, attrDataType)
			if dt != dataTypeItem {
				return keep
			}
			id, ok := getAttr(n, attrDataID)
			if !ok {
				return keep
			}
			if rel, _ := getAttr(n, attrDataRel); rel == relComponent {
				// Structural component: the ID addresses a component
				// payload, not an item. The ID doubles as the portable
				// codename and the payload is handed off for extraction.
				setAttr(n, attrDataType, dataTypeComponent)
				removeAttr(n, attrDataRel)
				renameAttr(n, attrDataID, attrDataCodename, id)
				result.ComponentIDs = append(result.ComponentIDs, id)
				return keep
			}
			codename, err := p.cfg.ResolveItemCodename(id)
			if err != nil {
				return fail(err)
			}
			renameAttr(n, attrDataID, attrDataCodename, codename)
			return keep

		default:
			if id, ok := getAttr(n, attrItemID); ok {
				codename, err := p.cfg.ResolveItemCodename(id)
				if err != nil {
					if p.cfg.ReplaceInvalidLinks {
						p.logger.Warn("dropping link to unresolvable item", "item_id", id)
						return unwrapNode
					}
					return fail(err)
				}
				renameAttr(n, attrItemID, attrItemCodename, codename)
			}
			if id, ok := getAttr(n, attrAssetID); ok {
				codename, err := p.cfg.ResolveAssetCodename(id)
				if err != nil {
					return fail(err)
				}
				renameAttr(n, attrAssetID, attrAssetCodename, codename)
			}
			if _, ok := getAttr(n, attrImageID); ok {
				removeAttr(n, attrImageID)
			}
			return keep
		}
	})

	if failure != nil {
		return ExportResult{}, failure
	}

	rendered, err := renderFragment(nodes)
	if err != nil {
		return ExportResult{}, err
	}
	result.HTML = rendered
	return result, nil
}
