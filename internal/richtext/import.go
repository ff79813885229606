package richtext

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
)

// ImportConfig wires the import rewrite pass to the target environment's
// identity map.
type ImportConfig struct {
	// ResolveItemReference maps an item codename to the reference the
	// target accepts: existing ID or external ID for forward references.
	ResolveItemReference func(codename string) kontent.ObjectReference
	// ResolveAssetReference maps an asset codename the same way; the
	// second return is false when the asset is entirely unknown.
	ResolveAssetReference func(codename string) (kontent.ObjectReference, bool)
}

// ImportProcessor rewrites rich-text markup from portable codename form
// back to the ID-addressed form the target environment stores.
type ImportProcessor struct {
	cfg    ImportConfig
	logger *slog.Logger
}

// NewImportProcessor creates an import rewrite pass.
func NewImportProcessor(cfg ImportConfig, logger *slog.Logger) *ImportProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportProcessor{cfg: cfg, logger: logger}
}

// Process rewrites one rich-text value to environment form. Unresolvable
// references are logged and dropped rather than blocking the migration.
func (p *ImportProcessor) Process(raw string) (string, error) {
	nodes, err := parseFragment(raw)
	if err != nil {
		return "", err
	}

	nodes = walk(nodes, func(n *html.Node) action {
		switch {
		case isObjectMarker(n):
			dt, _ := getAttr(n, attrDataType)
			codename, ok := getAttr(n, attrDataCodename)
			if !ok {
				return keep
			}
			switch dt {
			case dataTypeComponent:
				// Components go back to item-addressed form with the
				// identifier derived from the codename.
				setAttr(n, attrDataType, dataTypeItem)
				renameAttr(n, attrDataCodename, attrDataID, resolver.ComponentID(codename))
				setAttr(n, attrDataRel, relComponent)
			case dataTypeItem:
				ref := p.cfg.ResolveItemReference(codename)
				if ref.ID != "" {
					renameAttr(n, attrDataCodename, attrDataID, ref.ID)
				} else {
					renameAttr(n, attrDataCodename, attrDataExternalID, ref.ExternalID)
				}
			}
			return keep

		default:
			if codename, ok := getAttr(n, attrItemCodename); ok {
				ref := p.cfg.ResolveItemReference(codename)
				if ref.ID != "" {
					renameAttr(n, attrItemCodename, attrItemID, ref.ID)
				} else {
					renameAttr(n, attrItemCodename, attrItemExternalID, ref.ExternalID)
				}
			}
			if codename, ok := getAttr(n, attrAssetCodename); ok {
				ref, known := p.cfg.ResolveAssetReference(codename)
				if !known {
					p.logger.Warn("dropping reference to unknown asset", "asset_codename", codename)
					return remove
				}
				if ref.ID != "" {
					renameAttr(n, attrAssetCodename, attrAssetID, ref.ID)
				} else {
					renameAttr(n, attrAssetCodename, attrAssetExternalID, ref.ExternalID)
				}
			}
			return keep
		}
	})

	return renderFragment(nodes)
}
