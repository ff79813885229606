// Package richtext rewrites the reference markup embedded in rich-text
// element values between the ID-addressed form the environment stores and
// the codename-addressed portable form. The rewrite passes operate on a
// parsed HTML fragment tree rather than on strings, so attribute order and
// whitespace variation in the source markup cannot break them.
package richtext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker vocabulary used by the hosted backend.
const (
	objectTypeValue = "application/kenticocloud"

	attrDataType       = "data-type"
	attrDataRel        = "data-rel"
	attrDataID         = "data-id"
	attrDataCodename   = "data-codename"
	attrDataExternalID = "data-external-id"

	attrItemID         = "data-item-id"
	attrItemCodename   = "data-item-codename"
	attrItemExternalID = "data-item-external-id"

	attrAssetID         = "data-asset-id"
	attrAssetCodename   = "data-asset-codename"
	attrAssetExternalID = "data-asset-external-id"

	// Legacy image addressing, stripped on export.
	attrImageID = "data-image-id"

	dataTypeItem      = "item"
	dataTypeComponent = "component"
	relComponent      = "component"
)

// parseFragment parses a rich-text value as a body fragment.
func parseFragment(raw string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse rich text: %w", err)
	}
	return nodes, nil
}

// renderFragment renders fragment nodes back to markup.
func renderFragment(nodes []*html.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("render rich text: %w", err)
		}
	}
	return b.String(), nil
}

// collapseJoin drops the doubled space left where a node sitting between
// two text nodes was removed. Space runs already present in the source text
// stay untouched.
func collapseJoin(prev, next *html.Node) {
	if prev == nil || next == nil || prev.Type != html.TextNode || next.Type != html.TextNode {
		return
	}
	if strings.HasSuffix(prev.Data, " ") && strings.HasPrefix(next.Data, " ") {
		next.Data = strings.TrimLeft(next.Data, " ")
	}
}

// action tells walk what to do with a visited node.
type action int

const (
	// keep leaves the node in place.
	keep action = iota
	// remove drops the node and everything under it.
	remove
	// unwrapNode drops the tag but keeps its children in place.
	unwrapNode
)

// walk visits every element node in the fragment depth-first and applies
// the action visit returns. Children of an unwrapped node are visited
// before the unwrap happens. Removing a node between two text nodes
// collapses the space doubled at the join.
func walk(nodes []*html.Node, visit func(n *html.Node) action) []*html.Node {
	var kept []*html.Node
	for i, n := range nodes {
		switch walkNode(n, visit) {
		case keep:
			kept = append(kept, n)
		case unwrapNode:
			for n.FirstChild != nil {
				child := n.FirstChild
				n.RemoveChild(child)
				kept = append(kept, child)
			}
		case remove:
			if len(kept) > 0 && i+1 < len(nodes) {
				collapseJoin(kept[len(kept)-1], nodes[i+1])
			}
		}
	}
	return kept
}

func walkNode(n *html.Node, visit func(n *html.Node) action) action {
	act := keep
	if n.Type == html.ElementNode {
		act = visit(n)
	}
	if act == remove {
		return remove
	}
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		switch walkNode(child, visit) {
		case remove:
			prev := child.PrevSibling
			n.RemoveChild(child)
			collapseJoin(prev, next)
		case unwrapNode:
			for child.FirstChild != nil {
				grand := child.FirstChild
				child.RemoveChild(grand)
				n.InsertBefore(grand, child)
			}
			n.RemoveChild(child)
		case keep:
		}
		child = next
	}
	return act
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// renameAttr replaces the attribute key in place, keeping its position so
// the rendered output preserves attribute order.
func renameAttr(n *html.Node, oldKey, newKey, val string) {
	for i, a := range n.Attr {
		if a.Key == oldKey {
			n.Attr[i].Key = newKey
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: newKey, Val: val})
}

// isObjectMarker reports whether n is a reference marker object.
func isObjectMarker(n *html.Node) bool {
	if n.DataAtom != atom.Object && n.Data != "object" {
		return false
	}
	t, ok := getAttr(n, "type")
	return ok && t == objectTypeValue
}

// References is the set of entity IDs a rich-text value points at.
type References struct {
	ItemIDs  []string
	AssetIDs []string
}

// CollectReferences extracts every referenced item and asset ID from a
// rich-text value in environment form: object markers, item links and
// asset figures. The caller recurses into component payloads separately.
func CollectReferences(raw string) (References, error) {
	nodes, err := parseFragment(raw)
	if err != nil {
		return References{}, err
	}

	var refs References
	seenItems := make(map[string]bool)
	seenAssets := make(map[string]bool)

	walk(nodes, func(n *html.Node) action {
		if isObjectMarker(n) {
			dt, _ := getAttr(n, attrDataType)
			rel, _ := getAttr(n, attrDataRel)
			// Component markers carry payload IDs, not item references.
			if dt == dataTypeItem && rel != relComponent {
				if id, ok := getAttr(n, attrDataID); ok && !seenItems[id] {
					seenItems[id] = true
					refs.ItemIDs = append(refs.ItemIDs, id)
				}
			}
		}
		if id, ok := getAttr(n, attrItemID); ok && !seenItems[id] {
			seenItems[id] = true
			refs.ItemIDs = append(refs.ItemIDs, id)
		}
		if id, ok := getAttr(n, attrAssetID); ok && !seenAssets[id] {
			seenAssets[id] = true
			refs.AssetIDs = append(refs.AssetIDs, id)
		}
		return keep
	})

	return refs, nil
}
