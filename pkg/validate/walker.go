package validate

import (
	"fmt"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// VerifyTree runs every semantic check over the tree rooted at root in one
// depth-first pass. The walk never stops early; the result is false if any
// check failed.
func VerifyTree(ctx *Context, root *ttml.Node) bool {
	ctx.indexIDs(root)
	ctx.Params = ResolveParameters(root)
	ctx.Log.Debug().
		Int("frame_rate", ctx.Params.FrameRate).
		Str("time_base", ctx.Params.TimeBase).
		Int("ids", len(ctx.ids)).
		Msg("resolved document parameters")
	return visit(ctx, root)
}

func visit(ctx *Context, node *ttml.Node) bool {
	switch {
	case node.Kind == ttml.KindForeign:
		return true
	case node.Kind == ttml.KindUnknown, !ctx.Model.SupportsElement(node.Kind):
		ok := ctx.fail(node.Location, report.UnknownElement, node.Name)
		for _, c := range node.Elements() {
			ok = visit(ctx, c) && ok
		}
		return ok
	}
	ctx.Log.Trace().Str("element", node.Name.String()).Str("at", node.Location.String()).Msg("visit")

	ok := VerifyParameters(ctx, node)
	ok = VerifyMetadataAttributes(ctx, node) && ok
	ok = VerifyStyles(ctx, node) && ok
	ok = VerifyTiming(ctx, node) && ok
	ok = verifyForeign(ctx, node) && ok

	for _, c := range node.Elements() {
		ok = visit(ctx, c) && ok
	}
	for _, c := range node.Elements() {
		if ttml.MetadataKinds.Has(c.Kind) {
			ok = VerifyMetadataElement(ctx, c) && ok
		}
	}
	return verifyElement(ctx, node) && ok
}

func verifyForeign(ctx *Context, node *ttml.Node) bool {
	rs := rulesFor(ctx.Model)
	ok := VerifyForeignAttributes(ctx, node, rs.parameters)
	ok = VerifyForeignAttributes(ctx, node, rs.styles) && ok
	ok = VerifyForeignAttributes(ctx, node, rs.metadata) && ok
	return verifyUnqualifiedAttributes(ctx, node) && ok
}

// verifyElement applies the checks that concern an element as a whole
// rather than one of its attributes.
func verifyElement(ctx *Context, node *ttml.Node) bool {
	switch node.Kind {
	case ttml.KindTT:
		return verifyProfileDeclarations(ctx, node)
	case ttml.KindProfile:
		return verifyProfileElement(ctx, node)
	case ttml.KindFeatures, ttml.KindExtensions:
		return verifyDesignations(ctx, node)
	case ttml.KindStyle:
		return verifyStyleChain(ctx, node)
	case ttml.KindImage, ttml.KindFont, ttml.KindAudio, ttml.KindData, ttml.KindSource:
		return verifyResource(ctx, node)
	case ttml.KindHead, ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan, ttml.KindBr,
		ttml.KindLayout, ttml.KindRegion, ttml.KindStyling, ttml.KindInitial,
		ttml.KindAnimation, ttml.KindSet, ttml.KindAnimate,
		ttml.KindMetadata, ttml.KindAgent, ttml.KindName, ttml.KindActor,
		ttml.KindTitle, ttml.KindDesc, ttml.KindCopyright,
		ttml.KindFeature, ttml.KindExtension, ttml.KindResources, ttml.KindChunk:
		return true
	}
	panic(fmt.Sprintf("validate: no element checks for %v", node.Kind))
}

// FindBindingElement returns the node of the tree rooted at root that was
// bound from raw, or nil.
func FindBindingElement(root *ttml.Node, raw any) *ttml.Node {
	if root == nil || raw == nil {
		return nil
	}
	if root.Raw != nil && root.Raw == raw {
		return root
	}
	for _, c := range root.Children {
		e, isElem := c.Element()
		if !isElem {
			continue
		}
		if found := FindBindingElement(e, raw); found != nil {
			return found
		}
	}
	return nil
}

// LocationOf returns the source location of the node bound from raw.
func LocationOf(root *ttml.Node, raw any) (ttml.Location, bool) {
	if n := FindBindingElement(root, raw); n != nil {
		return n.Location, true
	}
	return ttml.Location{}, false
}

// SnapshotChecker verifies one element of a snapshot document against the
// source element it was derived from.
type SnapshotChecker interface {
	CheckSnapshot(ctx *Context, source, snapshot *ttml.Node) bool
}

// NopSnapshotChecker accepts every snapshot element.
type NopSnapshotChecker struct{}

func (NopSnapshotChecker) CheckSnapshot(*Context, *ttml.Node, *ttml.Node) bool { return true }

// VerifySnapshots binds the elements of each snapshot to root by
// identifier and hands every bound pair to checker. Snapshot elements with
// an identifier unknown to root are reported.
func VerifySnapshots(ctx *Context, root *ttml.Node, snapshots []*ttml.Node, checker SnapshotChecker) bool {
	if checker == nil {
		checker = NopSnapshotChecker{}
	}
	if ctx.ids == nil {
		ctx.indexIDs(root)
	}
	ok := true
	for i, snap := range snapshots {
		if snap == nil {
			continue
		}
		ctx.Log.Debug().Int("snapshot", i).Msg("verifying snapshot")
		snap.Walk(func(n *ttml.Node) bool {
			id := n.ID()
			if id == "" {
				return true
			}
			source, bound := ctx.Element(id)
			if !bound {
				ok = ctx.warn(report.WarnUnboundSnapshot, n.Location, report.UnboundSnapshotElement, id) && ok
				return true
			}
			ok = checker.CheckSnapshot(ctx, source, n) && ok
			return true
		})
	}
	return ok
}
