package validate

import (
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

var roles = map[string]bool{
	"action": true, "caption": true, "description": true, "dialog": true,
	"expletive": true, "kinesic": true, "lyrics": true, "music": true,
	"narration": true, "quality": true, "sound": true, "source": true,
	"suppressed": true, "reproduction": true, "thought": true, "title": true,
	"transcription": true,
}

// roleValue accepts a list of standard roles and "x-" extension roles.
var roleValue = text(func(_ *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) == 0 {
		return false
	}
	for _, r := range f {
		if !roles[r] && !(strings.HasPrefix(r, "x-") && len(r) > 2) {
			return false
		}
	}
	return true
})

var ttml1Metadata = NewBuilder("ttml1 metadata", ttml.NSMetadata).Add(
	Descriptor{Name: ttml.Name(ttml.NSMetadata, "role"), Verifier: roleValue, On: contentAndRegion},
	Descriptor{Name: ttml.Name(ttml.NSMetadata, "agent"), Verifier: idrefs, On: contentAndRegion},
).MustBuild()

var ttml2Metadata = ttml1Metadata.MustApply("ttml2 metadata", Delta{
	Replace: []Descriptor{
		{Name: ttml.Name(ttml.NSMetadata, "role"), Verifier: roleValue,
			On: contentAndRegion.Union(ttml.Kinds(ttml.KindImage, ttml.KindAudio))},
	},
})

// VerifyMetadataAttributes verifies the ttm: attributes of node.
func VerifyMetadataAttributes(ctx *Context, node *ttml.Node) bool {
	return VerifyAttributes(ctx, node, MetadataTable(ctx.Model))
}

// VerifyMetadataElement applies the structural rules of a metadata element.
func VerifyMetadataElement(ctx *Context, node *ttml.Node) bool {
	switch node.Kind {
	case ttml.KindActor:
		return verifyActor(ctx, node)
	case ttml.KindName:
		if strings.TrimSpace(node.TextContent()) == "" {
			return ctx.warnAlways(node.Location, report.EmptyAgentName)
		}
	case ttml.KindAgent:
		if len(node.ElementsOf(ttml.KindName)) == 0 {
			ctx.info(node.Location, report.MissingAgentName, node.ID())
		}
	}
	return true
}

// verifyActor requires an actor to describe a character agent and to
// reference an agent that is not itself a character.
func verifyActor(ctx *Context, node *ttml.Node) bool {
	ok := true
	p := node.Parent
	if p == nil || p.Kind != ttml.KindAgent {
		ok = ctx.fail(node.Location, report.ActorPlacement)
	} else if t, _ := p.Text(ttml.AttrType); t != "character" {
		ok = ctx.fail(node.Location, report.ActorPlacement)
	}
	id, present := node.Text(ttml.AttrAgent)
	if !present {
		return ok
	}
	if target, found := ctx.Element(strings.TrimSpace(id)); found && target.Kind == ttml.KindAgent {
		if t, _ := target.Text(ttml.AttrType); t == "character" {
			ok = ctx.fail(node.Location, report.ActorAgentType, id, t)
		}
	}
	return ok
}
