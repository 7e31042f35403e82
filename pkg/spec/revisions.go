package spec

import "github.com/adammathes/ttverify/pkg/ttml"

const (
	profileNS   = "http://www.w3.org/ns/ttml/profile/"
	featureNS   = "http://www.w3.org/ns/ttml/feature/"
	extensionNS = "http://www.w3.org/ns/ttml/extension/"
)

var namespaces = Namespaces{
	TT:        ttml.NSTT,
	Parameter: ttml.NSParameter,
	Styling:   ttml.NSStyling,
	Metadata:  ttml.NSMetadata,
	Profile:   profileNS,
	Feature:   featureNS,
	Extension: extensionNS,
}

var ttml1Features = []string{
	"#animation", "#backgroundColor", "#backgroundColor-block", "#backgroundColor-inline",
	"#backgroundColor-region", "#bidi", "#cellResolution", "#clockMode", "#clockMode-gps",
	"#clockMode-local", "#clockMode-utc", "#color", "#content", "#core", "#direction",
	"#display", "#display-block", "#display-inline", "#display-region", "#displayAlign",
	"#dropMode", "#dropMode-dropNTSC", "#dropMode-dropPAL", "#dropMode-nonDrop", "#extent",
	"#extent-region", "#extent-root", "#fontFamily", "#fontFamily-generic",
	"#fontFamily-non-generic", "#fontSize", "#fontSize-anamorphic", "#fontSize-isomorphic",
	"#fontStyle", "#fontStyle-italic", "#fontStyle-oblique", "#fontWeight", "#fontWeight-bold",
	"#frameRate", "#frameRateMultiplier", "#layout", "#length", "#length-cell", "#length-em",
	"#length-integer", "#length-negative", "#length-percentage", "#length-pixel",
	"#length-positive", "#length-real", "#lineBreak-uax14", "#lineHeight", "#markerMode",
	"#markerMode-continuous", "#markerMode-discontinuous", "#metadata", "#nested-div",
	"#nested-span", "#opacity", "#origin", "#overflow", "#overflow-scroll", "#padding",
	"#padding-1", "#padding-2", "#padding-3", "#padding-4", "#pixelAspectRatio",
	"#presentation", "#profile", "#showBackground", "#structure", "#styling",
	"#styling-chained", "#styling-inheritance-content", "#styling-inheritance-region",
	"#styling-inline", "#styling-nested", "#styling-referential", "#subFrameRate",
	"#textAlign", "#textAlign-absolute", "#textAlign-relative", "#textDecoration",
	"#textDecoration-over", "#textDecoration-through", "#textDecoration-under",
	"#textOutline", "#textOutline-blurred", "#textOutline-unblurred", "#tickRate",
	"#timeBase-clock", "#timeBase-media", "#timeBase-smpte", "#timeContainer", "#time-clock",
	"#time-clock-with-frames", "#time-offset", "#time-offset-with-frames",
	"#time-offset-with-ticks", "#timing", "#transformation", "#unicodeBidi", "#visibility",
	"#visibility-block", "#visibility-inline", "#visibility-region", "#wrapOption",
	"#writingMode", "#writingMode-horizontal", "#writingMode-horizontal-lr",
	"#writingMode-horizontal-rl", "#writingMode-vertical", "#zIndex",
}

var ttml2Features = []string{
	"#animate-fill", "#animate-minimal", "#animation-out-of-line", "#animation-version-2",
	"#audio", "#audio-description", "#audio-speech", "#backgroundClip", "#backgroundExtent",
	"#backgroundImage", "#backgroundImage-external", "#backgroundOrigin",
	"#backgroundPosition", "#backgroundRepeat", "#base", "#base-general", "#base-version-2",
	"#bpd", "#border", "#chunk", "#condition", "#contentProfiles", "#disparity",
	"#display-inlineBlock", "#displayAlign-justify", "#displayAlign-relative",
	"#embedded-audio", "#embedded-data", "#embedded-font", "#embedded-image",
	"#extent-auto", "#extent-contain", "#extent-cover", "#extent-length", "#extent-measure",
	"#font", "#fontKerning", "#fontSelectionStrategy", "#fontShear", "#fontVariant",
	"#gain", "#image", "#initial", "#ipd", "#letterSpacing", "#lineShear",
	"#luminanceGain", "#opacity-version-2", "#pan", "#pitch", "#position",
	"#processorProfiles", "#profile-full-version-2", "#profile-version-2", "#resources",
	"#ruby", "#rubyAlign", "#rubyPosition", "#rubyReserve", "#shear", "#source", "#speak",
	"#textCombine", "#textEmphasis", "#textOrientation", "#textShadow", "#unicodeBidi-isolate",
	"#version", "#visibility-version-2", "#writingMode-vertical-rl", "#zIndex-version-2",
}

var ttml1Elements = ttml.Kinds(
	ttml.KindTT, ttml.KindHead, ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan,
	ttml.KindBr, ttml.KindLayout, ttml.KindRegion, ttml.KindStyling, ttml.KindStyle,
	ttml.KindAnimation, ttml.KindSet, ttml.KindMetadata, ttml.KindAgent, ttml.KindName, ttml.KindActor,
	ttml.KindTitle, ttml.KindDesc, ttml.KindCopyright, ttml.KindProfile, ttml.KindFeatures,
	ttml.KindFeature, ttml.KindExtensions, ttml.KindExtension)

var ttml1 = &Model{
	rev:        TTML1,
	ns:         namespaces,
	ids:        []ttml.QName{ttml.XMLID},
	refs:       baseReferences(),
	profiles:   set(profileNS, "dfxp-transformation", "dfxp-presentation", "dfxp-full"),
	features:   set(featureNS, ttml1Features...),
	extensions: map[string]bool{},
	resources:  map[ResourceKind]map[string]bool{},
	elements:   ttml1Elements,
}

var ttml2 = &Model{
	rev:  TTML2,
	ns:   namespaces,
	ids:  []ttml.QName{ttml.XMLID},
	refs: ttml2References(),
	profiles: merge(ttml1.profiles, set(profileNS,
		"ttml2-transformation", "ttml2-presentation", "ttml2-full")),
	features: merge(ttml1.features, set(featureNS, ttml2Features...)),
	extensions: set(extensionNS,
		"#ttml2-audio-extras", "#ttml2-image-extras"),
	resources: map[ResourceKind]map[string]bool{
		ResourceImage: {"image/png": true, "image/jpeg": true, "image/gif": true, "image/svg+xml": true},
		ResourceFont: {"font/otf": true, "font/ttf": true, "font/woff": true, "font/woff2": true,
			"font/collection": true, "application/font-sfnt": true, "application/font-woff": true},
		ResourceAudio: {"audio/mpeg": true, "audio/mp4": true, "audio/wav": true, "audio/ogg": true,
			"audio/flac": true, "audio/webm": true},
		ResourceData: {"application/octet-stream": true, "text/plain": true, "application/ssml+xml": true},
	},
	elements: ttml1Elements.Union(ttml.Kinds(
		ttml.KindInitial, ttml.KindAnimate, ttml.KindResources, ttml.KindImage,
		ttml.KindFont, ttml.KindAudio, ttml.KindData, ttml.KindSource, ttml.KindChunk)),
}

func headChain(ks ...ttml.Kind) []ttml.Kind {
	return append(ks, ttml.KindHead, ttml.KindTT)
}

func baseReferences() map[ttml.QName]RefConstraint {
	return map[ttml.QName]RefConstraint{
		ttml.AttrRegion: {
			Target:    ttml.KindRegion,
			Ancestors: [][]ttml.Kind{headChain(ttml.KindLayout)},
		},
		ttml.AttrStyle: {
			Target: ttml.KindStyle,
			Ancestors: [][]ttml.Kind{
				headChain(ttml.KindStyling),
				headChain(ttml.KindRegion, ttml.KindLayout),
			},
			Multiple: true,
		},
		ttml.Name(ttml.NSMetadata, "agent"): {
			Target: ttml.KindAgent,
			Ancestors: [][]ttml.Kind{
				headChain(ttml.KindMetadata),
			},
			Multiple: true,
		},
		ttml.AttrAgent: {
			Target: ttml.KindAgent,
		},
	}
}

func ttml2References() map[ttml.QName]RefConstraint {
	refs := baseReferences()
	refs[ttml.AttrAnimate] = RefConstraint{
		Target:    ttml.KindAnimate,
		Ancestors: [][]ttml.Kind{headChain(ttml.KindAnimation)},
		Multiple:  true,
	}
	// agents may also be declared inside metadata in body content
	c := refs[ttml.Name(ttml.NSMetadata, "agent")]
	c.Ancestors = nil
	refs[ttml.Name(ttml.NSMetadata, "agent")] = c
	return refs
}
