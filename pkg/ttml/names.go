package ttml

import (
	"strconv"
	"strings"
)

// Kind identifies the element type of a node.
type Kind int

const (
	KindInvalid Kind = iota
	KindUnknown      // unrecognized element in a timed text namespace
	KindForeign      // element in a foreign namespace
	KindTT
	KindHead
	KindBody
	KindDiv
	KindP
	KindSpan
	KindBr
	KindLayout
	KindRegion
	KindStyling
	KindStyle
	KindInitial
	KindAnimation
	KindSet
	KindAnimate
	KindMetadata
	KindAgent
	KindName
	KindActor
	KindTitle
	KindDesc
	KindCopyright
	KindProfile
	KindFeatures
	KindFeature
	KindExtensions
	KindExtension
	KindResources
	KindImage
	KindFont
	KindAudio
	KindData
	KindSource
	KindChunk
	kindCount
)

type kindInfo struct {
	space string
	local string
}

var kinds = [kindCount]kindInfo{
	KindTT:         {NSTT, "tt"},
	KindHead:       {NSTT, "head"},
	KindBody:       {NSTT, "body"},
	KindDiv:        {NSTT, "div"},
	KindP:          {NSTT, "p"},
	KindSpan:       {NSTT, "span"},
	KindBr:         {NSTT, "br"},
	KindLayout:     {NSTT, "layout"},
	KindRegion:     {NSTT, "region"},
	KindStyling:    {NSTT, "styling"},
	KindStyle:      {NSTT, "style"},
	KindInitial:    {NSTT, "initial"},
	KindAnimation:  {NSTT, "animation"},
	KindSet:        {NSTT, "set"},
	KindAnimate:    {NSTT, "animate"},
	KindMetadata:   {NSTT, "metadata"},
	KindAgent:      {NSMetadata, "agent"},
	KindName:       {NSMetadata, "name"},
	KindActor:      {NSMetadata, "actor"},
	KindTitle:      {NSMetadata, "title"},
	KindDesc:       {NSMetadata, "desc"},
	KindCopyright:  {NSMetadata, "copyright"},
	KindProfile:    {NSParameter, "profile"},
	KindFeatures:   {NSParameter, "features"},
	KindFeature:    {NSParameter, "feature"},
	KindExtensions: {NSParameter, "extensions"},
	KindExtension:  {NSParameter, "extension"},
	KindResources:  {NSTT, "resources"},
	KindImage:      {NSTT, "image"},
	KindFont:       {NSTT, "font"},
	KindAudio:      {NSTT, "audio"},
	KindData:       {NSTT, "data"},
	KindSource:     {NSTT, "source"},
	KindChunk:      {NSTT, "chunk"},
}

var kindByName = func() map[QName]Kind {
	m := make(map[QName]Kind, kindCount)
	for k := KindTT; k < kindCount; k++ {
		m[QName{kinds[k].space, kinds[k].local}] = k
	}
	return m
}()

// KindOf maps an element name to its kind.
func KindOf(name QName) Kind {
	if k, ok := kindByName[name]; ok {
		return k
	}
	switch name.Space {
	case NSTT, NSParameter, NSStyling, NSMetadata:
		return KindUnknown
	}
	return KindForeign
}

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

// QName returns the canonical element name for k.
func (k Kind) QName() QName {
	if k < KindTT || k >= kindCount {
		return QName{}
	}
	return QName{kinds[k].space, kinds[k].local}
}

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "unknown"
	case KindForeign:
		return "foreign"
	}
	if !k.Valid() {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return k.QName().String()
}

// KindMask is a bitmask of element kinds.
type KindMask uint64

// Kinds builds a set from its members.
func Kinds(ks ...Kind) KindMask {
	var s KindMask
	for _, k := range ks {
		s |= 1 << uint(k)
	}
	return s
}

// Has reports membership.
func (s KindMask) Has(k Kind) bool { return s&(1<<uint(k)) != 0 }

// Union returns s ∪ o.
func (s KindMask) Union(o KindMask) KindMask { return s | o }

func (s KindMask) String() string {
	var names []string
	for k := KindInvalid; k < kindCount; k++ {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return strings.Join(names, " ")
}

// Common groupings.
var (
	ContentKinds   = Kinds(KindBody, KindDiv, KindP, KindSpan, KindBr)
	BlockKinds     = Kinds(KindBody, KindDiv, KindP)
	InlineKinds    = Kinds(KindSpan, KindBr)
	AnimationKinds = Kinds(KindSet, KindAnimate)
	MetadataKinds  = Kinds(KindMetadata, KindAgent, KindName, KindActor, KindTitle, KindDesc, KindCopyright)
	ResourceKinds  = Kinds(KindImage, KindFont, KindAudio, KindData, KindSource, KindChunk)
)

// Frequently used attribute names.
var (
	XMLID    = Name(NSXML, "id")
	XMLLang  = Name(NSXML, "lang")
	XMLSpace = Name(NSXML, "space")
	XMLBase  = Name(NSXML, "base")

	AttrBegin         = Local("begin")
	AttrEnd           = Local("end")
	AttrDur           = Local("dur")
	AttrTimeContainer = Local("timeContainer")
	AttrRegion        = Local("region")
	AttrStyle         = Local("style")
	AttrAnimate       = Local("animate")
	AttrSrc           = Local("src")
	AttrType          = Local("type")
	AttrValue         = Local("value")
	AttrUse           = Local("use")
	AttrAgent         = Local("agent")
	AttrCombine       = Local("combine")
	AttrDesignator    = Local("designator")
	AttrFormat        = Local("format")
	AttrCondition     = Local("condition")
)
