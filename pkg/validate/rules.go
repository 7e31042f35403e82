package validate

import (
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// styleKey identifies a (element kind, style) pair.
type styleKey struct {
	kind ttml.Kind
	name ttml.QName
}

// ruleSet holds the descriptor tables of one revision. Rule sets are built
// at package initialization and shared read-only by every run.
type ruleSet struct {
	core       *Table
	parameters *Table
	styles     *Table
	timing     *Table
	metadata   *Table
	local      map[ttml.Kind]*Table

	// notInherited overrides Descriptor.Inherited for specific pairs.
	notInherited map[styleKey]bool
}

var (
	ttml1Rules = &ruleSet{
		core:         ttml1Core,
		parameters:   ttml1Parameters,
		styles:       ttml1Styles,
		timing:       timingTable,
		metadata:     ttml1Metadata,
		local:        ttml1Local,
		notInherited: map[styleKey]bool{},
	}
	ttml2Rules = &ruleSet{
		core:       ttml2Core,
		parameters: ttml2Parameters,
		styles:     ttml2Styles,
		timing:     timingTable,
		metadata:   ttml2Metadata,
		local:      ttml2Local,
		notInherited: map[styleKey]bool{
			{ttml.KindRegion, tts("visibility")}: true,
		},
	}
)

func rulesFor(m *spec.Model) *ruleSet {
	if m.Revision() == spec.TTML1 {
		return ttml1Rules
	}
	return ttml2Rules
}

// StyleTable returns the style descriptors of the model's revision.
func StyleTable(m *spec.Model) *Table { return rulesFor(m).styles }

// ParameterTable returns the ttp: attribute descriptors of the model's revision.
func ParameterTable(m *spec.Model) *Table { return rulesFor(m).parameters }

// TimingTable returns the timing attribute descriptors.
func TimingTable(m *spec.Model) *Table { return rulesFor(m).timing }

// MetadataTable returns the ttm: attribute descriptors of the model's revision.
func MetadataTable(m *spec.Model) *Table { return rulesFor(m).metadata }

// CoreTable returns the core attribute descriptors of the model's revision.
func CoreTable(m *spec.Model) *Table { return rulesFor(m).core }
