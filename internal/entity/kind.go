package entity

// Kind identifies the base kind of a drawing entity. The set is closed:
// anything the store does not recognize is KindUnknown.
type Kind string

const (
	KindLine           Kind = "Line"
	KindCircle         Kind = "Circle"
	KindArc            Kind = "Arc"
	KindPolyline       Kind = "Polyline"
	KindHatch          Kind = "Hatch"
	KindText           Kind = "Text"
	KindMText          Kind = "MText"
	KindDimension      Kind = "Dimension"
	KindBlockReference Kind = "BlockReference"
	KindLayout         Kind = "Layout"
	KindLayer          Kind = "Layer"
	KindUnknown        Kind = "Unknown"
)

// Category labels shown in the Category column. Categories refine kinds:
// a revision cloud is structurally a polyline, a dynamic block or xref is
// structurally a block reference.
const (
	CategoryLine           = "Line"
	CategoryCircle         = "Circle"
	CategoryArc            = "Arc"
	CategoryPolyline       = "Polyline"
	CategoryRevisionCloud  = "Revision Cloud"
	CategoryHatch          = "Hatch"
	CategoryText           = "Text"
	CategoryMText          = "MText"
	CategoryDimension      = "Dimension"
	CategoryBlockReference = "Block Reference"
	CategoryDynamicBlock   = "Dynamic Block"
	CategoryXRef           = "XRef"
	CategoryLayout         = "Layout"
	CategoryLayer          = "Layer"
	CategoryUnknown        = "Unknown"
)

// knownKinds maps stored kind strings to Kind values.
var knownKinds = map[string]Kind{
	string(KindLine):           KindLine,
	string(KindCircle):         KindCircle,
	string(KindArc):            KindArc,
	string(KindPolyline):       KindPolyline,
	string(KindHatch):          KindHatch,
	string(KindText):           KindText,
	string(KindMText):          KindMText,
	string(KindDimension):      KindDimension,
	string(KindBlockReference): KindBlockReference,
	string(KindLayout):         KindLayout,
	string(KindLayer):          KindLayer,
}

// ParseKind maps a stored kind string to a Kind, falling back to KindUnknown.
func ParseKind(s string) Kind {
	if k, ok := knownKinds[s]; ok {
		return k
	}
	return KindUnknown
}

// IsBlockFamily reports whether a category belongs to the block-reference
// family (Block Reference, Dynamic Block, XRef). Attribute columns are
// preserved for batches containing any of these even when empty.
func IsBlockFamily(category string) bool {
	switch category {
	case CategoryBlockReference, CategoryDynamicBlock, CategoryXRef:
		return true
	}
	return false
}
