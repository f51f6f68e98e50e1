package entity

// Entity is one drawing object as loaded from the store. Fields that do
// not apply to a kind are zero-valued; the record builder decides which
// columns each kind contributes.
type Entity struct {
	// Handle is the persistent hexadecimal handle, unique within a document.
	Handle string

	// DocumentPath is the absolute path of the owning document.
	DocumentPath string

	// Kind is the base structural kind.
	Kind Kind

	// Name holds the block definition name for block references, the tab
	// name for layouts, and the layer name for layer records.
	Name string

	// Layer, Color and Linetype describe the owning entity's display
	// properties. For layer records they describe the layer itself.
	Layer    string
	Color    string
	Linetype string

	// Layout is the tab name of the owning layout, or "" when the entity
	// lives inside a block definition rather than on a layout.
	Layout string

	// OwnerBlock is the name of the block definition that owns this
	// entity, or "" for entities placed directly on a layout.
	OwnerBlock string

	// Contents holds text/mtext body or dimension measurement text.
	Contents string

	// Dynamic marks a block reference backed by a dynamic block definition.
	Dynamic bool

	// External marks a block reference that resolves to an external file (xref).
	External bool

	// Tags is the comma-splittable tag list.
	Tags []string

	// Attributes maps block attribute tags to values.
	Attributes map[string]string

	// XData maps registered application names to extended-data summaries.
	XData map[string]string

	// ExtDict maps extension-dictionary keys to record summaries.
	ExtDict map[string]string

	// Geometry carries kind-specific geometry; unused fields stay zero.
	Geometry Geometry
}

// Geometry is a sparse union of the geometry fields the known kinds use.
type Geometry struct {
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Z        float64 `json:"z,omitempty"`
	EndX     float64 `json:"end_x,omitempty"`
	EndY     float64 `json:"end_y,omitempty"`
	EndZ     float64 `json:"end_z,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	ScaleX   float64 `json:"scale_x,omitempty"`
	ScaleY   float64 `json:"scale_y,omitempty"`
	ScaleZ   float64 `json:"scale_z,omitempty"`
	StartAng float64 `json:"start_angle,omitempty"`
	EndAng   float64 `json:"end_angle,omitempty"`
	Closed   bool    `json:"closed,omitempty"`
	Vertices int     `json:"vertices,omitempty"`
}

// Ref returns the entity's stable reference.
func (e *Entity) Ref() Ref {
	return Ref{DocumentPath: e.DocumentPath, Handle: e.Handle}
}

// Category derives the display category from the base kind plus the
// refinement flags. Special cases are evaluated before the generic
// fallback for the same base kind: a polyline tagged as a revision cloud
// must never report as a plain polyline, and a dynamic or external block
// reference must never report as a plain block reference.
func (e *Entity) Category() string {
	switch e.Kind {
	case KindPolyline:
		if _, ok := e.XData[RevisionCloudApp]; ok {
			return CategoryRevisionCloud
		}
		return CategoryPolyline
	case KindBlockReference:
		if e.External {
			return CategoryXRef
		}
		if e.Dynamic {
			return CategoryDynamicBlock
		}
		return CategoryBlockReference
	case KindLine:
		return CategoryLine
	case KindCircle:
		return CategoryCircle
	case KindArc:
		return CategoryArc
	case KindHatch:
		return CategoryHatch
	case KindText:
		return CategoryText
	case KindMText:
		return CategoryMText
	case KindDimension:
		return CategoryDimension
	case KindLayout:
		return CategoryLayout
	case KindLayer:
		return CategoryLayer
	}
	return CategoryUnknown
}

// RevisionCloudApp is the registered application name whose presence in an
// entity's extended data marks a polyline as a revision cloud.
const RevisionCloudApp = "RevcloudProps"
