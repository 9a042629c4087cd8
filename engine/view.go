package engine

// ============================================================================
// RECORD VIEW: Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns the loaded data. It reads through this interface.
//
// Implementations:
//   SliceView  : wraps []Record (CSV loader, tests)
//   SubView    : indices into a parent; indices may repeat (resampling)
//   ConcatView : virtual concatenation of two views
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops: keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView creates a RecordView from a []Record slice.
// keys fixes the dimension key order; without it keys are discovered from records.
func NewSliceView(records []Record, keys ...string) RecordView {
	v := &SliceView{records: records}
	if len(keys) > 0 {
		v.dimKeys = keys
		v.cacheMeasureKeys()
		return v
	}
	v.cacheKeys()
	return v
}

func (v *SliceView) cacheKeys() {
	dimSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !dimSeen[k] {
				dimSeen[k] = true
				v.dimKeys = append(v.dimKeys, k)
			}
		}
	}
	sortStrings(v.dimKeys)
	v.cacheMeasureKeys()
}

func (v *SliceView) cacheMeasureKeys() {
	mesSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Measures {
			if !mesSeen[k] {
				mesSeen[k] = true
				v.mesKeys = append(v.mesKeys, k)
			}
		}
	}
	sortStrings(v.mesKeys)
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// SUB VIEW: subset of a parent (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent: no data copy. The same parent index may
// appear more than once (sampling with replacement).
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// CONCAT VIEW: virtual concatenation of two views
// ============================================================================

// ConcatView logically concatenates two RecordViews.
type ConcatView struct {
	a, b RecordView
}

func newConcatView(a, b RecordView) RecordView {
	return &ConcatView{a: a, b: b}
}

// Concat joins any number of views in order. Nil views are skipped.
func Concat(views ...RecordView) RecordView {
	var out RecordView
	for _, v := range views {
		if v == nil {
			continue
		}
		if out == nil {
			out = v
			continue
		}
		out = newConcatView(out, v)
	}
	if out == nil {
		return NewSliceView(nil)
	}
	return out
}

func (v *ConcatView) Len() int { return v.a.Len() + v.b.Len() }

func (v *ConcatView) Dimension(i int, key string) string {
	if i < v.a.Len() {
		return v.a.Dimension(i, key)
	}
	return v.b.Dimension(i-v.a.Len(), key)
}

func (v *ConcatView) Measure(i int, key string) float64 {
	if i < v.a.Len() {
		return v.a.Measure(i, key)
	}
	return v.b.Measure(i-v.a.Len(), key)
}

func (v *ConcatView) DimensionKeys() []string { return v.a.DimensionKeys() }
func (v *ConcatView) MeasureKeys() []string   { return v.a.MeasureKeys() }

// HasDimension reports whether key is one of view's dimension keys.
func HasDimension(view RecordView, key string) bool {
	for _, k := range view.DimensionKeys() {
		if k == key {
			return true
		}
	}
	return false
}
