package releasenotes

// Variant is one member of an enumeration: its stored integer value and its
// display label.
type Variant[T ~int] struct {
	Value T
	Label string
}

// Code is the stored integer value, as used in forms.
func (v Variant[T]) Code() int { return int(v.Value) }

// Enum is an ordered list of variants with a lookup table keyed by value.
// The order of the list is the display order.
type Enum[T ~int] struct {
	variants []Variant[T]
	labels   map[T]string
}

func newEnum[T ~int](variants ...Variant[T]) Enum[T] {
	labels := make(map[T]string, len(variants))
	for _, v := range variants {
		labels[v.Value] = v.Label
	}
	return Enum[T]{variants: variants, labels: labels}
}

// Variants returns the variants in display order.
func (e Enum[T]) Variants() []Variant[T] {
	out := make([]Variant[T], len(e.variants))
	copy(out, e.variants)
	return out
}

// Label returns the display label for v and whether v is a known variant.
func (e Enum[T]) Label(v T) (string, bool) {
	l, ok := e.labels[v]
	return l, ok
}

// Valid reports whether v is a known variant.
func (e Enum[T]) Valid(v T) bool {
	_, ok := e.labels[v]
	return ok
}

// Len returns the number of variants.
func (e Enum[T]) Len() int { return len(e.variants) }

// Platform is a browser platform code.
type Platform int

const (
	PlatformAndroid  Platform = 1
	PlatformIOS      Platform = 2
	PlatformChromeOS Platform = 3
	PlatformLacros   Platform = 4
	PlatformLinux    Platform = 5
	PlatformMac      Platform = 6
	PlatformWindows  Platform = 7
	PlatformFuchsia  Platform = 8
)

var Platforms = newEnum(
	Variant[Platform]{PlatformAndroid, "Android"},
	Variant[Platform]{PlatformIOS, "iOS"},
	Variant[Platform]{PlatformChromeOS, "Chrome OS"},
	Variant[Platform]{PlatformLacros, "LaCrOS"},
	Variant[Platform]{PlatformLinux, "Linux"},
	Variant[Platform]{PlatformMac, "Mac"},
	Variant[Platform]{PlatformWindows, "Windows"},
	Variant[Platform]{PlatformFuchsia, "Fuchsia"},
)

func (p Platform) String() string {
	if l, ok := Platforms.Label(p); ok {
		return l
	}
	return "Unknown"
}

// Impact ranks how disruptive a rollout is. Zero means no impact was recorded.
type Impact int

const (
	ImpactNone   Impact = 0
	ImpactLow    Impact = 1
	ImpactMedium Impact = 2
	ImpactHigh   Impact = 3
)

var Impacts = newEnum(
	Variant[Impact]{ImpactLow, "Low"},
	Variant[Impact]{ImpactMedium, "Medium"},
	Variant[Impact]{ImpactHigh, "High"},
)

func (i Impact) String() string {
	if l, ok := Impacts.Label(i); ok {
		return l
	}
	return "None"
}

// EnterpriseFeatureCategory is the admin-facing area a feature touches.
type EnterpriseFeatureCategory int

const (
	CategorySecurityAndPrivacy      EnterpriseFeatureCategory = 1
	CategoryUserProductivityAndApps EnterpriseFeatureCategory = 2
	CategoryManagement              EnterpriseFeatureCategory = 3
)

var EnterpriseFeatureCategories = newEnum(
	Variant[EnterpriseFeatureCategory]{CategorySecurityAndPrivacy, "Security / Privacy"},
	Variant[EnterpriseFeatureCategory]{CategoryUserProductivityAndApps, "User productivity / Apps"},
	Variant[EnterpriseFeatureCategory]{CategoryManagement, "Management"},
)

func (c EnterpriseFeatureCategory) String() string {
	if l, ok := EnterpriseFeatureCategories.Label(c); ok {
		return l
	}
	return "Unknown"
}

// ProductCategory decides which release notes section a feature belongs to.
type ProductCategory int

const (
	ProductBrowserUpdate     ProductCategory = 1
	ProductEnterpriseCore    ProductCategory = 2
	ProductEnterprisePremium ProductCategory = 3
)

var ProductCategories = newEnum(
	Variant[ProductCategory]{ProductBrowserUpdate, "Chrome Browser update"},
	Variant[ProductCategory]{ProductEnterpriseCore, "Chrome Enterprise Core"},
	Variant[ProductCategory]{ProductEnterprisePremium, "Chrome Enterprise Premium"},
)

func (c ProductCategory) String() string {
	if l, ok := ProductCategories.Label(c); ok {
		return l
	}
	return "Unknown"
}

// FeatureType selects the launch process a new feature follows.
type FeatureType int

const (
	FeatureTypeIncubate    FeatureType = 0
	FeatureTypeExisting    FeatureType = 1
	FeatureTypeCodeChange  FeatureType = 2
	FeatureTypeDeprecation FeatureType = 3
	FeatureTypeEnterprise  FeatureType = 4
)

var FeatureTypes = newEnum(
	Variant[FeatureType]{FeatureTypeIncubate, "New feature incubation"},
	Variant[FeatureType]{FeatureTypeExisting, "Existing feature implementation"},
	Variant[FeatureType]{FeatureTypeCodeChange, "Web developer-facing change to existing code"},
	Variant[FeatureType]{FeatureTypeDeprecation, "Feature deprecation"},
	Variant[FeatureType]{FeatureTypeEnterprise, "New Feature or removal affecting enterprises"},
)

var featureTypeDescriptions = map[FeatureType]string{
	FeatureTypeIncubate: "When building new features, we follow a process that emphasizes engagement " +
		"with the WICG and other stakeholders early.",
	FeatureTypeExisting: "If there is already an agreed specification, work may quickly start on " +
		"implementation and origin trials.",
	FeatureTypeCodeChange: "Sometimes a change to a shipped feature requires an additional feature entry. " +
		"This type of feature entry can be referenced from a PSA immediately.",
	FeatureTypeDeprecation: "Deprecate and remove an old feature.",
	FeatureTypeEnterprise:  "For features or changes that need to be communicated to enterprises or schools.",
}

// Description is the help text shown next to the feature type choice.
func (t FeatureType) Description() string { return featureTypeDescriptions[t] }

func (t FeatureType) String() string {
	if l, ok := FeatureTypes.Label(t); ok {
		return l
	}
	return "Unknown"
}

// NonEnterpriseFeatureTypes lists the choices of the regular new feature form.
func NonEnterpriseFeatureTypes() []Variant[FeatureType] {
	out := make([]Variant[FeatureType], 0, FeatureTypes.Len()-1)
	for _, v := range FeatureTypes.variants {
		if v.Value != FeatureTypeEnterprise {
			out = append(out, v)
		}
	}
	return out
}

// StageType tags a lifecycle stage. Values are grouped by process; each process
// has its own block so stages can carry different review gates.
type StageType int

const (
	StageBlinkIncubate          StageType = 110
	StageBlinkPrototype         StageType = 120
	StageBlinkDevTrial          StageType = 130
	StageBlinkEvalReadiness     StageType = 140
	StageBlinkOriginTrial       StageType = 150
	StageBlinkExtendOriginTrial StageType = 151
	StageBlinkShipping          StageType = 160

	StageFastPrototype         StageType = 220
	StageFastDevTrial          StageType = 230
	StageFastOriginTrial       StageType = 250
	StageFastExtendOriginTrial StageType = 251
	StageFastShipping          StageType = 260

	StagePSAImplementFields StageType = 320
	StagePSADevTrial        StageType = 330
	StagePSAShipping        StageType = 360

	StageDepPlan                   StageType = 410
	StageDepDevTrial               StageType = 430
	StageDepDeprecationTrial       StageType = 450
	StageDepExtendDeprecationTrial StageType = 451
	StageDepShipping               StageType = 460

	// 500-999 are reserved for future processes.

	StageEntRollout StageType = 1061
	StageEntShipped StageType = 1070
)

var StageTypes = newEnum(
	Variant[StageType]{StageBlinkIncubate, "Incubate"},
	Variant[StageType]{StageBlinkPrototype, "Prototype"},
	Variant[StageType]{StageBlinkDevTrial, "DevTrial"},
	Variant[StageType]{StageBlinkEvalReadiness, "Eval readiness"},
	Variant[StageType]{StageBlinkOriginTrial, "OT"},
	Variant[StageType]{StageBlinkExtendOriginTrial, "Extend OT"},
	Variant[StageType]{StageBlinkShipping, "Ship"},
	Variant[StageType]{StageFastPrototype, "Prototype"},
	Variant[StageType]{StageFastDevTrial, "DevTrial"},
	Variant[StageType]{StageFastOriginTrial, "OT"},
	Variant[StageType]{StageFastExtendOriginTrial, "Extend OT"},
	Variant[StageType]{StageFastShipping, "Ship"},
	Variant[StageType]{StagePSAImplementFields, "Implement"},
	Variant[StageType]{StagePSADevTrial, "DevTrial"},
	Variant[StageType]{StagePSAShipping, "Ship"},
	Variant[StageType]{StageDepPlan, "Plan"},
	Variant[StageType]{StageDepDevTrial, "DevTrial"},
	Variant[StageType]{StageDepDeprecationTrial, "Dep Trial"},
	Variant[StageType]{StageDepExtendDeprecationTrial, "Extend Dep Trial"},
	Variant[StageType]{StageDepShipping, "Ship"},
	Variant[StageType]{StageEntRollout, "Rollout"},
	Variant[StageType]{StageEntShipped, "Ship"},
)

func (s StageType) String() string {
	if l, ok := StageTypes.Label(s); ok {
		return l
	}
	return "Unknown"
}

var shippingStageTypes = map[StageType]bool{
	StageBlinkShipping: true,
	StageFastShipping:  true,
	StagePSAShipping:   true,
	StageDepShipping:   true,
}

// IsShipping reports whether s is the shipping stage of one of the web
// platform processes.
func (s StageType) IsShipping() bool { return shippingStageTypes[s] }

// IsRollout reports whether s is the enterprise rollout stage.
func (s StageType) IsRollout() bool { return s == StageEntRollout }

// ShippingStageFor returns the shipping stage type of the process that t
// follows. Enterprise features ship through a rollout stage.
func ShippingStageFor(t FeatureType) StageType {
	switch t {
	case FeatureTypeExisting:
		return StageFastShipping
	case FeatureTypeCodeChange:
		return StagePSAShipping
	case FeatureTypeDeprecation:
		return StageDepShipping
	case FeatureTypeEnterprise:
		return StageEntRollout
	default:
		return StageBlinkShipping
	}
}
