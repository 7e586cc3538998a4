package releasenotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumOrderAndLabels(t *testing.T) {
	vs := Platforms.Variants()
	assert.Len(t, vs, 8)
	assert.Equal(t, PlatformAndroid, vs[0].Value)
	assert.Equal(t, PlatformFuchsia, vs[7].Value)

	l, ok := Platforms.Label(PlatformMac)
	assert.True(t, ok)
	assert.Equal(t, "Mac", l)

	_, ok = Platforms.Label(99)
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Platform(99).String())

	// Callers can't reorder the shared table.
	vs[0], vs[1] = vs[1], vs[0]
	assert.Equal(t, PlatformAndroid, Platforms.Variants()[0].Value)
}

func TestProductCategories(t *testing.T) {
	assert.True(t, ProductCategories.Valid(ProductBrowserUpdate))
	assert.True(t, ProductCategories.Valid(ProductEnterprisePremium))
	assert.False(t, ProductCategories.Valid(0))
	assert.Equal(t, "Chrome Enterprise Core", ProductEnterpriseCore.String())
}

func TestImpactString(t *testing.T) {
	assert.Equal(t, "High", ImpactHigh.String())
	assert.Equal(t, "None", ImpactNone.String())
}

func TestStageTypeGroups(t *testing.T) {
	for _, s := range []StageType{StageBlinkShipping, StageFastShipping, StagePSAShipping, StageDepShipping} {
		assert.True(t, s.IsShipping(), s.String())
		assert.False(t, s.IsRollout())
	}
	assert.False(t, StageEntShipped.IsShipping())
	assert.False(t, StageBlinkOriginTrial.IsShipping())
	assert.True(t, StageEntRollout.IsRollout())
	assert.Equal(t, "Extend Dep Trial", StageDepExtendDeprecationTrial.String())
}

func TestFeatureTypes(t *testing.T) {
	regular := NonEnterpriseFeatureTypes()
	assert.Len(t, regular, 4)
	for _, v := range regular {
		assert.NotEqual(t, FeatureTypeEnterprise, v.Value)
		assert.NotEmpty(t, v.Value.Description())
	}

	assert.Equal(t, StageBlinkShipping, ShippingStageFor(FeatureTypeIncubate))
	assert.Equal(t, StageFastShipping, ShippingStageFor(FeatureTypeExisting))
	assert.Equal(t, StagePSAShipping, ShippingStageFor(FeatureTypeCodeChange))
	assert.Equal(t, StageDepShipping, ShippingStageFor(FeatureTypeDeprecation))
	assert.Equal(t, StageEntRollout, ShippingStageFor(FeatureTypeEnterprise))
}
