package jmx

import (
	"strings"
	"testing"

	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// externalPlan mimics a plan produced by an external generator: valid shape,
// but missing both listeners, all per-group managers, and the POST body.
const externalPlan = `<?xml version="1.0" encoding="UTF-8"?>
<jmeterTestPlan version="1.2" properties="5.0" jmeter="5.6.3">
  <hashTree>
    <TestPlan guiclass="TestPlanGui" testclass="TestPlan" testname="External Plan" enabled="true">
      <stringProp name="TestPlan.comments"></stringProp>
    </TestPlan>
    <hashTree>
      <ThreadGroup guiclass="ThreadGroupGui" testclass="ThreadGroup" testname="api" enabled="true">
        <stringProp name="ThreadGroup.num_threads">10</stringProp>
      </ThreadGroup>
      <hashTree>
        <HTTPSamplerProxy guiclass="HttpTestSampleGui" testclass="HTTPSamplerProxy" testname="POST /api/orders" enabled="true">
          <stringProp name="HTTPSampler.path">/api/orders</stringProp>
          <stringProp name="HTTPSampler.method">POST</stringProp>
        </HTTPSamplerProxy>
        <hashTree/>
      </hashTree>
    </hashTree>
  </hashTree>
</jmeterTestPlan>
`

func orderOps() []models.Operation {
	return []models.Operation{
		{Name: "POST /api/orders", Method: "POST", Path: "/api/orders",
			RequestBody: &models.RequestBody{Literal: `{"items":[{"sku":"B-1"}],"note":"a & b"}`}},
	}
}

func TestRepairInsertsMissingListeners(t *testing.T) {
	out := Repair(externalPlan, Flags{}, nil, nil)

	assert.Equal(t, 1, strings.Count(out, detailedListenerMarker))
	assert.Equal(t, 1, strings.Count(out, summaryListenerMarker))

	// Listeners land inside the outermost hashTree wrapper.
	assert.Less(t, strings.Index(out, detailedListenerMarker), strings.LastIndex(out, "</hashTree>"))
}

func TestRepairPreservesExistingListener(t *testing.T) {
	insertAt := strings.LastIndex(externalPlan, "</hashTree>")
	require.Greater(t, insertAt, 0)
	doc := externalPlan[:insertAt] +
		"<ResultCollector guiclass=\"ViewResultsFullVisualizer\" testclass=\"ResultCollector\" testname=\"View Results Tree\" enabled=\"true\"/>\n<hashTree/>\n" +
		externalPlan[insertAt:]

	out := Repair(doc, Flags{}, nil, nil)
	assert.Equal(t, 1, strings.Count(out, detailedListenerMarker))
	assert.Equal(t, 1, strings.Count(out, summaryListenerMarker))
}

func TestRepairMissingSummaryListenerOnly(t *testing.T) {
	// A document that is complete except for the summary listener: the
	// existing bytes must be preserved around a single inserted fragment.
	base := `<?xml version="1.0" encoding="UTF-8"?>
<jmeterTestPlan version="1.2" properties="5.0" jmeter="5.6.3">
  <hashTree>
    <ThreadGroup guiclass="ThreadGroupGui" testclass="ThreadGroup" testname="api" enabled="true">
    </ThreadGroup>
    <hashTree>
      <CookieManager guiclass="CookiePanel" testclass="CookieManager" testname="HTTP Cookie Manager" enabled="true"/>
      <hashTree/>
      <CacheManager guiclass="CacheManagerGui" testclass="CacheManager" testname="HTTP Cache Manager" enabled="true"/>
      <hashTree/>
    </hashTree>
    <ResultCollector guiclass="ViewResultsFullVisualizer" testclass="ResultCollector" testname="View Results Tree" enabled="true"/>
    <hashTree/>
  </hashTree>
</jmeterTestPlan>
`
	out := Repair(base, Flags{}, nil, nil)

	insertAt := strings.LastIndex(base, "</hashTree>")
	assert.Equal(t, base[:insertAt], out[:insertAt], "bytes before the insertion point must be untouched")
	assert.True(t, strings.HasSuffix(out, base[insertAt:]), "bytes after the insertion point must be untouched")
	assert.Equal(t, 1, strings.Count(out, summaryListenerMarker))
	assert.Equal(t, 1, strings.Count(out, detailedListenerMarker))
}

func TestRepairInsertsThreadGroupManagers(t *testing.T) {
	out := Repair(externalPlan, Flags{}, nil, nil)

	assert.Equal(t, 1, strings.Count(out, cookieManagerMarker))
	assert.Equal(t, 1, strings.Count(out, cacheManagerMarker))
	assert.Zero(t, strings.Count(out, csvDataSetMarker))

	// Managers go at the top of the thread group's subtree, before the
	// first sampler.
	assert.Less(t, strings.Index(out, cookieManagerMarker), strings.Index(out, samplerOpenTag))
}

func TestRepairInsertsDataSourceWhenEnabled(t *testing.T) {
	out := Repair(externalPlan, Flags{IncludeExternalDataSource: true}, nil, nil)
	assert.Equal(t, 1, strings.Count(out, csvDataSetMarker))
}

func TestRepairExpandsEmptyThreadGroupSubtree(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<jmeterTestPlan version="1.2" properties="5.0" jmeter="5.6.3">
  <hashTree>
    <ThreadGroup guiclass="ThreadGroupGui" testclass="ThreadGroup" testname="empty" enabled="true">
    </ThreadGroup>
    <hashTree/>
  </hashTree>
</jmeterTestPlan>
`
	out := Repair(doc, Flags{}, nil, nil)
	assert.Equal(t, 1, strings.Count(out, cookieManagerMarker))
	assert.Equal(t, 1, strings.Count(out, cacheManagerMarker))
}

func TestRepairReinjectsDroppedBody(t *testing.T) {
	out := Repair(externalPlan, Flags{}, orderOps(), nil)

	assert.Contains(t, out, `<boolProp name="HTTPSampler.postBodyRaw">true</boolProp>`)
	assert.Contains(t, out, "{&quot;items&quot;:[{&quot;sku&quot;:&quot;B-1&quot;}]")

	// The fragment goes inside the matched sampler element.
	body := strings.Index(out, "HTTPSampler.postBodyRaw")
	open := strings.Index(out, samplerOpenTag)
	closing := strings.Index(out, samplerCloseTag)
	assert.Greater(t, body, open)
	assert.Less(t, body, closing)
}

func TestRepairSkipsPresentBody(t *testing.T) {
	withBody := Repair(externalPlan, Flags{}, orderOps(), nil)
	again := Repair(withBody, Flags{}, orderOps(), nil)
	assert.Equal(t, 1, strings.Count(again, "HTTPSampler.postBodyRaw"))
}

func TestRepairSkipsUnmatchedOperation(t *testing.T) {
	ops := []models.Operation{
		{Name: "PUT /api/profile", Method: "PUT", Path: "/api/profile",
			RequestBody: &models.RequestBody{Literal: `{"nickname":"zed"}`}},
	}
	out := Repair(externalPlan, Flags{}, ops, nil)
	assert.NotContains(t, out, "nickname")
}

func TestRepairIdempotent(t *testing.T) {
	for _, flags := range []Flags{{}, {IncludeExternalDataSource: true}} {
		once := Repair(externalPlan, flags, orderOps(), nil)
		twice := Repair(once, flags, orderOps(), nil)
		assert.Equal(t, once, twice)
	}
}

func TestRepairOnGeneratedPlanAddsOnlyManagers(t *testing.T) {
	generated := serialize(t, testGroups(), models.DefaultLoadProfile(), defaultOpts(), nil)

	out := Repair(generated, Flags{}, nil, nil)
	assert.Equal(t, 2, strings.Count(out, "<ResultCollector "))
	assert.Equal(t, 1, strings.Count(out, cookieManagerMarker))

	again := Repair(out, Flags{}, nil, nil)
	assert.Equal(t, out, again)
}

func TestRepairUnworkableInputUnchanged(t *testing.T) {
	assert.Equal(t, "not xml at all", Repair("not xml at all", Flags{}, nil, nil))
}
