package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loadscribe/loadscribe/internal/capture"
	"github.com/loadscribe/loadscribe/internal/grouping"
	"github.com/loadscribe/loadscribe/internal/jmx"
	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harInput = `{
  "log": {
    "entries": [
      {
        "time": 90,
        "request": {"method": "GET", "url": "https://shop.example.com/api/products"},
        "response": {"status": 200}
      },
      {
        "time": 150,
        "request": {
          "method": "POST",
          "url": "https://shop.example.com/api/orders",
          "postData": {"mimeType": "application/json", "text": "{\"sku\":\"B-1\"}"}
        },
        "response": {"status": 201}
      },
      {
        "request": {"method": "GET", "url": "https://shop.example.com/api/cart"},
        "response": {"status": 200}
      }
    ]
  }
}`

func TestGenerateFromHAR(t *testing.T) {
	gen := New(nil, nil)
	doc, err := gen.Generate(context.Background(), Request{
		Content:  []byte(harInput),
		Title:    "Shop Plan",
		Strategy: grouping.ByFirstPathSegment,
		Profile:  models.DefaultLoadProfile(),
		Flags:    jmx.Flags{IncludeAssertions: true},
	})
	require.NoError(t, err)

	t.Run("plan carries the detected base URL", func(t *testing.T) {
		assert.Contains(t, doc.XML, `<stringProp name="Argument.value">shop.example.com</stringProp>`)
		assert.Contains(t, doc.XML, `<stringProp name="Argument.value">https</stringProp>`)
		assert.Contains(t, doc.XML, `<stringProp name="Argument.value">443</stringProp>`)
	})

	t.Run("one group for the shared first segment", func(t *testing.T) {
		assert.Equal(t, 1, strings.Count(doc.XML, "<ThreadGroup "))
		assert.Contains(t, doc.XML, `testname="api"`)
	})

	t.Run("samplers keep capture order", func(t *testing.T) {
		assert.Equal(t, 3, strings.Count(doc.XML, "<HTTPSamplerProxy "))
		products := strings.Index(doc.XML, `testname="GET /api/products"`)
		orders := strings.Index(doc.XML, `testname="POST /api/orders"`)
		cart := strings.Index(doc.XML, `testname="GET /api/cart"`)
		assert.Less(t, products, orders)
		assert.Less(t, orders, cart)
	})

	t.Run("captured body escaped into the plan", func(t *testing.T) {
		assert.Contains(t, doc.XML, "{&quot;sku&quot;:&quot;B-1&quot;}")
	})

	t.Run("summary and insight populated", func(t *testing.T) {
		assert.Equal(t, 3, doc.Summary.OperationCount)
		assert.Equal(t, []string{"shop.example.com"}, doc.Summary.Domains)
		assert.Equal(t, models.InsightSourceFallback, doc.Insight.Source)
	})
}

func TestGenerateKeepsProfileWithoutAI(t *testing.T) {
	gen := New(nil, nil)
	doc, err := gen.Generate(context.Background(), Request{
		Content:  []byte(harInput),
		Title:    "Sized Plan",
		Strategy: grouping.SingleDefaultGroup,
		Profile:  models.LoadProfile{ThreadCount: 50, RampUpSeconds: 30, LoopCount: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, models.InsightSourceFallback, doc.Insight.Source)
	assert.Contains(t, doc.XML, `<stringProp name="ThreadGroup.num_threads">50</stringProp>`)
	assert.NotContains(t, doc.XML, `<stringProp name="ThreadGroup.num_threads">10</stringProp>`)
}

func TestGenerateBaseURLOverride(t *testing.T) {
	gen := New(nil, nil)
	doc, err := gen.Generate(context.Background(), Request{
		Content:  []byte(harInput),
		Title:    "Staging Plan",
		Strategy: grouping.SingleDefaultGroup,
		Profile:  models.DefaultLoadProfile(),
		BaseURL:  "http://staging.internal:9090",
	})
	require.NoError(t, err)
	assert.Contains(t, doc.XML, `<stringProp name="Argument.value">staging.internal</stringProp>`)
	assert.Contains(t, doc.XML, `<stringProp name="Argument.value">9090</stringProp>`)
}

func TestGenerateFromContract(t *testing.T) {
	contract := `
openapi: 3.0.3
info:
  title: Items
  version: "1.0"
servers:
  - url: https://api.example.com:8443/v2
paths:
  /items/{id}:
    get:
      operationId: getItem
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
`
	gen := New(nil, nil)
	doc, err := gen.Generate(context.Background(), Request{
		Content:  []byte(contract),
		Title:    "Items Plan",
		Strategy: grouping.SingleDefaultGroup,
		Profile:  models.DefaultLoadProfile(),
	})
	require.NoError(t, err)

	for _, want := range []string{
		`<stringProp name="Argument.value">https</stringProp>`,
		`<stringProp name="Argument.value">api.example.com</stringProp>`,
		`<stringProp name="Argument.value">8443</stringProp>`,
	} {
		assert.Contains(t, doc.XML, want)
	}
	// Path parameters stay as template tokens.
	assert.Contains(t, doc.XML, `<stringProp name="HTTPSampler.path">/items/{id}</stringProp>`)
}

func TestGenerateMalformedInput(t *testing.T) {
	gen := New(nil, nil)
	_, err := gen.Generate(context.Background(), Request{
		Content: []byte("no recognizable shape"),
		Title:   "x",
		Profile: models.DefaultLoadProfile(),
	})
	var malformed *models.MalformedInputError
	require.True(t, errors.As(err, &malformed))
}

func TestGenerateInvalidProfile(t *testing.T) {
	gen := New(nil, nil)
	_, err := gen.Generate(context.Background(), Request{
		Content: []byte(harInput),
		Title:   "x",
		Profile: models.LoadProfile{ThreadCount: -1},
	})
	var serr *models.SerializationError
	require.True(t, errors.As(err, &serr))
}

func TestGeneratorRepair(t *testing.T) {
	gen := New(nil, nil)
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<jmeterTestPlan version="1.2" properties="5.0" jmeter="5.6.3">
  <hashTree>
    <ThreadGroup guiclass="ThreadGroupGui" testclass="ThreadGroup" testname="api" enabled="true">
    </ThreadGroup>
    <hashTree>
      <HTTPSamplerProxy guiclass="HttpTestSampleGui" testclass="HTTPSamplerProxy" testname="POST /api/orders" enabled="true">
      </HTTPSamplerProxy>
      <hashTree/>
    </hashTree>
  </hashTree>
</jmeterTestPlan>
`

	t.Run("re-derives operations from the input", func(t *testing.T) {
		out := gen.Repair(doc, []byte(harInput), jmx.Flags{}, capture.Options{})
		assert.Contains(t, out, "{&quot;sku&quot;:&quot;B-1&quot;}")
		assert.Contains(t, out, "<CookieManager")
		assert.Contains(t, out, `guiclass="SummaryReport"`)
	})

	t.Run("unparsable input repairs structure only", func(t *testing.T) {
		out := gen.Repair(doc, []byte("garbage input"), jmx.Flags{}, capture.Options{})
		assert.Contains(t, out, "<CookieManager")
		assert.NotContains(t, out, "B-1")
	})
}

func TestSplitBaseURL(t *testing.T) {
	tests := []struct {
		in       string
		protocol string
		host     string
		port     string
	}{
		{"", "https", "localhost", "443"},
		{"https://api.example.com", "https", "api.example.com", "443"},
		{"http://api.example.com", "http", "api.example.com", "80"},
		{"https://api.example.com:8443/v2", "https", "api.example.com", "8443"},
		{"http://localhost:3000", "http", "localhost", "3000"},
		{"not a url", "https", "localhost", "443"},
	}
	for _, tt := range tests {
		protocol, host, port := SplitBaseURL(tt.in)
		assert.Equal(t, tt.protocol, protocol, tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.port, port, tt.in)
	}
}
