package capture

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/loadscribe/loadscribe/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseOpenAPI converts a contract document (JSON or YAML) into an ordered
// operation list. Paths and methods iterate in the document's own key order,
// which map-based decoders discard; a yaml.Node walk recovers it and the
// typed schema model comes from kin-openapi.
func ParseOpenAPI(data []byte, opts Options) (*Result, error) {
	order, err := contractKeyOrder(data)
	if err != nil {
		return nil, err
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &models.MalformedInputError{Source: "openapi", Reason: "document did not load as an OpenAPI contract", Cause: err}
	}
	if doc.Paths == nil {
		return nil, &models.MalformedInputError{Source: "openapi", Reason: "missing paths"}
	}

	result := &Result{Kind: KindOpenAPI}
	if len(doc.Servers) > 0 {
		result.BaseURL = doc.Servers[0].URL
	}
	host := baseHost(result.BaseURL)

	seq := 0
	for _, entry := range order {
		item := doc.Paths.Find(entry.path)
		if item == nil {
			continue
		}
		for _, method := range entry.methods {
			if !methodAllowed(method, opts) {
				continue
			}
			apiOp := item.GetOperation(method)
			if apiOp == nil {
				continue
			}
			op := buildContractOperation(entry.path, method, item, apiOp)
			op.Host = host
			op.SequenceIndex = seq
			seq++
			result.Operations = append(result.Operations, op)
		}
	}
	return result, nil
}

type pathOrder struct {
	path    string
	methods []string
}

// contractKeyOrder walks the raw document and records paths and their methods
// in source order.
func contractKeyOrder(data []byte) ([]pathOrder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &models.MalformedInputError{Source: "openapi", Reason: "document is neither valid JSON nor YAML", Cause: err}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &models.MalformedInputError{Source: "openapi", Reason: "top level is not an object"}
	}
	paths := mapValue(root.Content[0], "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return nil, &models.MalformedInputError{Source: "openapi", Reason: "missing paths"}
	}

	var order []pathOrder
	for i := 0; i+1 < len(paths.Content); i += 2 {
		entry := pathOrder{path: paths.Content[i].Value}
		item := paths.Content[i+1]
		if item.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(item.Content); j += 2 {
				method := strings.ToUpper(item.Content[j].Value)
				if isHTTPMethod(method) {
					entry.methods = append(entry.methods, method)
				}
			}
		}
		order = append(order, entry)
	}
	return order, nil
}

func mapValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isHTTPMethod(m string) bool {
	for _, known := range models.SupportedMethods {
		if m == known {
			return true
		}
	}
	return false
}

func methodAllowed(m string, opts Options) bool {
	if m == "HEAD" || m == "OPTIONS" {
		return opts.IncludeHeadOptions
	}
	return true
}

func buildContractOperation(path, method string, item *openapi3.PathItem, apiOp *openapi3.Operation) models.Operation {
	op := models.Operation{
		Method: method,
		Path:   path,
		Tags:   apiOp.Tags,
	}
	op.Name = apiOp.OperationID
	if op.Name == "" {
		op.Name = fmt.Sprintf("%s %s", method, path)
	}

	declared := map[string]bool{}
	params := append(append([]*openapi3.ParameterRef{}, item.Parameters...), apiOp.Parameters...)
	for _, ref := range params {
		p := ref.Value
		if p == nil {
			continue
		}
		switch p.In {
		case openapi3.ParameterInQuery:
			op.QueryParameters = append(op.QueryParameters, models.Param{
				Name:  p.Name,
				Value: parameterSample(p),
			})
		case openapi3.ParameterInHeader:
			op.RequestHeaders = append(op.RequestHeaders, models.Header{
				Name:  p.Name,
				Value: parameterSample(p),
			})
		case openapi3.ParameterInPath:
			declared[p.Name] = true
			op.PathParameters = append(op.PathParameters, p.Name)
		}
	}
	// Path tokens not declared in the parameters list are still registered,
	// with unknown type.
	for _, name := range models.ExtractPathParameters(path) {
		if !declared[name] {
			op.PathParameters = append(op.PathParameters, name)
		}
	}

	if apiOp.RequestBody != nil && apiOp.RequestBody.Value != nil {
		op.RequestBody = contractBody(apiOp.RequestBody.Value)
	}
	op.ExpectedStatus = contractStatusCodes(apiOp.Responses)
	return op
}

func parameterSample(p *openapi3.Parameter) string {
	if p.Example != nil {
		return fmt.Sprintf("%v", p.Example)
	}
	if p.Schema != nil && p.Schema.Value != nil && p.Schema.Value.Example != nil {
		return fmt.Sprintf("%v", p.Schema.Value.Example)
	}
	return "sample_" + p.Name
}

func contractBody(rb *openapi3.RequestBody) *models.RequestBody {
	mediaType := "application/json"
	content := rb.Content.Get(mediaType)
	if content == nil {
		// Deterministic fallback: the lexicographically first declared media type.
		types := make([]string, 0, len(rb.Content))
		for mt := range rb.Content {
			types = append(types, mt)
		}
		sort.Strings(types)
		if len(types) > 0 {
			mediaType = types[0]
			content = rb.Content[types[0]]
		}
	}
	if content == nil {
		return nil
	}
	body := &models.RequestBody{MediaType: mediaType}
	if content.Schema != nil {
		body.Schema = convertSchema(content.Schema, 0)
	}
	return body
}

// maxSchemaDepth bounds recursion on self-referential resolved schemas.
const maxSchemaDepth = 8

func convertSchema(ref *openapi3.SchemaRef, depth int) *models.Schema {
	if ref == nil || ref.Value == nil || depth > maxSchemaDepth {
		return nil
	}
	s := ref.Value
	out := &models.Schema{}
	if s.Type != nil && len(*s.Type) > 0 {
		out.Type = (*s.Type)[0]
	}
	if s.Example != nil {
		out.Example = s.Example
		out.HasExample = true
	}
	if s.Items != nil {
		out.Items = convertSchema(s.Items, depth+1)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*models.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop, depth+1)
		}
	}
	return out
}

func contractStatusCodes(responses *openapi3.Responses) []int {
	if responses == nil {
		return nil
	}
	var codes []int
	for key := range responses.Map() {
		if code, err := strconv.Atoi(key); err == nil {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	return codes
}

func baseHost(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
